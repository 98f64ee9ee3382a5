package renderer

import (
	"fmt"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

type cacheEntry struct {
	sprite Sprite
	mask   metadata.Color
	width  uint32
	height uint32
}

// SpriteCache shares sprites by path and reloads them in place when their
// file changes on disk.
type SpriteCache struct {
	video   VideoHandle
	density float32
	entries map[string]*cacheEntry
}

func NewSpriteCache(v Video, density float32) *SpriteCache {
	if density <= 0 {
		density = 1
	}
	return &SpriteCache{
		video:   v.Handle(),
		density: density,
		entries: make(map[string]*cacheEntry),
	}
}

// Get returns the cached sprite for path, loading it on first use.
func (c *SpriteCache) Get(path string) (Sprite, error) {
	return c.GetKeyed(path, 0, 0, 0)
}

func (c *SpriteCache) GetKeyed(path string, mask metadata.Color, width, height uint32) (Sprite, error) {
	if e, ok := c.entries[path]; ok {
		return e.sprite, nil
	}
	video, ok := c.video.Resolve()
	if !ok {
		return nil, fmt.Errorf("sprite %s: %w", path, core.ErrDeviceLost)
	}
	s, err := LoadSprite(video, path, mask, width, height)
	if err != nil {
		return nil, err
	}
	c.insert(path, s, mask, width, height)
	return s, nil
}

func (c *SpriteCache) insert(path string, s Sprite, mask metadata.Color, width, height uint32) {
	if c.density != 1 {
		s.SetSpriteDensityValue(c.density)
	}
	c.entries[path] = &cacheEntry{sprite: s, mask: mask, width: width, height: height}
}

// Preload reads the files of paths on the job workers and creates their
// sprites from JobSystem.Update as the reads finish. done, when set, is
// called once per submitted path. Paths already cached are skipped.
func (c *SpriteCache) Preload(jobs *core.JobSystem, paths []string, done func(path string, err error)) error {
	video, ok := c.video.Resolve()
	if !ok {
		return fmt.Errorf("preload: %w", core.ErrDeviceLost)
	}
	fm := video.FileManager()
	report := func(path string, err error) {
		if done != nil {
			done(path, err)
		}
	}

	for _, path := range paths {
		if c.Contains(path) {
			continue
		}
		path := path
		err := jobs.Submit(core.Job{
			Name: "preload " + path,
			Work: func() (interface{}, error) {
				buf, ok := fm.GetFileBuffer(path)
				if !ok {
					return nil, fmt.Errorf("sprite %s: file not found: %w", path, core.ErrLoad)
				}
				return buf, nil
			},
			OnComplete: func(result interface{}) {
				if c.Contains(path) {
					report(path, nil)
					return
				}
				video, ok := c.video.Resolve()
				if !ok {
					report(path, fmt.Errorf("sprite %s: %w", path, core.ErrDeviceLost))
					return
				}
				s, err := LoadSpriteFromMemory(video, result.([]byte), 0, 0, 0)
				if err != nil {
					report(path, fmt.Errorf("sprite %s: %w", path, err))
					return
				}
				c.insert(path, s, 0, 0, 0)
				report(path, nil)
			},
			OnFailure: func(err error) { report(path, err) },
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *SpriteCache) Contains(path string) bool {
	_, ok := c.entries[path]
	return ok
}

func (c *SpriteCache) Len() int {
	return len(c.entries)
}

// Reload decodes path again and swaps the new texture into the cached
// sprite, so existing references keep working. Paths not in the cache are
// ignored.
func (c *SpriteCache) Reload(path string) error {
	e, ok := c.entries[path]
	if !ok {
		return nil
	}
	video, ok := c.video.Resolve()
	if !ok {
		return fmt.Errorf("reload %s: %w", path, core.ErrDeviceLost)
	}
	buf, ok := video.FileManager().GetFileBuffer(path)
	if !ok {
		return fmt.Errorf("reload %s: file not found: %w", path, core.ErrLoad)
	}
	tex, err := video.CreateTextureFromMemory(buf, e.mask, e.width, e.height)
	if err != nil {
		return fmt.Errorf("reload %s: %v: %w", path, err, core.ErrLoad)
	}

	r, ok := e.sprite.(interface{ replaceTexture(Texture) })
	if !ok {
		tex.Release()
		return fmt.Errorf("reload %s: sprite does not support reloading: %w", path, core.ErrUnknown)
	}
	r.replaceTexture(tex)
	core.LogInfo("reloaded sprite %s", path)
	return nil
}

func (c *SpriteCache) Release(path string) {
	if e, ok := c.entries[path]; ok {
		e.sprite.Release()
		delete(c.entries, path)
	}
}

func (c *SpriteCache) Clear() {
	for p := range c.entries {
		c.Release(p)
	}
}
