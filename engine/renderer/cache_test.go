package renderer

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
)

func TestSpriteCacheSharesSprites(t *testing.T) {
	v := newMockVideo(testFiles())
	c := NewSpriteCache(v, 1)

	a, err := c.Get("hero.png")
	if err != nil {
		t.Fatalf("Get: %s", err)
	}
	b, _ := c.Get("hero.png")
	if a != b || c.Len() != 1 {
		t.Fatalf("the same path should give the same sprite")
	}
	if _, err := c.Get("missing.png"); !errors.Is(err, core.ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
	if c.Contains("missing.png") {
		t.Fatalf("failed loads must not be cached")
	}
}

func TestSpriteCacheDensity(t *testing.T) {
	v := newMockVideo(testFiles())
	c := NewSpriteCache(v, 2)
	s, _ := c.Get("hero.png")
	if s.BitmapSizeF() != math.NewVec2(32, 32) {
		t.Fatalf("cache density not applied, got %+v", s.BitmapSizeF())
	}
}

func TestSpriteCacheReloadKeepsIdentity(t *testing.T) {
	v := newMockVideo(testFiles())
	c := NewSpriteCache(v, 1)
	s, _ := c.Get("hero.png")
	_ = s.SetupSpriteRects(2, 2)
	_ = s.SetRect(3)
	old := s.Texture().(*mockTexture)

	v.textureW, v.textureH = 128, 128
	if err := c.Reload("hero.png"); err != nil {
		t.Fatalf("Reload: %s", err)
	}
	again, _ := c.Get("hero.png")
	if again != s {
		t.Fatalf("reload must keep the sprite")
	}
	if s.BitmapSizeF() != math.NewVec2(128, 128) {
		t.Fatalf("new texture not picked up, got %+v", s.BitmapSizeF())
	}
	if s.NumRects() != 4 || s.RectIndex() != 3 || s.Rect().Pos != math.NewVec2(64, 64) {
		t.Fatalf("grid and frame should survive a reload, got %d %d %+v", s.NumRects(), s.RectIndex(), s.Rect())
	}
	if !old.released {
		t.Fatalf("old texture should be released")
	}

	if err := c.Reload("other.png"); err != nil {
		t.Fatalf("uncached paths are ignored, got %v", err)
	}
}

func TestSpriteCacheReloadFailureKeepsSprite(t *testing.T) {
	v := newMockVideo(testFiles())
	c := NewSpriteCache(v, 1)
	s, _ := c.Get("hero.png")
	tex := s.Texture()

	v.failLoad = true
	if err := c.Reload("hero.png"); !errors.Is(err, core.ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
	if s.Texture() != tex {
		t.Fatalf("a failed reload must keep the old texture")
	}
}

func TestSpriteCacheClear(t *testing.T) {
	v := newMockVideo(testFiles())
	c := NewSpriteCache(v, 1)
	_, _ = c.Get("hero.png")
	c.Clear()
	if c.Len() != 0 || len(v.Sprites()) != 0 {
		t.Fatalf("Clear should release every sprite")
	}

	v.Destroy()
	if _, err := c.Get("hero.png"); !errors.Is(err, core.ErrDeviceLost) {
		t.Fatalf("expected ErrDeviceLost after Destroy, got %v", err)
	}
}

func TestSpriteCachePreload(t *testing.T) {
	v := newMockVideo(testFiles())
	c := NewSpriteCache(v, 1)
	jobs, err := core.NewJobSystem(2, 4)
	if err != nil {
		t.Fatalf("NewJobSystem: %s", err)
	}
	defer jobs.Shutdown()

	results := make(map[string]error)
	done := func(path string, err error) { results[path] = err }
	if err := c.Preload(jobs, []string{"hero.png", "missing.png"}, done); err != nil {
		t.Fatalf("Preload: %s", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for jobs.Pending() > 0 && time.Now().Before(deadline) {
		jobs.Update()
		time.Sleep(time.Millisecond)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %v", results)
	}
	if results["hero.png"] != nil || !c.Contains("hero.png") {
		t.Fatalf("hero.png should be cached, got %v", results["hero.png"])
	}
	if !errors.Is(results["missing.png"], core.ErrLoad) || c.Contains("missing.png") {
		t.Fatalf("missing.png should fail with ErrLoad, got %v", results["missing.png"])
	}
}

func TestSpriteCachePreloadManyPathsWithoutUpdate(t *testing.T) {
	v := newMockVideo(testFiles())
	c := NewSpriteCache(v, 1)
	jobs, err := core.NewJobSystem(2, 4)
	if err != nil {
		t.Fatalf("NewJobSystem: %s", err)
	}
	defer jobs.Shutdown()

	const count = 40
	paths := make([]string, count)
	for i := range paths {
		paths[i] = fmt.Sprintf("missing-%02d.png", i)
	}

	failed := 0
	submitted := make(chan error, 1)
	go func() {
		submitted <- c.Preload(jobs, paths, func(path string, err error) {
			if errors.Is(err, core.ErrLoad) {
				failed++
			}
		})
	}()
	select {
	case err := <-submitted:
		if err != nil {
			t.Fatalf("Preload: %s", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Preload of %d paths did not return, %d pending", count, jobs.Pending())
	}

	deadline := time.Now().Add(2 * time.Second)
	for jobs.Pending() > 0 && time.Now().Before(deadline) {
		jobs.Update()
		time.Sleep(time.Millisecond)
	}
	if failed != count {
		t.Fatalf("expected %d ErrLoad results, got %d", count, failed)
	}
}
