package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/anima2d/engine/assets/loaders"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/platform"
)

type AssetType int

const (
	AssetTypeNone AssetType = iota
	AssetTypeImage
	AssetTypeFont
	AssetTypeAudio
)

// Events for the same path closer together than this are reported once.
const debounceInterval = 100 * time.Millisecond

type AssetInfo struct {
	Path     string
	Type     AssetType
	Modified time.Time
}

type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[AssetType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	pending  map[string]time.Time
	changes  chan string
	wg       sync.WaitGroup
}

func NewAssetManager(fm platform.FileManager) *AssetManager {
	am := &AssetManager{
		assets:  make(map[string]AssetInfo),
		loaders: make(map[AssetType]Loader),
		pending: make(map[string]time.Time),
		changes: make(chan string, 64),
		done:    make(chan struct{}),
	}
	am.registerLoader(AssetTypeImage, &loaders.ImageLoader{FileManager: fm})
	am.registerLoader(AssetTypeFont, &loaders.FontLoader{})
	return am
}

// Initialize indexes assetsDir and, when watch is set, reports later
// changes on Changes.
func (am *AssetManager) Initialize(assetsDir string, watch bool) error {
	am.root = assetsDir
	if err := am.index(assetsDir); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	am.fsnotify = fsWatch
	if err := am.addRecursive(assetsDir); err != nil {
		fsWatch.Close()
		am.fsnotify = nil
		return err
	}

	am.wg.Add(1)
	go am.start()
	core.LogInfo("watching assets in %s", assetsDir)
	return nil
}

// Changes delivers asset paths, relative to the asset directory, after they
// were created or modified. Drain it from the render thread.
func (am *AssetManager) Changes() <-chan string {
	return am.changes
}

func (am *AssetManager) Close() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	close(am.done)
	am.wg.Wait()
	if am.fsnotify != nil {
		return am.fsnotify.Close()
	}
	return nil
}

func (am *AssetManager) registerLoader(assetType AssetType, loader Loader) {
	am.loaders[assetType] = loader
}

// Load decodes the asset at path with the loader for its type.
func (am *AssetManager) Load(path string, params interface{}) (interface{}, error) {
	am.mutex.RLock()
	asset, exists := am.assets[path]
	am.mutex.RUnlock()
	if !exists {
		asset = AssetInfo{Path: path, Type: determineAssetType(path)}
	}

	loader, ok := am.loaders[asset.Type]
	if !ok {
		return nil, fmt.Errorf("no loader registered for asset %s: %w", path, core.ErrUnsupportedFormat)
	}
	if asset.Type == AssetTypeFont {
		return loader.Load(am.absolute(path), params)
	}
	return loader.Load(path, params)
}

// Assets returns the indexed paths of the given type, sorted.
func (am *AssetManager) Assets(t AssetType) []string {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	var out []string
	for p, info := range am.assets {
		if info.Type == t {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func (am *AssetManager) Info(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[path]
	return info, ok
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	ticker := time.NewTicker(debounceInterval / 2)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s.IsDir() {
				if e.Has(fsnotify.Create) {
					if err := am.watchRecursive(e.Name, false); err != nil {
						core.LogWarn("failed to watch %s: %s", e.Name, err)
					}
				}
				continue
			}
			rel := am.relative(e.Name)
			if e.Has(fsnotify.Create) || e.Has(fsnotify.Write) {
				am.handleFileEvent(rel)
				am.pending[rel] = time.Now()
			}
			if e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename) {
				am.removeAsset(rel)
				delete(am.pending, rel)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case now := <-ticker.C:
			am.flush(now)

		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) flush(now time.Time) {
	for p, t := range am.pending {
		if now.Sub(t) < debounceInterval {
			continue
		}
		select {
		case am.changes <- p:
			delete(am.pending, p)
		default:
			// the render thread is behind; retry on the next tick
			return
		}
	}
}

func (am *AssetManager) index(root string) error {
	return filepath.WalkDir(root, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			am.handleFileEvent(am.relative(walkPath))
		}
		return nil
	})
}

func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return errors.New("asset watcher already closed")
	}
	return am.watchRecursive(name, false)
}

// watchRecursive adds all directories under the given one to the watch list.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if unWatch {
			return am.fsnotify.Remove(walkPath)
		}
		return am.fsnotify.Add(walkPath)
	})
}

func (am *AssetManager) relative(path string) string {
	rel, err := filepath.Rel(am.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (am *AssetManager) absolute(path string) string {
	if filepath.IsAbs(path) || am.root == "" {
		return path
	}
	return filepath.Join(am.root, filepath.FromSlash(path))
}

func (am *AssetManager) handleFileEvent(path string) {
	assetType := determineAssetType(path)
	if assetType == AssetTypeNone {
		return
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[path] = AssetInfo{
		Path:     path,
		Type:     assetType,
		Modified: time.Now(),
	}
}

func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.assets, path)
}

func determineAssetType(path string) AssetType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".bmp", ".gif", ".tif", ".tiff", ".webp":
		return AssetTypeImage
	case ".fnt":
		return AssetTypeFont
	case ".wav", ".ogg", ".mp3":
		return AssetTypeAudio
	default:
		return AssetTypeNone
	}
}
