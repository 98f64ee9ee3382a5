package assets

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/platform"
)

func writeFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func newManager(t *testing.T, watch bool) (*AssetManager, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "sprites/hero.png", pngBytes(t, 4, 2))
	writeFile(t, root, "fonts/ui.fnt", []byte("info face=\"ui\""))
	writeFile(t, root, "sounds/jump.wav", []byte("RIFF"))
	writeFile(t, root, "readme.txt", []byte("notes"))

	am := NewAssetManager(platform.NewStdFileManager(root))
	if err := am.Initialize(root, watch); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { am.Close() })
	return am, root
}

func TestIndexByType(t *testing.T) {
	am, _ := newManager(t, false)

	if got := am.Assets(AssetTypeImage); len(got) != 1 || got[0] != "sprites/hero.png" {
		t.Fatalf("images = %v", got)
	}
	if got := am.Assets(AssetTypeFont); len(got) != 1 || got[0] != "fonts/ui.fnt" {
		t.Fatalf("fonts = %v", got)
	}
	if got := am.Assets(AssetTypeAudio); len(got) != 1 || got[0] != "sounds/jump.wav" {
		t.Fatalf("audio = %v", got)
	}
	if _, ok := am.Info("readme.txt"); ok {
		t.Fatalf("unknown extensions must not be indexed")
	}
	if info, ok := am.Info("sprites/hero.png"); !ok || info.Type != AssetTypeImage {
		t.Fatalf("Info = %+v %v", info, ok)
	}
}

func TestLoadImage(t *testing.T) {
	am, _ := newManager(t, false)
	v, err := am.Load("sprites/hero.png", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if img := v.(*image.NRGBA); img.Bounds().Dx() != 4 || img.Bounds().Dy() != 2 {
		t.Fatalf("size = %v", img.Bounds())
	}
	if _, err := am.Load("readme.txt", nil); !errors.Is(err, core.ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDetermineAssetType(t *testing.T) {
	tests := map[string]AssetType{
		"a/b.PNG":   AssetTypeImage,
		"b.webp":    AssetTypeImage,
		"font.fnt":  AssetTypeFont,
		"music.ogg": AssetTypeAudio,
		"noext":     AssetTypeNone,
	}
	for path, want := range tests {
		if got := determineAssetType(path); got != want {
			t.Fatalf("determineAssetType(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestWatchReportsChanges(t *testing.T) {
	am, root := newManager(t, true)

	writeFile(t, root, "sprites/enemy.png", pngBytes(t, 2, 2))

	timeout := time.After(5 * time.Second)
	for {
		select {
		case p := <-am.Changes():
			if p != "sprites/enemy.png" {
				continue
			}
			if _, ok := am.Info(p); !ok {
				t.Fatalf("changed asset %s not indexed", p)
			}
			return
		case <-timeout:
			t.Fatalf("no change reported for sprites/enemy.png")
		}
	}
}

func TestCloseTwice(t *testing.T) {
	am, _ := newManager(t, true)
	if err := am.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := am.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
