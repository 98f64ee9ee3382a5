package platform

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/anima2d/engine/core"
)

// FileManager resolves resource paths into their bytes.
type FileManager interface {
	// GetFileBuffer returns the contents of path and true, or nil and false
	// when the file cannot be read. It never panics.
	GetFileBuffer(path string) ([]byte, bool)
	FileExists(path string) bool
	IsResourcePacked() bool
}

// StdFileManager reads files from the OS file system, relative to a base
// directory when the path is not absolute.
type StdFileManager struct {
	baseDir string
}

func NewStdFileManager(baseDir string) *StdFileManager {
	return &StdFileManager{baseDir: baseDir}
}

func (fm *StdFileManager) resolve(path string) string {
	if fm.baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(fm.baseDir, path)
}

func (fm *StdFileManager) GetFileBuffer(path string) ([]byte, bool) {
	data, err := os.ReadFile(fm.resolve(path))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			core.LogError("failed to read '%s': %s", path, err)
		}
		return nil, false
	}
	return data, true
}

func (fm *StdFileManager) FileExists(path string) bool {
	info, err := os.Stat(fm.resolve(path))
	return err == nil && !info.IsDir()
}

func (fm *StdFileManager) IsResourcePacked() bool {
	return false
}

// FSFileManager serves files out of an fs.FS, e.g. an embed.FS with packed
// resources.
type FSFileManager struct {
	fsys fs.FS
}

func NewFSFileManager(fsys fs.FS) *FSFileManager {
	return &FSFileManager{fsys: fsys}
}

func (fm *FSFileManager) GetFileBuffer(path string) ([]byte, bool) {
	data, err := fs.ReadFile(fm.fsys, filepath.ToSlash(path))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (fm *FSFileManager) FileExists(path string) bool {
	info, err := fs.Stat(fm.fsys, filepath.ToSlash(path))
	return err == nil && !info.IsDir()
}

func (fm *FSFileManager) IsResourcePacked() bool {
	return true
}
