package platform

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spaghettifunk/anima2d/engine/core"
)

type listedFile struct {
	dir  string
	file string
}

// FileListing collects the files of a directory that share an extension.
type FileListing struct {
	files []listedFile
}

// ListDirectoryFiles lists every regular file in directory whose extension
// matches ext (without the dot, case insensitive). It returns false when the
// directory cannot be read or nothing matches.
func (fl *FileListing) ListDirectoryFiles(directory, ext string) bool {
	fl.files = fl.files[:0]
	entries, err := os.ReadDir(directory)
	if err != nil {
		core.LogDebug("cannot list '%s': %s", directory, err)
		return false
	}
	suffix := "." + strings.ToLower(strings.TrimPrefix(ext, "."))
	dir := AddLastSlash(directory)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			continue
		}
		fl.files = append(fl.files, listedFile{dir: dir, file: e.Name()})
	}
	sort.Slice(fl.files, func(i, j int) bool { return fl.files[i].file < fl.files[j].file })
	return len(fl.files) > 0
}

func (fl *FileListing) NumFiles() int {
	return len(fl.files)
}

// FileName returns the bare name of the file at index.
func (fl *FileListing) FileName(index int) (string, error) {
	if index < 0 || index >= len(fl.files) {
		return "", fmt.Errorf("file listing index %d of %d: %w", index, len(fl.files), core.ErrBounds)
	}
	return fl.files[index].file, nil
}

// FullPath returns the directory and name of the file at index.
func (fl *FileListing) FullPath(index int) (string, error) {
	if index < 0 || index >= len(fl.files) {
		return "", fmt.Errorf("file listing index %d of %d: %w", index, len(fl.files), core.ErrBounds)
	}
	return fl.files[index].dir + fl.files[index].file, nil
}
