package platform

import "strings"

func isSlash(c byte) bool {
	return c == '/' || c == '\\'
}

// GetFileName returns what follows the last slash or backslash. A separator
// in the first position is not considered, so "/file" stays "/file".
func GetFileName(source string) string {
	for t := len(source) - 1; t > 0; t-- {
		if isSlash(source[t]) {
			return source[t+1:]
		}
	}
	return source
}

// GetFilePath returns source up to and including its last separator. A path
// without separators is returned unchanged.
func GetFilePath(source string) string {
	for t := len(source) - 1; t > 0; t-- {
		if isSlash(source[t]) {
			return source[:t+1]
		}
	}
	return source
}

// RemoveExtension strips the last extension of the file name. A name without
// a dot, or whose only dot is its first character (".hidden"), is returned
// unchanged. Dots in directory names are never treated as extensions.
func RemoveExtension(source string) string {
	for t := len(source) - 1; t > 0; t-- {
		if isSlash(source[t]) {
			break
		}
		if source[t] == '.' {
			if isSlash(source[t-1]) {
				break
			}
			return source[:t]
		}
	}
	return source
}

// AddLastSlash appends a forward slash unless the path already ends with one.
func AddLastSlash(path string) string {
	if path == "" || isSlash(path[len(path)-1]) {
		return path
	}
	return path + "/"
}

// FixSlashes converts backslashes into forward slashes.
func FixSlashes(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
