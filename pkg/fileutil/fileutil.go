// Package fileutil provides path resolution and stream opening for image files.
//
// Lookups fall back to a case-insensitive match so that files written on
// case-insensitive systems (e.g. "PHOTO.BMP" referenced as "photo.bmp") can
// still be found. Paths ending in ".zst" are read and written as zstd streams.
package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FindFileCaseInsensitive searches dir for a regular file whose name matches
// filename ignoring case, and returns its actual path.
//
// Example:
//
//	path, err := FindFileCaseInsensitive("/path/to/dir", "Photo.BMP")
//	// Will find "photo.bmp", "PHOTO.BMP", "Photo.bmp", etc.
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	name, ok := matchEntry(entries, filename)
	if !ok {
		return "", fmt.Errorf("file not found: %s (searched in %s): %w", filename, dir, fs.ErrNotExist)
	}
	return filepath.Join(dir, name), nil
}

// FindFileCaseInsensitiveFS is FindFileCaseInsensitive for an fs.FS.
// The returned path uses forward slashes as fs.FS requires.
func FindFileCaseInsensitiveFS(fsys fs.FS, dir, filename string) (string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	name, ok := matchEntry(entries, filename)
	if !ok {
		return "", fmt.Errorf("file not found: %s (searched in %s): %w", filename, dir, fs.ErrNotExist)
	}
	return path.Join(dir, name), nil
}

func matchEntry(entries []fs.DirEntry, filename string) (string, bool) {
	searchName := strings.ToLower(filename)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(entry.Name()) == searchName {
			return entry.Name(), true
		}
	}
	return "", false
}

// ResolvePath returns p if it exists, otherwise the case-insensitive match
// for its base name inside its directory.
func ResolvePath(p string) (string, error) {
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	return FindFileCaseInsensitive(filepath.Dir(p), filepath.Base(p))
}

// ResolvePathFS is ResolvePath for an fs.FS.
func ResolvePathFS(fsys fs.FS, name string) (string, error) {
	// fs.FS のパスは "/" 区切りで先頭の "/" を含まない
	name = strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/")
	if _, err := fs.Stat(fsys, name); err == nil {
		return name, nil
	}
	return FindFileCaseInsensitiveFS(fsys, path.Dir(name), path.Base(name))
}
