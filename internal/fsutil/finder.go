// Package fsutil provides file system helpers shared by the loaders and the
// writers: extension-based discovery and crash-safe file replacement.
package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesByExtension returns every file under rootPath whose name ends with
// one of the given extensions (compared case-insensitively). rootPath may
// also name a single file, in which case it is returned if it matches. The
// result is sorted so callers process files in a stable order.
func FindFilesByExtension(rootPath string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("at least one extension is required")
	}
	for i, ext := range extensions {
		if ext == "" {
			panic("extension must not be empty")
		}
		extensions[i] = strings.ToLower(ext)
	}

	matches := func(name string) bool {
		lower := strings.ToLower(name)
		for _, ext := range extensions {
			if strings.HasSuffix(lower, ext) {
				return true
			}
		}
		return false
	}

	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if matches(info.Name()) {
			return []string{rootPath}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && matches(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
