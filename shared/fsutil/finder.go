// Package fsutil provides file system utility functions used to discover job
// configs and to move job output around.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// HiddenMarker is the leading character of hidden entry names.
const HiddenMarker = "."

// IsHidden reports whether the base name of path starts with HiddenMarker.
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), HiddenMarker)
}

// List recursively walks root and returns every file and directory below it,
// depth-first and pre-order: a directory is listed before its children.
// Siblings come in lexical order. The root itself is not part of the result.
//
// Hidden entries and their whole subtree are skipped unless includeHidden is
// set. Any error while walking (a missing root, an unreadable subdirectory)
// aborts the listing and no partial result is returned.
func List(root string, includeHidden bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("failed to list %s: not a directory", root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if !includeHidden && IsHidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}

	return paths, nil
}

// SelectBySuffix returns the regular, non-hidden files below root whose name
// ends with suffix. Symlinks are resolved before the regular-file check; a
// link that cannot be resolved (dangling, looping) is not a regular file and
// is left out.
func SelectBySuffix(root string, suffix string) ([]string, error) {
	if suffix == "" {
		return nil, fmt.Errorf("suffix must not be empty")
	}

	entries, err := List(root, false)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, path := range entries {
		if !strings.HasSuffix(filepath.Base(path), suffix) {
			continue
		}
		regular, err := isRegularFile(path)
		if err != nil {
			return nil, err
		}
		if regular {
			files = append(files, path)
		}
	}

	return files, nil
}

// isRegularFile follows symlinks. Only errors on the entry itself are reported.
func isRegularFile(path string) (bool, error) {
	linfo, err := os.Lstat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if linfo.Mode()&fs.ModeSymlink == 0 {
		return linfo.Mode().IsRegular(), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, nil
	}
	return info.Mode().IsRegular(), nil
}

// ListFolders returns the immediate, non-hidden subdirectories of path.
func ListFolders(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}

	var folders []string
	for _, entry := range entries {
		if entry.IsDir() && !IsHidden(entry.Name()) {
			folders = append(folders, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(folders)

	return folders, nil
}
