package fsutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FolderName returns the base name of a folder path.
func FolderName(path string) string {
	return filepath.Base(filepath.Clean(path))
}

// MoveFolder moves every immediate child of src into a folder named after src
// inside destParent, creating it when needed. It returns the new paths.
// An existing entry with the same name at the destination is an error.
func MoveFolder(src, destParent string) ([]string, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder %s: %w", src, err)
	}

	outFolder := filepath.Join(destParent, FolderName(src))
	if err := os.MkdirAll(outFolder, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create folder %s: %w", outFolder, err)
	}

	moved := make([]string, 0, len(entries))
	for _, entry := range entries {
		from := filepath.Join(src, entry.Name())
		to := filepath.Join(outFolder, entry.Name())

		if _, err := os.Lstat(to); err == nil {
			return moved, fmt.Errorf("failed to move %s: %s already exists", from, to)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return moved, fmt.Errorf("failed to stat %s: %w", to, err)
		}

		if err := os.Rename(from, to); err != nil {
			return moved, fmt.Errorf("failed to move %s: %w", from, err)
		}
		moved = append(moved, to)
	}

	return moved, nil
}

// WriteJSON writes data to path as indented JSON. Map keys come out sorted.
func WriteJSON(data any, path string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
