package fsutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveFolder(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "out", "run-a")
	writeTree(t, src, "output_ml.dat", "nested/output_ml_additional.dat")
	dest := filepath.Join(base, "archive")

	moved, err := MoveFolder(src, dest)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		filepath.Join(dest, "run-a", "nested"),
		filepath.Join(dest, "run-a", "output_ml.dat"),
	}, moved)
	assert.FileExists(t, filepath.Join(dest, "run-a", "nested", "output_ml_additional.dat"))

	left, err := os.ReadDir(src)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestMoveFolder_DestinationConflict(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "run-a")
	dest := filepath.Join(base, "archive")
	writeTree(t, src, "output_ml.dat")
	writeTree(t, filepath.Join(dest, "run-a"), "output_ml.dat")

	_, err := MoveFolder(src, dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	assert.FileExists(t, filepath.Join(src, "output_ml.dat"))
}

func TestMoveFolder_MissingSource(t *testing.T) {
	_, err := MoveFolder(filepath.Join(t.TempDir(), "missing"), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read folder")
}

func TestFolderName(t *testing.T) {
	assert.Equal(t, "run-a", FolderName("/out/run-a/"))
	assert.Equal(t, "run-a", FolderName("run-a"))
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")

	err := WriteJSON(map[string]any{"b": 1, "a": []string{"x"}}, path)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"a\": [\n        \"x\"\n    ],\n    \"b\": 1\n}\n", string(raw))

	var back map[string]any
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, float64(1), back["b"])
}
