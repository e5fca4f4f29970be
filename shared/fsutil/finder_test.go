package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates the given files (relative paths) below root.
func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	}
}

func join(root string, rel ...string) []string {
	out := make([]string, len(rel))
	for i, r := range rel {
		out[i] = filepath.Join(root, r)
	}
	return out
}

func TestList(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"a.json",
		".hidden.json",
		".git/config.json",
		"sub/b.json",
		"sub/c.txt",
		"sub/.x/d.json",
		"sub/deeper/e.json",
	)

	tests := []struct {
		name          string
		includeHidden bool
		want          []string
	}{
		{
			name:          "hidden entries and their subtrees are skipped",
			includeHidden: false,
			want: join(root,
				"a.json",
				"sub",
				"sub/b.json",
				"sub/c.txt",
				"sub/deeper",
				"sub/deeper/e.json",
			),
		},
		{
			name:          "hidden entries included on request",
			includeHidden: true,
			want: join(root,
				".git",
				".git/config.json",
				".hidden.json",
				"a.json",
				"sub",
				"sub/.x",
				"sub/.x/d.json",
				"sub/b.json",
				"sub/c.txt",
				"sub/deeper",
				"sub/deeper/e.json",
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := List(root, tt.includeHidden)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("List() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestList_IsStable(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "z.json", "m/1.json", "b.json", "m/0.json")

	first, err := List(root, false)
	require.NoError(t, err)
	second, err := List(root, false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestList_HiddenRootIsWalked(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".configs")
	writeTree(t, root, "a.json")

	got, err := List(root, false)
	require.NoError(t, err)
	assert.Equal(t, join(root, "a.json"), got)
}

func TestList_Errors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		_, err := List(filepath.Join(t.TempDir(), "nope"), false)
		require.Error(t, err)
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("root is a file", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "file.json")

		_, err := List(filepath.Join(root, "file.json"), false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("unreadable subdirectory aborts the listing", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("permissions are not enforced for root")
		}
		root := t.TempDir()
		writeTree(t, root, "a.json", "locked/b.json")
		locked := filepath.Join(root, "locked")
		require.NoError(t, os.Chmod(locked, 0o000))
		t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

		got, err := List(root, false)
		require.Error(t, err)
		assert.ErrorIs(t, err, fs.ErrPermission)
		assert.Nil(t, got)
	})
}

func TestSelectBySuffix(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"a.json",
		"notes.txt",
		".hidden.json",
		".cache/x.json",
		"jobs/b.json",
		"jobs/b.json.bak",
		"dir.json/inner.txt",
	)

	got, err := SelectBySuffix(root, ".json")
	require.NoError(t, err)
	assert.Equal(t, join(root, "a.json", "jobs/b.json"), got)
}

func TestSelectBySuffix_FollowsSymlinks(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "real/a.json")
	require.NoError(t, os.Symlink(filepath.Join(root, "real", "a.json"), filepath.Join(root, "link.json")))

	got, err := SelectBySuffix(root, ".json")
	require.NoError(t, err)
	assert.Equal(t, join(root, "link.json", "real/a.json"), got)
}

func TestSelectBySuffix_DanglingSymlinkIsSkipped(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.json")
	require.NoError(t, os.Symlink(filepath.Join(root, "gone.json"), filepath.Join(root, "stale.json")))
	require.NoError(t, os.Symlink(filepath.Join(root, "loop.json"), filepath.Join(root, "loop.json")))

	got, err := SelectBySuffix(root, ".json")
	require.NoError(t, err)
	assert.Equal(t, join(root, "a.json"), got)
}

func TestSelectBySuffix_EmptySuffix(t *testing.T) {
	_, err := SelectBySuffix(t.TempDir(), "")
	require.Error(t, err)
}

func TestListFolders(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "b/x.json", "a/y.json", ".hidden/z.json", "file.json")

	got, err := ListFolders(root)
	require.NoError(t, err)
	assert.Equal(t, join(root, "a", "b"), got)
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden("/some/path/.git"))
	assert.True(t, IsHidden(".env"))
	assert.False(t, IsHidden("/some/.path/visible"))
	assert.False(t, IsHidden("config.json"))
}
