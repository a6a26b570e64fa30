package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeTree creates files (relative slash paths) under a temp root.
func makeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(f), 0o600))
	}
	return root
}

func baseNames(paths []string) []string {
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	sort.Strings(names)
	return names
}

func TestFindFiles(t *testing.T) {
	t.Parallel()

	t.Run("MatchesExtensionsCaseInsensitive", func(t *testing.T) {
		t.Parallel()
		root := makeTree(t, "a.md", "B.MD", "c.txt", "sub/d.markdown")
		files, err := FindFiles(root, []string{".md", ".markdown"})
		require.NoError(t, err)
		assert.Equal(t, []string{"B.MD", "a.md", "d.markdown"}, baseNames(files))
	})

	t.Run("SkipsHiddenDirectories", func(t *testing.T) {
		t.Parallel()
		root := makeTree(t, "visible.md", ".obsidian/workspace.md", ".git/x.md")
		files, err := FindFiles(root, []string{".md"})
		require.NoError(t, err)
		assert.Equal(t, []string{"visible.md"}, baseNames(files))
	})

	t.Run("NoExtensions", func(t *testing.T) {
		t.Parallel()
		files, err := FindFiles(t.TempDir(), nil)
		require.NoError(t, err)
		assert.Nil(t, files)
	})

	t.Run("NonexistentRoot", func(t *testing.T) {
		t.Parallel()
		_, err := FindFiles(filepath.Join(t.TempDir(), "missing"), []string{".md"})
		assert.Error(t, err)
	})
}

func TestFindNotes(t *testing.T) {
	t.Parallel()

	root := makeTree(t, "a.md", "b.mdx", "c.markdown", "d.pdf")
	files, err := FindNotes(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "b.mdx", "c.markdown"}, baseNames(files))
}

func TestExpandDrop(t *testing.T) {
	t.Parallel()

	t.Run("FilesKeepOrder", func(t *testing.T) {
		t.Parallel()
		root := makeTree(t, "b.png", "a.pdf")
		files, err := ExpandDrop(DropOptions{Paths: []string{
			filepath.Join(root, "b.png"),
			filepath.Join(root, "a.pdf"),
		}})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(root, "b.png"), filepath.Join(root, "a.pdf")}, files)
	})

	t.Run("DirectoryExpands", func(t *testing.T) {
		t.Parallel()
		root := makeTree(t, "drop/a.pdf", "drop/sub/b.zip", "drop/.hidden/c.pdf")
		files, err := ExpandDrop(DropOptions{Paths: []string{filepath.Join(root, "drop")}})
		require.NoError(t, err)
		assert.Equal(t, []string{"a.pdf", "b.zip"}, baseNames(files))
	})

	t.Run("Exclude", func(t *testing.T) {
		t.Parallel()
		root := makeTree(t, "drop/a.pdf", "drop/.DS_Store", "drop/tmp/x.pdf")
		files, err := ExpandDrop(DropOptions{
			Paths:   []string{filepath.Join(root, "drop")},
			Exclude: []string{".DS_Store", "tmp/**"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a.pdf"}, baseNames(files))
	})

	t.Run("Include", func(t *testing.T) {
		t.Parallel()
		root := makeTree(t, "drop/a.pdf", "drop/b.png", "single.zip")
		files, err := ExpandDrop(DropOptions{
			Paths:   []string{filepath.Join(root, "drop"), filepath.Join(root, "single.zip")},
			Include: []string{"*.pdf", "*.zip"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a.pdf", "single.zip"}, baseNames(files))
	})

	t.Run("InvalidGlob", func(t *testing.T) {
		t.Parallel()
		_, err := ExpandDrop(DropOptions{Include: []string{"[invalid"}})
		assert.ErrorContains(t, err, "invalid glob pattern")
	})

	t.Run("MissingPath", func(t *testing.T) {
		t.Parallel()
		_, err := ExpandDrop(DropOptions{Paths: []string{filepath.Join(t.TempDir(), "nope")}})
		assert.Error(t, err)
	})
}
