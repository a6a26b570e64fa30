package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFile(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "Report.PDF")
	require.NoError(t, os.WriteFile(p, []byte("%PDF"), 0o600))

	f := LocalFile(p)
	assert.Equal(t, "Report.PDF", f.Name())

	data, err := f.Content()
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), data)

	_, err = LocalFile(filepath.Join(t.TempDir(), "missing")).Content()
	assert.Error(t, err)
}

func TestMemFile(t *testing.T) {
	t.Parallel()

	f := MemFile("a.zip", []byte("PK"))
	assert.Equal(t, "a.zip", f.Name())
	data, err := f.Content()
	require.NoError(t, err)
	assert.Equal(t, []byte("PK"), data)
}
