package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloads_NeverOverwrites(t *testing.T) {
	d := NewDownloads(t.TempDir())

	first, err := d.Save(DraftFilename, []byte("one"))
	require.NoError(t, err)
	second, err := d.Save(DraftFilename, []byte("two"))
	require.NoError(t, err)
	third, err := d.Save(DraftFilename, []byte("three"))
	require.NoError(t, err)

	assert.Equal(t, "draft.docx", filepath.Base(first))
	assert.Equal(t, "draft (1).docx", filepath.Base(second))
	assert.Equal(t, "draft (2).docx", filepath.Base(third))

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestDownloads_CreatesDirAndStripsPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	d := NewDownloads(dir)

	path, err := d.Save("../../escape.xlsx", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape.xlsx"), path)
}
