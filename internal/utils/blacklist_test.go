package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBlacklist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.txt")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nCAM\n\n  telesync \n"), 0600))

	b, err := LoadBlacklist(path)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len())

	term, ok := b.Match("Show.S01E01.TELESYNC.x264")
	assert.True(t, ok)
	assert.Equal(t, "telesync", term)

	_, ok = b.Match("Show.S01E01.1080p.WEB")
	assert.False(t, ok)
}

func TestLoadBlacklistMissingFile(t *testing.T) {
	b, err := LoadBlacklist(filepath.Join(t.TempDir(), "missing.txt"))
	require.NoError(t, err)
	assert.Zero(t, b.Len())
}

func TestNilBlacklistMatchesNothing(t *testing.T) {
	var b *Blacklist
	_, ok := b.Match("anything")
	assert.False(t, ok)
}
