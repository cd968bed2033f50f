package app

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLoader []byte

func (l staticLoader) Load(_ *url.URL) ([]byte, error) {
	return l, nil
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, []byte("[1,2,3]"), 0600))

	contents, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[1,2,3]", string(contents))

	contents, err = LoadFile("file://" + path)
	require.NoError(t, err)
	assert.Equal(t, "[1,2,3]", string(contents))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadFile("s3://bucket/id.json")
	assert.Error(t, err)
}

func TestLoadFile_HomeDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, os.MkdirAll(filepath.Join(home, ".config", "solana"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".config", "solana", "id.json"), []byte("key"), 0600))

	contents, err := LoadFile("~/.config/solana/id.json")
	require.NoError(t, err)
	assert.Equal(t, "key", string(contents))
}

func TestRegisterFileLoaderCtor(t *testing.T) {
	RegisterFileLoaderCtor("test", func() (FileLoader, error) {
		return staticLoader("static"), nil
	})

	contents, err := LoadFile("test://anything")
	require.NoError(t, err)
	assert.Equal(t, "static", string(contents))

	assert.Panics(t, func() {
		RegisterFileLoaderCtor("test", func() (FileLoader, error) {
			return staticLoader(nil), nil
		})
	})
}
