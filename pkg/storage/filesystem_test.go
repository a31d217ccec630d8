package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	name, err := store.SaveStream("screenshot_1.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.Equal(t, "screenshot_1.png", name)
	require.FileExists(t, filepath.Join(store.BaseDir(), name))

	f, err := store.Open(name)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(name))
	require.NoFileExists(t, filepath.Join(store.BaseDir(), name))
	require.NoError(t, store.Delete(name))
}

func TestLocalStorageRefusesOverwrite(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.SaveStream("a.pdf", strings.NewReader("one"))
	require.NoError(t, err)
	_, err = store.SaveStream("a.pdf", strings.NewReader("two"))
	require.Error(t, err)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.SaveStream("../escape.txt", strings.NewReader("x"))
	require.True(t, errors.Is(err, ErrInvalidPath))
	_, err = store.SaveStream("/etc/passwd", strings.NewReader("x"))
	require.True(t, errors.Is(err, ErrInvalidPath))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestLocalStorageCleansUpPartialWrite(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.SaveStream("broken.jpg", failingReader{})
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "broken.jpg"))
	require.True(t, os.IsNotExist(statErr))
}
