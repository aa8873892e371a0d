//go:build !windows

package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stablebuilds/quoter/internal/errors"
)

func TestOpenForImport(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "clients.csv")
	require.NoError(t, os.WriteFile(target, []byte("nombre\n"), 0600))

	f, err := openForImport(target)
	require.NoError(t, err)
	f.Close()

	_, err = openForImport(filepath.Join(dir, "missing.csv"))
	require.True(t, errors.Is(err, errors.ErrFileNotFound), "got %v", err)

	link := filepath.Join(dir, "link.csv")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}
	_, err = openForImport(link)
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
}

func TestCreateExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tmp")

	f, err := createExclusive(path)
	require.NoError(t, err)
	f.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A second create must not reuse the file.
	_, err = createExclusive(path)
	require.ErrorIs(t, err, os.ErrExist)
}
