//go:build windows

package ops

import (
	"os"

	"github.com/stablebuilds/quoter/internal/errors"
)

// Windows has no O_NOFOLLOW; ValidatePath has already rejected symlinks.

func createExclusive(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
}

func openForImport(path string) (*os.File, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.NewFileNotFound(path)
	}
	return f, err
}
