//go:build !windows

package ops

import (
	stderrors "errors"
	"fmt"
	"os"
	"syscall"

	"github.com/stablebuilds/quoter/internal/errors"
)

// createExclusive creates a new file that must not already exist, refusing
// to follow a symlink at path. Directory components are the job of
// ValidatePath, which only admits files directly inside an allowed directory.
func createExclusive(path string) (*os.File, error) {
	return openNoFollow(path, syscall.O_CREAT|syscall.O_EXCL|syscall.O_WRONLY, 0600)
}

// openForImport opens an import file read-only without following a symlink.
func openForImport(path string) (*os.File, error) {
	return openNoFollow(path, syscall.O_RDONLY, 0)
}

func openNoFollow(path string, flag int, perm uint32) (*os.File, error) {
	fd, err := syscall.Open(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, perm)
	switch {
	case err == nil:
		return os.NewFile(uintptr(fd), path), nil
	case stderrors.Is(err, syscall.ELOOP):
		return nil, errors.NewInvalidRequest(fmt.Sprintf("refusing to follow symlink: %s", path))
	case stderrors.Is(err, syscall.ENOENT) && flag&syscall.O_CREAT == 0:
		return nil, errors.NewFileNotFound(path)
	default:
		return nil, err
	}
}
