package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stablebuilds/quoter/internal/config"
	"github.com/stablebuilds/quoter/internal/errors"
)

// PathCheckMode indicates whether the path check is for reading or writing.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // import: the file must exist
	PathCheckWrite                      // export: the file may be created
)

// File extensions accepted by the file operations.
const (
	ExtCSV  = ".csv"
	ExtPDF  = ".pdf"
	ExtJSON = ".json"
)

// ValidatePath checks a user-supplied import or export path. The path must
// carry ext, contain no "..", and name a file directly inside the exports
// directory or an allowed_paths entry. Neither the file nor its parent may be
// a symlink. allow_unsafe_paths lifts the directory rule only.
//
// Subdirectories are refused so no intermediate component can be swapped for
// a symlink between this check and the O_NOFOLLOW open of the final one.
func ValidatePath(path string, mode PathCheckMode, ext string, cfg *config.Config) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if !strings.EqualFold(filepath.Ext(cleaned), ext) {
		return errors.NewInvalidRequest(fmt.Sprintf("path must have %s extension", ext))
	}
	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	if cfg == nil || !cfg.AllowUnsafePaths {
		allowed, err := allowedDirs(cfg)
		if err != nil {
			return err
		}
		parent := filepath.Dir(absPath)
		if !contains(allowed, parent) {
			return errors.NewInvalidRequest(fmt.Sprintf(
				"file must be directly in an allowed directory (no subdirectories); allowed: %v", allowed))
		}
		if isSymlink(parent) {
			return errors.NewInvalidRequest("parent directory must not be a symlink")
		}
	}

	if mode == PathCheckRead {
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			return errors.NewFileNotFound(path)
		}
	}
	if isSymlink(absPath) {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	return nil
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func contains(dirs []string, dir string) bool {
	dir = filepath.Clean(dir)
	for _, d := range dirs {
		if d == dir {
			return true
		}
	}
	return false
}

// allowedDirs returns the exports directory followed by every absolute
// allowed_paths entry, each cleaned and with a symlinked entry resolved.
// Relative entries are ignored.
func allowedDirs(cfg *config.Config) ([]string, error) {
	exportsDir, err := ExportsDir(cfg)
	if err != nil {
		return nil, err
	}
	candidates := []string{exportsDir}
	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if filepath.IsAbs(p) {
				candidates = append(candidates, p)
			}
		}
	}

	dirs := make([]string, 0, len(candidates))
	for _, d := range candidates {
		abs, err := filepath.Abs(filepath.Clean(d))
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid allowed path: %v", err))
		}
		if isSymlink(abs) {
			if abs, err = filepath.EvalSymlinks(abs); err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
			}
		}
		dirs = append(dirs, abs)
	}
	return dirs, nil
}

// ExportsDir returns cfg.ExportsDir, or ~/.quoter/exports when unset.
func ExportsDir(cfg *config.Config) (string, error) {
	if cfg != nil && cfg.ExportsDir != "" {
		return cfg.ExportsDir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to get home directory: %w", err))
	}
	return filepath.Join(homeDir, ".quoter", "exports"), nil
}

// containsTraversal reports a ".." element under either separator.
func containsTraversal(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	for _, part := range parts {
		if part == ".." {
			return true
		}
	}
	return false
}

// SanitizeForFilename makes a generated document name safe on every
// platform: separators, Windows-reserved characters and control characters
// become "-", runs of "-" collapse and spaces turn into "_".
func SanitizeForFilename(s string) string {
	var b strings.Builder
	for _, r := range strings.ReplaceAll(s, "..", "-") {
		switch {
		case r < 32 || r == 127:
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		case r == ' ':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	s = b.String()

	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-_")
	if s == "" {
		s = "unnamed"
	}
	return s
}
