// Package filex holds filesystem helpers for the CLI's local state.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// userCacheDir is a seam for tests.
var userCacheDir = os.UserCacheDir

// EnsureSubDir creates base/name (and any parents) readable only by the
// current user and returns its absolute path.
func EnsureSubDir(base, name string) (string, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", base, err)
	}

	dir := filepath.Join(abs, name)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// UserCacheSubDir is EnsureSubDir under the user's cache directory.
func UserCacheSubDir(name string) (string, error) {
	base, err := userCacheDir()
	if err != nil {
		return "", fmt.Errorf("user cache dir: %w", err)
	}
	return EnsureSubDir(base, name)
}
