package filex

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureSubDir_CreatesDirectory(t *testing.T) {
	tmp := t.TempDir()

	got, err := EnsureSubDir(tmp, "postbox")
	require.NoError(t, err)

	want := filepath.Join(tmp, "postbox")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureSubDir_Idempotent(t *testing.T) {
	tmp := t.TempDir()

	first, err := EnsureSubDir(tmp, "postbox")
	require.NoError(t, err)

	second, err := EnsureSubDir(tmp, "postbox")
	require.NoError(t, err)

	require.Equal(t, first, second)
	fi, err := os.Stat(second)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestEnsureSubDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tmp, "postbox"), []byte("x"), 0o600))

	_, err := EnsureSubDir(tmp, "postbox")
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestUserCacheSubDir(t *testing.T) {
	tmp := t.TempDir()
	orig := userCacheDir
	t.Cleanup(func() { userCacheDir = orig })

	userCacheDir = func() (string, error) { return tmp, nil }
	got, err := UserCacheSubDir("postbox")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(tmp, "postbox"), got)

	userCacheDir = func() (string, error) { return "", errors.New("no home") }
	_, err = UserCacheSubDir("postbox")
	require.Error(t, err)
}
