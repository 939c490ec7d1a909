package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureParentDir_CreatesPrivateDirectory(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "state", "nested", "gophblog.db")

	require.NoError(t, EnsureParentDir(dbPath))

	fi, err := os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}

func TestEnsureParentDir_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state", "gophblog.db")

	require.NoError(t, EnsureParentDir(dbPath))
	require.NoError(t, EnsureParentDir(dbPath))
}

func TestEnsureParentDir_BareFileNameIsNoop(t *testing.T) {
	require.NoError(t, EnsureParentDir("gophblog.db"))
}

func TestEnsureParentDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "state")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	err := EnsureParentDir(filepath.Join(blocker, "gophblog.db"))
	require.Error(t, err)
}

func TestReadUpload(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "avatar.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0o600))

	name, data, err := ReadUpload(path)
	require.NoError(t, err)
	require.Equal(t, "avatar.png", name)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
}

func TestReadUpload_Errors(t *testing.T) {
	tmp := t.TempDir()

	_, _, err := ReadUpload(filepath.Join(tmp, "missing.png"))
	require.Error(t, err)

	big := filepath.Join(tmp, "big.bin")
	require.NoError(t, os.WriteFile(big, make([]byte, MaxUploadSize+1), 0o600))
	_, _, err = ReadUpload(big)
	require.ErrorContains(t, err, "exceeds")
}
