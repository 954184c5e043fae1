package signing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/edev/sira/internal/sconfig"
	"github.com/stretchr/testify/require"
)

func withTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	oldConfigDir := sconfig.ConfigDir
	sconfig.ConfigDir = dir
	t.Cleanup(func() { sconfig.ConfigDir = oldConfigDir })
	return dir
}

func stubRunner(t *testing.T, fn runnerFunc) {
	t.Helper()
	old := runSSHKeygen
	runSSHKeygen = fn
	t.Cleanup(func() { runSSHKeygen = old })
}

func TestSign_KeyNotFound(t *testing.T) {
	withTempConfigDir(t)
	out, err := Sign([]byte("payload"), "action")
	require.NoError(t, err)
	require.False(t, out.KeyFound)
}

func TestSign_Success(t *testing.T) {
	dir := withTempConfigDir(t)
	require.NoError(t, os.MkdirAll(sconfig.KeyDir(), 0o755))
	keyPath, err := sconfig.KeyPath("action")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(keyPath, []byte("fake-key"), 0o600))

	stubRunner(t, func(args []string, stdin []byte) ([]byte, []byte, error) {
		require.Contains(t, args, "-Y")
		require.Contains(t, args, "sign")
		require.Equal(t, []byte("payload"), stdin)
		return []byte("-----BEGIN SSH SIGNATURE-----\nfake\n-----END SSH SIGNATURE-----\n"), nil, nil
	})

	out, err := Sign([]byte("payload"), "action")
	require.NoError(t, err)
	require.True(t, out.KeyFound)
	require.Contains(t, string(out.Signature), "SSH SIGNATURE")

	_ = dir
}

func TestVerify_MissingAllowedSigners(t *testing.T) {
	withTempConfigDir(t)
	err := Verify([]byte("payload"), []byte("sig"), "action")
	require.Error(t, err)
	require.Contains(t, err.Error(), "allowed_signers")
}

func TestVerify_Success(t *testing.T) {
	withTempConfigDir(t)
	require.NoError(t, WriteAllowedSigners("action", "ssh-ed25519 AAAA fake"))

	stubRunner(t, func(args []string, stdin []byte) ([]byte, []byte, error) {
		require.Contains(t, args, "verify")
		require.Equal(t, []byte("payload"), stdin)
		return nil, nil, nil
	})

	err := Verify([]byte("payload"), []byte("sig-bytes"), "action")
	require.NoError(t, err)
}

func TestInstalled(t *testing.T) {
	withTempConfigDir(t)
	ok, err := Installed("manifest")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, WriteAllowedSigners("manifest", "ssh-ed25519 AAAA fake"))
	ok, err = Installed("manifest")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEnforce(t *testing.T) {
	require.NoError(t, Enforce(true, true))
	require.Error(t, Enforce(true, false))
	require.Error(t, Enforce(false, true))
	require.NoError(t, Enforce(false, false))
}

func TestWriteAllowedSigners_PinsPrincipal(t *testing.T) {
	withTempConfigDir(t)
	require.NoError(t, WriteAllowedSigners("action", "ssh-ed25519 AAAA fake"))
	path, err := sconfig.AllowedSignersPath("action")
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), "sira ssh-ed25519 AAAA fake")
	_ = filepath.Base(path)
}
