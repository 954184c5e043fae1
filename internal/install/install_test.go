package install

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
	old := sconfig.ConfigDir
	sconfig.ConfigDir = dir
	t.Cleanup(func() { sconfig.ConfigDir = old })
	return dir
}

func TestGenerateKeyPair_RefusesToOverwriteExistingKey(t *testing.T) {
	withTempConfigDir(t)
	require.NoError(t, os.MkdirAll(sconfig.KeyDir(), 0o700))
	keyPath, err := sconfig.KeyPath("action")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(keyPath, []byte("existing"), 0o600))

	err = GenerateKeyPair("action")
	require.Error(t, err)
}

func TestGenerateKeyPair_InvokesKeygenRunner(t *testing.T) {
	withTempConfigDir(t)

	var gotArgs []string
	old := keygenRunner
	keygenRunner = func(args []string) error {
		gotArgs = args
		keyPath, _ := sconfig.KeyPath("manifest")
		require.NoError(t, os.WriteFile(keyPath, []byte("priv"), 0o600))
		require.NoError(t, os.WriteFile(keyPath+".pub", []byte("pub"), 0o644))
		return nil
	}
	t.Cleanup(func() { keygenRunner = old })

	require.NoError(t, GenerateKeyPair("manifest"))
	require.Contains(t, gotArgs, "ed25519")
	require.Contains(t, gotArgs, "sira-manifest")
}

func TestPublishAllowedSigners_WritesPinnedPrincipal(t *testing.T) {
	withTempConfigDir(t)
	require.NoError(t, os.MkdirAll(sconfig.KeyDir(), 0o700))
	keyPath, err := sconfig.KeyPath("action")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(keyPath+".pub", []byte("ssh-ed25519 AAAAexample comment\n"), 0o644))

	require.NoError(t, PublishAllowedSigners("action"))

	asPath, err := sconfig.AllowedSignersPath("action")
	require.NoError(t, err)
	contents, err := os.ReadFile(asPath)
	require.NoError(t, err)
	require.Contains(t, string(contents), sconfig.Principal)
	require.Contains(t, string(contents), "ssh-ed25519 AAAAexample")
}

func TestPlanManagedNode_ProducesSudoersEntryForUser(t *testing.T) {
	layout := PlanManagedNode("sira-svc")
	require.Equal(t, "/opt/sira/bin", layout.ClientBinaryDir)
	require.Contains(t, layout.SudoersEntry, "sira-svc")
	require.Contains(t, layout.SudoersEntry, filepath.Join(layout.ClientBinaryDir, "sira-client"))
}
