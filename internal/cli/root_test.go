package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/edev/sira/internal/sconfig"
	"github.com/stretchr/testify/require"
)

func withTempConfigDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	old := sconfig.ConfigDir
	sconfig.ConfigDir = dir
	t.Cleanup(func() { sconfig.ConfigDir = old })
}

func TestRun_ConfigErrorExitsTwo(t *testing.T) {
	withTempConfigDir(t)
	code := run([]string{"/nonexistent/manifest.yaml"})
	require.Equal(t, 2, code)
}

func TestRun_NoArgsExitsTwo(t *testing.T) {
	withTempConfigDir(t)
	code := run([]string{})
	require.Equal(t, 2, code)
}

func TestRun_HostUnreachableExitsOne(t *testing.T) {
	withTempConfigDir(t)
	dir := t.TempDir()
	p := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(p, []byte("name: site\nhosts: [127.0.0.1]\n"), 0o644))

	code := run([]string{"--conn-timeout=200ms", "--port=1", p})
	require.Equal(t, 1, code)
}
