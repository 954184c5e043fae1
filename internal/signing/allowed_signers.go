package signing

import (
	"fmt"
	"os"
	"strings"

	"github.com/edev/sira/internal/sconfig"
)

// WriteAllowedSigners writes an OpenSSH allowed-signers file for surface,
// pinning sconfig.Principal to pubKey. pubKey is the full "ssh-ed25519 AAAA..."
// authorized_keys-style line (whitespace-trimmed before writing).
//
// This is the one piece of sira-install's job that is in scope for the core
// per SPEC_FULL.md's boundary decision: the file format itself is part of
// the signing surface, not installer policy.
func WriteAllowedSigners(surface, pubKey string) error {
	path, err := sconfig.AllowedSignersPath(surface)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(sconfig.AllowedSignersDir(), 0o755); err != nil {
		return fmt.Errorf("creating allowed_signers directory: %w", err)
	}

	line := fmt.Sprintf("%s %s\n", sconfig.Principal, strings.TrimSpace(pubKey))
	if err := os.WriteFile(path, []byte(line), 0o644); err != nil {
		return fmt.Errorf("writing allowed_signers file %s: %w", path, err)
	}
	return nil
}
