// Package install implements the bounded slice of sira-install's job that
// belongs in the core module per SPEC_FULL.md: generating signing key
// pairs, writing allowed-signers files, and producing the managed-node
// directory layout and sudoers entry. Discovering and provisioning remote
// hosts is orchestration left to operators' own tooling, grounded on
// original_source/src/bin/sira-install.rs's division between
// control_node/managed_node but narrowed to what this module can verify
// without a real fleet to install onto.
package install

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/edev/sira/internal/sconfig"
	"github.com/edev/sira/internal/signing"
)

// keygenRunner runs ssh-keygen to create a new key pair; swapped out in
// tests the same way internal/signing stubs its own ssh-keygen seam.
var keygenRunner = func(args []string) error {
	cmd := exec.Command("ssh-keygen", args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run()
}

// GenerateKeyPair creates a new unencrypted ed25519 key pair at
// sconfig.KeyPath(name)/{,.pub}, used for the "manifest" and "action"
// signing surfaces.
func GenerateKeyPair(name string) error {
	keyPath, err := sconfig.KeyPath(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(sconfig.KeyDir(), 0o700); err != nil {
		return fmt.Errorf("creating key directory: %w", err)
	}
	if _, err := os.Stat(keyPath); err == nil {
		return fmt.Errorf("key %s already exists", keyPath)
	}
	return keygenRunner([]string{"-t", "ed25519", "-f", keyPath, "-N", "", "-C", "sira-" + name})
}

// PublishAllowedSigners reads the public half of the named key and installs
// it as that surface's allowed-signers file, pinning sconfig.Principal
// (spec.md §4.B).
func PublishAllowedSigners(name string) error {
	keyPath, err := sconfig.KeyPath(name)
	if err != nil {
		return err
	}
	pub, err := os.ReadFile(keyPath + ".pub")
	if err != nil {
		return fmt.Errorf("reading public key %s.pub: %w", keyPath, err)
	}
	return signing.WriteAllowedSigners(name, string(pub))
}

// ManagedNodeLayout describes the directories and files a managed host
// needs before sira-client can run (spec.md §6).
type ManagedNodeLayout struct {
	ClientBinaryDir string
	SudoersEntry    string
}

// PlanManagedNode computes the layout for siraUser without touching the
// filesystem, so control-node tooling can render it into a provisioning
// script or configuration management module of its own choosing.
func PlanManagedNode(siraUser string) ManagedNodeLayout {
	return ManagedNodeLayout{
		ClientBinaryDir: "/opt/sira/bin",
		SudoersEntry:    sconfig.SudoersEntry(siraUser),
	}
}
