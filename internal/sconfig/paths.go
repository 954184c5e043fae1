// Package sconfig holds the canonical filesystem layout from spec.md §6.
//
// Paths are package variables rather than constants so tests can point them
// at a temporary directory, the same seam the teacher used for
// cfgKnownHosts's default path.
package sconfig

import (
	"fmt"
	"path/filepath"
)

var (
	// ClientBinary is the managed-node path to the privileged helper.
	ClientBinary = "/opt/sira/bin/sira-client"

	// ConfigDir is the root of sira's on-disk configuration, both on the
	// control node (keys, allowed signers for manifests) and the managed
	// node (allowed signers for actions).
	ConfigDir = "/etc/sira"
)

// KeyDir is the subdirectory of ConfigDir holding signing key material.
func KeyDir() string { return filepath.Join(ConfigDir, "keys") }

// AllowedSignersDir is the subdirectory of ConfigDir holding allowed-signers
// files, one per signing surface ("manifest", "action").
func AllowedSignersDir() string { return filepath.Join(ConfigDir, "allowed_signers") }

// ActionKeyPath is the control-node path to the private key used to sign
// action payloads in flight.
func ActionKeyPath() string { return filepath.Join(KeyDir(), "action") }

// ActionPublicKeyPath is the corresponding public key.
func ActionPublicKeyPath() string { return filepath.Join(KeyDir(), "action.pub") }

// ManifestKeyPath is the control-node path to the private key used to sign
// manifest/task files at rest.
func ManifestKeyPath() string { return filepath.Join(KeyDir(), "manifest") }

// AllowedSignersPath returns the path to the allowed-signers file for the
// given surface ("manifest" or "action"). surface must be alphabetic, the
// same directory-traversal guard original_source/src/crypto.rs applies
// before joining a caller-influenced name onto a directory path.
func AllowedSignersPath(surface string) (string, error) {
	if err := validateSurfaceName(surface); err != nil {
		return "", err
	}
	return filepath.Join(AllowedSignersDir(), surface), nil
}

// KeyPath returns the path to the named key file under KeyDir. name must be
// alphabetic, mirroring crypto.rs's guard on its own `key` parameter.
func KeyPath(name string) (string, error) {
	if err := validateSurfaceName(name); err != nil {
		return "", err
	}
	return filepath.Join(KeyDir(), name), nil
}

func validateSurfaceName(name string) error {
	if name == "" {
		return fmt.Errorf("sconfig: name must not be empty")
	}
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return fmt.Errorf("sconfig: name %q must contain only alphabetic characters", name)
		}
	}
	return nil
}

// Principal is the OpenSSH principal pinned in every allowed-signers file.
const Principal = "sira"

// Namespace is the ssh-keygen -Y sign/verify namespace used for every
// signature sira produces or checks.
const Namespace = "sira"

// SudoersEntry is the sudoers drop-in line installers must create on managed
// nodes, granting the sira user passwordless access to sira-client only.
func SudoersEntry(siraUser string) string {
	return fmt.Sprintf("%s ALL=(root:root) NOPASSWD:%s", siraUser, ClientBinary)
}
