// Package signing wraps OpenSSH's detached-signature facility
// (ssh-keygen -Y sign / -Y verify) for arbitrary byte payloads, grounded on
// original_source/src/crypto.rs. It backs both signing surfaces from
// spec.md §4.B: manifest/task files at rest and action payloads in flight.
package signing

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"github.com/edev/sira/internal/sconfig"
)

// Outcome distinguishes "signed successfully" from "the key simply wasn't
// installed", mirroring original_source/src/crypto.rs's SigningOutcome enum:
// an uninstalled key is a normal, checked state, not an error.
type Outcome struct {
	Signature []byte
	KeyFound  bool
}

// runnerFunc executes ssh-keygen with the given args, feeding stdin and
// capturing stdout/stderr. Tests substitute a fake to stay hermetic, the
// same seam the teacher exposes via dialSSHFunc/runRemoteCommandFunc.
type runnerFunc func(args []string, stdin []byte) (stdout, stderr []byte, err error)

var runSSHKeygen runnerFunc = execSSHKeygen

func execSSHKeygen(args []string, stdin []byte) (stdout, stderr []byte, err error) {
	cmd := exec.Command("ssh-keygen", args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// Sign signs payload with the named key (as resolved by sconfig.KeyPath) and
// returns the detached SSHSIG signature. If the key file does not exist,
// Sign returns Outcome{KeyFound: false} and a nil error — per
// original_source/src/crypto.rs, an uninstalled signing key is not a
// failure by itself; callers decide whether that's acceptable per the
// enforcement table in spec.md §4.B (see Enforce).
func Sign(payload []byte, keyName string) (Outcome, error) {
	keyPath, err := sconfig.KeyPath(keyName)
	if err != nil {
		return Outcome{}, err
	}
	if _, err := os.Stat(keyPath); os.IsNotExist(err) {
		return Outcome{KeyFound: false}, nil
	}

	out, errOut, err := runSSHKeygen([]string{"-Y", "sign", "-f", keyPath, "-n", sconfig.Namespace}, payload)
	if err != nil {
		return Outcome{}, fmt.Errorf("signing: ssh-keygen -Y sign failed: %s", firstNonEmpty(errOut, []byte(err.Error())))
	}
	return Outcome{Signature: out, KeyFound: true}, nil
}

// Verify checks that signature is a valid SSHSIG signature of payload under
// the allowed-signers file for surface ("manifest" or "action"), pinning the
// principal sconfig.Principal. It returns an error if the allowed-signers
// file doesn't exist or verification fails.
func Verify(payload, signature []byte, surface string) error {
	allowedPath, err := sconfig.AllowedSignersPath(surface)
	if err != nil {
		return err
	}
	if _, err := os.Stat(allowedPath); os.IsNotExist(err) {
		return fmt.Errorf("please install the required allowed_signers file: %s", allowedPath)
	}

	sigFile, err := os.CreateTemp("", "sira-sig-*")
	if err != nil {
		return fmt.Errorf("verify: creating temp signature file: %w", err)
	}
	defer os.Remove(sigFile.Name())
	if _, err := sigFile.Write(signature); err != nil {
		sigFile.Close()
		return fmt.Errorf("verify: writing temp signature file: %w", err)
	}
	if err := sigFile.Close(); err != nil {
		return fmt.Errorf("verify: closing temp signature file: %w", err)
	}

	_, errOut, err := runSSHKeygen([]string{
		"-Y", "verify",
		"-f", allowedPath,
		"-I", sconfig.Principal,
		"-n", sconfig.Namespace,
		"-s", sigFile.Name(),
	}, payload)
	if err != nil {
		return fmt.Errorf("signature verification failed: %s", firstNonEmpty(errOut, []byte(err.Error())))
	}
	return nil
}

// Installed reports whether the allowed-signers file for surface exists.
func Installed(surface string) (bool, error) {
	allowedPath, err := sconfig.AllowedSignersPath(surface)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(allowedPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func firstNonEmpty(a, b []byte) []byte {
	if len(bytes.TrimSpace(a)) > 0 {
		return a
	}
	return b
}
