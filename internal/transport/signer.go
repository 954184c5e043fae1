package transport

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/crypto/ssh"
)

// signerCache memoizes parsed private keys by path+passphrase. Unlike the
// teacher's CLI, which dials exactly one host per invocation, sira's
// coordinator dials every host in a plan concurrently from the same key
// (internal/coordinator.Run); re-reading and re-parsing the key file once
// per goroutine would turn a single operator mistake (a slow NFS-mounted
// key file) into a per-host tax. Cache hits return the same ssh.Signer,
// which is safe to share: signing is read-only over the parsed key material.
var (
	signerCacheMu sync.Mutex
	signerCache   = map[string]ssh.Signer{}
)

// loadSigner loads an SSH private key, using passphrase when one is given
// and otherwise parsing the key unencrypted, reporting a clear error if the
// key is encrypted and no passphrase was supplied.
func loadSigner(path, passphrase string) (ssh.Signer, error) {
	cacheKey := path + "\x00" + passphrase

	signerCacheMu.Lock()
	if s, ok := signerCache[cacheKey]; ok {
		signerCacheMu.Unlock()
		return s, nil
	}
	signerCacheMu.Unlock()

	s, err := parseSigner(path, passphrase)
	if err != nil {
		return nil, err
	}

	signerCacheMu.Lock()
	signerCache[cacheKey] = s
	signerCacheMu.Unlock()
	return s, nil
}

func parseSigner(path, passphrase string) (ssh.Signer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading private key %s: %w", path, err)
	}

	if passphrase != "" {
		s, err := ssh.ParsePrivateKeyWithPassphrase(b, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("parsing private key %s: %w", path, err)
		}
		return s, nil
	}

	s, err := ssh.ParsePrivateKey(b)
	if err == nil {
		return s, nil
	}
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		return nil, fmt.Errorf("private key %s is encrypted; provide a passphrase", path)
	}
	return nil, fmt.Errorf("parsing private key %s: %w", path, err)
}
