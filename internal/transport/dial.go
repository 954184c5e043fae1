// Package transport implements the control-side half of spec.md §4.C: one
// SSH master connection per host, used to run sira-client once per action
// and, for uploads, to stage a file via SCP before invoking it.
package transport

import (
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DialOptions configures how a host's SSH session is established. It is
// populated once from the sira command's flags (whose defaults point at the
// invoking user's ~/.ssh key and known_hosts files) and reused across all
// hosts in a run. The user's ssh client config file (~/.ssh/config) is not
// read.
type DialOptions struct {
	User           string
	KeyPath        string
	Passphrase     string
	Password       string
	KnownHostsPath string
	StrictHostKey  bool
	DialTimeout    time.Duration
}

// dialSSHFunc is swapped out in tests the same way the teacher's
// dialSSHFunc/runRemoteCommandFunc seams work.
var dialSSHFunc = dialSSH

func dialSSH(target string, opts DialOptions) (*ssh.Client, error) {
	auths, err := authMethods(opts)
	if err != nil {
		return nil, err
	}

	hostKeyCB, err := hostKeyCallback(opts)
	if err != nil {
		return nil, err
	}

	cfg := &ssh.ClientConfig{
		User:            opts.User,
		Auth:            auths,
		HostKeyCallback: hostKeyCB,
		Timeout:         opts.DialTimeout,
	}

	return dialAndHandshake(target, cfg, opts.DialTimeout)
}

// authMethods assembles, in priority order, every auth method opts makes
// available: an explicit private key, a password, and (opportunistically) a
// running ssh-agent. Every host in a run shares these same methods, since
// spec.md §6 scopes credentials to the invoking user, not per-host.
func authMethods(opts DialOptions) ([]ssh.AuthMethod, error) {
	var auths []ssh.AuthMethod

	if opts.KeyPath != "" {
		signer, err := loadSigner(opts.KeyPath, opts.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("load key: %w", err)
		}
		auths = append(auths, ssh.PublicKeys(signer))
	}

	if opts.Password != "" {
		auths = append(auths, ssh.Password(opts.Password))
	}

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			ag := agent.NewClient(conn)
			auths = append(auths, ssh.PublicKeysCallback(ag.Signers))
		}
	}

	return auths, nil
}

// hostKeyCallback enforces opts.StrictHostKey against opts.KnownHostsPath,
// or explicitly opts out of verification when the operator has disabled it.
func hostKeyCallback(opts DialOptions) (ssh.HostKeyCallback, error) {
	if !opts.StrictHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	if _, err := os.Stat(opts.KnownHostsPath); err != nil {
		return nil, fmt.Errorf("known_hosts file not found at %s and strict host key checking is enabled", opts.KnownHostsPath)
	}
	cb, err := knownhosts.New(opts.KnownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("known_hosts: %w", err)
	}
	return cb, nil
}

// dialAndHandshake opens the TCP connection and runs the SSH handshake
// separately so a dial timeout and a handshake timeout are both covered by
// the same deadline rather than only the former.
func dialAndHandshake(target string, cfg *ssh.ClientConfig, timeout time.Duration) (*ssh.Client, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	d := net.Dialer{Deadline: deadline}
	conn, err := d.Dial("tcp", target)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}

	_ = conn.SetDeadline(deadline)
	c, chans, reqs, err := ssh.NewClientConn(conn, target, cfg)
	if err != nil {
		return nil, fmt.Errorf("ssh handshake with %s: %w", target, err)
	}
	_ = conn.SetDeadline(time.Time{})
	return ssh.NewClient(c, chans, reqs), nil
}
