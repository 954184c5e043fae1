package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/edev/sira/internal/sconfig"
	"github.com/edev/sira/internal/wire"
	"github.com/hnakamur/go-scp"
	"golang.org/x/crypto/ssh"
)

// Result is the outcome of one sira-client invocation.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// HostConn is the long-lived SSH master connection for one host (spec.md
// §4.C, §4.E: "the executor owns its SSH session and closes it on
// completion").
type HostConn struct {
	host   string
	client sessionClient
	raw    *ssh.Client // nil in tests that stub sessionClient directly; used for SCP uploads and Close
}

// Connect dials target and returns a HostConn ready to dispatch actions.
func Connect(target, host string, opts DialOptions) (*HostConn, error) {
	c, err := dialSSHFunc(target, opts)
	if err != nil {
		return nil, err
	}
	return &HostConn{host: host, client: sshClientWrapper{c}, raw: c}, nil
}

// Close closes the underlying SSH connection.
func (hc *HostConn) Close() error {
	if hc.raw != nil {
		return hc.raw.Close()
	}
	return nil
}

// Dispatch feeds frame to `sudo -n /opt/sira/bin/sira-client` on standard
// input and collects its output and exit status (spec.md §4.C). On context
// cancellation Dispatch returns ctx.Err() at once without waiting for
// sira-client; the session itself is closed only when its Run returns or the
// connection is closed. The caller treats that error the same as a transport
// error (spec.md §4.E, rule 4).
func (hc *HostConn) Dispatch(ctx context.Context, frame wire.Frame) (Result, error) {
	var payload bytes.Buffer
	if err := wire.Encode(&payload, frame); err != nil {
		return Result{}, fmt.Errorf("encoding frame: %w", err)
	}

	type outcome struct {
		res Result
		err error
	}
	ch := make(chan outcome, 1)

	go func() {
		sess, err := hc.client.NewSession()
		if err != nil {
			ch <- outcome{err: err}
			return
		}
		defer sess.Close()

		var stdout, stderr bytes.Buffer
		sess.SetStdin(bytes.NewReader(payload.Bytes()))
		sess.SetStdout(&stdout)
		sess.SetStderr(&stderr)

		runErr := sess.Run("sudo -n " + sconfig.ClientBinary)
		exit := 0
		if runErr != nil {
			exit = -1
			var ee *ssh.ExitError
			if errors.As(runErr, &ee) {
				exit = ee.ExitStatus()
				runErr = nil
			}
		}
		ch <- outcome{res: Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ExitCode: exit}, err: runErr}
	}()

	select {
	case o := <-ch:
		return o.res, o.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// StageUpload copies local onto the managed node under a unique temporary
// path inside destDir, returning that path for a subsequent `upload`
// dispatch to move into place (spec.md §4.C).
func (hc *HostConn) StageUpload(local, destDir string) (string, error) {
	if hc.raw == nil {
		return "", fmt.Errorf("transport: no live ssh connection for upload staging")
	}
	tmpName := ".sira-upload-" + randomSuffix()
	remoteTemp := path.Join(destDir, tmpName)

	if err := scp.NewSCP(hc.raw).SendFile(local, remoteTemp); err != nil {
		return "", fmt.Errorf("staging upload to %s: %w", remoteTemp, err)
	}
	return remoteTemp, nil
}
