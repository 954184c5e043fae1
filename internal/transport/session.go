package transport

import (
	"io"

	"golang.org/x/crypto/ssh"
)

// session is the minimal surface transport needs from an SSH exec channel;
// tests substitute a fake so dispatch logic can be exercised without a real
// sshd.
type session interface {
	SetStdin(r io.Reader)
	SetStdout(w io.Writer)
	SetStderr(w io.Writer)
	Run(cmd string) error
	Close() error
}

// sessionClient opens sessions on a connection; the real implementation
// wraps *ssh.Client, same pattern as the teacher's sshClientWrapper.
type sessionClient interface {
	NewSession() (session, error)
}

type sshClientWrapper struct {
	c *ssh.Client
}

func (w sshClientWrapper) NewSession() (session, error) {
	s, err := w.c.NewSession()
	if err != nil {
		return nil, err
	}
	return &sshSessionWrapper{s: s}, nil
}

type sshSessionWrapper struct {
	s *ssh.Session
}

func (w *sshSessionWrapper) SetStdin(r io.Reader)  { w.s.Stdin = r }
func (w *sshSessionWrapper) SetStdout(wr io.Writer) { w.s.Stdout = wr }
func (w *sshSessionWrapper) SetStderr(wr io.Writer) { w.s.Stderr = wr }
func (w *sshSessionWrapper) Run(cmd string) error   { return w.s.Run(cmd) }
func (w *sshSessionWrapper) Close() error           { return w.s.Close() }
