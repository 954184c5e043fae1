// Package sshtest runs a throwaway, no-auth SSH server for exercising
// internal/transport against a real network connection instead of a fake
// session, adapted from the arbor-exfil tree's exec-emulating test server
// to run an arbitrary Handler over each "exec" channel rather than a
// canned shell.
package sshtest

import (
	"crypto/rand"
	"crypto/rsa"
	"io"
	"net"
	"time"

	"golang.org/x/crypto/ssh"
)

// Handler runs one exec request's command and returns its exit code. It
// receives the full bytes written to stdin.
type Handler func(cmd string, stdin io.Reader, stdout, stderr io.Writer) int

// Server is a single-host, no-auth SSH listener used in transport tests.
type Server struct {
	Addr string

	ln     net.Listener
	stopCh chan struct{}
	done   chan struct{}
}

// Start launches the server on an OS-assigned loopback port and begins
// accepting connections, dispatching every exec request to handler.
func Start(handler Handler) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		_ = ln.Close()
		return nil, err
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		_ = ln.Close()
		return nil, err
	}

	cfg := &ssh.ServerConfig{NoClientAuth: true}
	cfg.AddHostKey(signer)

	s := &Server{
		Addr:   ln.Addr().String(),
		ln:     ln,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}

	go s.acceptLoop(cfg, handler)
	return s, nil
}

func (s *Server) acceptLoop(cfg *ssh.ServerConfig, handler Handler) {
	defer close(s.done)
	for {
		if tcp, ok := s.ln.(*net.TCPListener); ok {
			_ = tcp.SetDeadline(time.Now().Add(200 * time.Millisecond))
		}
		conn, err := s.ln.Accept()
		select {
		case <-s.stopCh:
			if conn != nil {
				_ = conn.Close()
			}
			return
		default:
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			continue
		}
		go s.handleConn(conn, cfg, handler)
	}
}

func (s *Server) handleConn(raw net.Conn, cfg *ssh.ServerConfig, handler Handler) {
	sc, chans, reqs, err := ssh.NewServerConn(raw, cfg)
	if err != nil {
		_ = raw.Close()
		return
	}
	defer sc.Close()
	go ssh.DiscardRequests(reqs)
	for ch := range chans {
		if ch.ChannelType() != "session" {
			_ = ch.Reject(ssh.UnknownChannelType, "")
			continue
		}
		c, reqs, err := ch.Accept()
		if err != nil {
			continue
		}
		go handleSession(c, reqs, handler)
	}
}

func handleSession(ch ssh.Channel, in <-chan *ssh.Request, handler Handler) {
	defer ch.Close()
	for req := range in {
		switch req.Type {
		case "exec":
			cmd := parseExecPayload(req.Payload)
			req.Reply(true, nil)
			code := handler(cmd, ch, ch, ch.Stderr())
			sendExitStatus(ch, code)
			return
		default:
			req.Reply(false, nil)
		}
	}
}

func parseExecPayload(payload []byte) string {
	if len(payload) < 4 {
		return ""
	}
	n := int(payload[0])<<24 | int(payload[1])<<16 | int(payload[2])<<8 | int(payload[3])
	if 4+n > len(payload) {
		return ""
	}
	return string(payload[4 : 4+n])
}

func sendExitStatus(ch ssh.Channel, code int) {
	payload := make([]byte, 4)
	payload[0] = byte(code >> 24)
	payload[1] = byte(code >> 16)
	payload[2] = byte(code >> 8)
	payload[3] = byte(code)
	_, _ = ch.SendRequest("exit-status", false, payload)
}

// Stop closes the listener and waits for the accept loop to exit.
func (s *Server) Stop() {
	close(s.stopCh)
	_ = s.ln.Close()
	<-s.done
}
