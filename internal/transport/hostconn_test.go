package transport

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/edev/sira/internal/wire"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	gotCmd     string
	runErr     error
	closeCalls *int
	block      <-chan struct{}
}

func (f *fakeSession) SetStdin(r io.Reader)  { f.stdin = r }
func (f *fakeSession) SetStdout(w io.Writer) { f.stdout = w }
func (f *fakeSession) SetStderr(w io.Writer) { f.stderr = w }
func (f *fakeSession) Run(cmd string) error {
	f.gotCmd = cmd
	if f.block != nil {
		<-f.block
	}
	if f.stdout != nil {
		io.Copy(f.stdout, f.stdin)
	}
	return f.runErr
}
func (f *fakeSession) Close() error {
	if f.closeCalls != nil {
		*f.closeCalls++
	}
	return nil
}

type fakeSessionClient struct {
	sessions []*fakeSession
	block    <-chan struct{}
}

func (f *fakeSessionClient) NewSession() (session, error) {
	s := &fakeSession{block: f.block}
	f.sessions = append(f.sessions, s)
	return s, nil
}

func TestHostConn_Dispatch_EchoesPayloadAndExitsZero(t *testing.T) {
	fc := &fakeSessionClient{}
	hc := &HostConn{host: "web1", client: fc}

	frame := wire.Frame{Payload: []byte("command:\n  argv: [[true]]\n"), Signature: []byte("sig")}
	res, err := hc.Dispatch(context.Background(), frame)
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)

	require.Len(t, fc.sessions, 1)
	require.Equal(t, "sudo -n /opt/sira/bin/sira-client", fc.sessions[0].gotCmd)

	var want bytes.Buffer
	require.NoError(t, wire.Encode(&want, frame))
	require.Equal(t, want.Bytes(), res.Stdout)
}

func TestHostConn_Dispatch_ContextCancelled(t *testing.T) {
	block := make(chan struct{}) // never closed: Run() blocks forever
	fc := &fakeSessionClient{block: block}
	hc := &HostConn{host: "web1", client: fc}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := hc.Dispatch(ctx, wire.Frame{})
	require.Error(t, err)
}
