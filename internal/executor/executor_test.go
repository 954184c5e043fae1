package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/edev/sira/internal/action"
	"github.com/edev/sira/internal/errs"
	"github.com/edev/sira/internal/sconfig"
	"github.com/edev/sira/internal/transport"
	"github.com/edev/sira/internal/wire"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errTestUnreachable = errors.New("dial tcp: connection refused")

type fakeConn struct {
	dispatches []wire.Frame
	results    []transport.Result
	errs       []error
	staged     []string
	stagedDirs []string
	closed     bool
}

func (f *fakeConn) Dispatch(ctx context.Context, frame wire.Frame) (transport.Result, error) {
	i := len(f.dispatches)
	f.dispatches = append(f.dispatches, frame)
	var res transport.Result
	var err error
	if i < len(f.results) {
		res = f.results[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return res, err
}

func (f *fakeConn) StageUpload(local, destDir string) (string, error) {
	f.staged = append(f.staged, local)
	f.stagedDirs = append(f.stagedDirs, destDir)
	return destDir + "/.sira-upload-test", nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

type fakeDialer struct {
	conn *fakeConn
	err  error
}

func (f fakeDialer) Connect(target, host string, opts transport.DialOptions) (hostConn, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.conn, nil
}

func withTempConfigDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	old := sconfig.ConfigDir
	sconfig.ConfigDir = dir
	t.Cleanup(func() { sconfig.ConfigDir = old })
}

func twoCommandActions() []action.HostAction {
	return []action.HostAction{
		{Host: "web1", Action: action.Action{Cmd: &action.CommandAction{Argv: [][]string{{"true"}}}}, Vars: map[string]string{}},
		{Host: "web1", Action: action.Action{Cmd: &action.CommandAction{Argv: [][]string{{"false"}}}}, Vars: map[string]string{}},
	}
}

func TestRun_AllActionsSucceed(t *testing.T) {
	withTempConfigDir(t)
	conn := &fakeConn{results: []transport.Result{{ExitCode: 0}, {ExitCode: 0}}}
	d := fakeDialer{conn: conn}

	out := run(context.Background(), zap.NewNop(), d, "web1:22", "web1", twoCommandActions(), transport.DialOptions{})
	require.Equal(t, StatusOK, out.Status)
	require.Equal(t, 2, out.ActionsRun)
	require.Len(t, conn.dispatches, 2)
	require.True(t, conn.closed)
}

func TestRun_AbortsOnFirstFailure(t *testing.T) {
	withTempConfigDir(t)
	conn := &fakeConn{results: []transport.Result{{ExitCode: 0}, {ExitCode: 1, Stderr: []byte("boom")}}}
	d := fakeDialer{conn: conn}

	out := run(context.Background(), zap.NewNop(), d, "web1:22", "web1", twoCommandActions(), transport.DialOptions{})
	require.Equal(t, StatusFailed, out.Status)
	require.Equal(t, 1, out.ActionsRun)
	require.Len(t, conn.dispatches, 2) // the failing one was dispatched; a third would not be

	var aerr *errs.Error
	require.ErrorAs(t, out.Err, &aerr)
	require.Equal(t, errs.Action, aerr.Kind)
	require.Equal(t, "web1", aerr.Host)
	require.Equal(t, 1, aerr.Action)
	require.Error(t, out.Err)
}

func TestRun_DispatchTransportErrorMidStream(t *testing.T) {
	withTempConfigDir(t)
	dialErr := errors.New("ssh session closed unexpectedly")
	conn := &fakeConn{errs: []error{dialErr}}
	d := fakeDialer{conn: conn}

	out := run(context.Background(), zap.NewNop(), d, "web1:22", "web1", twoCommandActions(), transport.DialOptions{})
	require.Equal(t, StatusFailed, out.Status)
	require.Equal(t, 0, out.ActionsRun)

	var terr *errs.Error
	require.ErrorAs(t, out.Err, &terr)
	require.Equal(t, errs.Transport, terr.Kind)
	require.Equal(t, "web1", terr.Host)
	require.Equal(t, 0, terr.Action)
}

func TestRun_UnreachableHostReportsStatus(t *testing.T) {
	withTempConfigDir(t)
	d := fakeDialer{err: errTestUnreachable}

	out := run(context.Background(), zap.NewNop(), d, "web1:22", "web1", twoCommandActions(), transport.DialOptions{})
	require.Equal(t, StatusUnreachable, out.Status)
	require.Equal(t, 0, out.ActionsRun)

	var terr *errs.Error
	require.ErrorAs(t, out.Err, &terr)
	require.Equal(t, errs.Transport, terr.Kind)
	require.Equal(t, "web1", terr.Host)
}

func TestRun_CancelledContextStopsDispatch(t *testing.T) {
	withTempConfigDir(t)
	conn := &fakeConn{}
	d := fakeDialer{conn: conn}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := run(ctx, zap.NewNop(), d, "web1:22", "web1", twoCommandActions(), transport.DialOptions{})
	require.Equal(t, StatusCancelled, out.Status)
	require.Empty(t, conn.dispatches)
}

func TestRun_UploadActionStagesBeforeDispatch(t *testing.T) {
	withTempConfigDir(t)
	conn := &fakeConn{results: []transport.Result{{ExitCode: 0}}}
	d := fakeDialer{conn: conn}

	actions := []action.HostAction{
		{
			Host: "web1",
			Action: action.Action{Up: &action.UploadAction{
				From: "/local/file.txt",
				To:   "/remote/file.txt",
			}},
			Vars: map[string]string{},
		},
	}

	out := run(context.Background(), zap.NewNop(), d, "web1:22", "web1", actions, transport.DialOptions{})
	require.Equal(t, StatusOK, out.Status)
	require.Equal(t, []string{"/local/file.txt"}, conn.staged)
	require.Equal(t, []string{"/remote"}, conn.stagedDirs)
}

// TestRun_UploadActionWithTrailingSlashDestination covers the destination
// directory computation when To itself names a directory (trailing slash):
// the staged file must land inside that directory, not its parent.
func TestRun_UploadActionWithTrailingSlashDestination(t *testing.T) {
	withTempConfigDir(t)
	conn := &fakeConn{results: []transport.Result{{ExitCode: 0}}}
	d := fakeDialer{conn: conn}

	actions := []action.HostAction{
		{
			Host: "web1",
			Action: action.Action{Up: &action.UploadAction{
				From: "/local/config.yaml",
				To:   "/etc/sira/conf.d/",
			}},
			Vars: map[string]string{},
		},
	}

	out := run(context.Background(), zap.NewNop(), d, "web1:22", "web1", actions, transport.DialOptions{})
	require.Equal(t, StatusOK, out.Status)
	require.Equal(t, []string{"/etc/sira/conf.d"}, conn.stagedDirs)
}
