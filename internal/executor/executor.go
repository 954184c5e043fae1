// Package executor implements the control-side per-host state machine from
// spec.md §4.E: one long-lived SSH session per host, actions run strictly in
// order, and the first non-zero exit aborts only that host.
package executor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/edev/sira/internal/action"
	"github.com/edev/sira/internal/errs"
	"github.com/edev/sira/internal/signing"
	"github.com/edev/sira/internal/transport"
	"github.com/edev/sira/internal/wire"
	"go.uber.org/zap"
)

// Status is the terminal state of one host's run.
type Status int

const (
	StatusOK Status = iota
	StatusFailed
	StatusUnreachable
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	case StatusUnreachable:
		return "unreachable"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is what a Run reports back to the coordinator.
type Outcome struct {
	Host       string
	Status     Status
	Err        error
	ActionsRun int
	LastResult transport.Result
}

// dialer abstracts HostConn construction so tests can substitute a fake
// transport without a real sshd, the same seam transport.dialSSHFunc gives
// the SSH layer itself.
type dialer interface {
	Connect(target, host string, opts transport.DialOptions) (hostConn, error)
}

// hostConn is the subset of *transport.HostConn the executor drives.
type hostConn interface {
	Dispatch(ctx context.Context, frame wire.Frame) (transport.Result, error)
	StageUpload(local, destDir string) (string, error)
	Close() error
}

type liveDialer struct{}

func (liveDialer) Connect(target, host string, opts transport.DialOptions) (hostConn, error) {
	return transport.Connect(target, host, opts)
}

// Run drives one host's action stream to completion or first failure.
// target is the SSH dial address (host:port); host is the plan's host
// identifier used for provenance and logging, which may differ from target
// when the manifest's host list uses logical names.
func Run(ctx context.Context, log *zap.Logger, target, host string, actions []action.HostAction, opts transport.DialOptions) Outcome {
	return run(ctx, log, liveDialer{}, target, host, actions, opts)
}

func run(ctx context.Context, log *zap.Logger, d dialer, target, host string, actions []action.HostAction, opts transport.DialOptions) Outcome {
	conn, err := d.Connect(target, host, opts)
	if err != nil {
		log.Info("host unreachable", zap.String("host", host), zap.Error(err))
		return Outcome{Host: host, Status: StatusUnreachable, Err: errs.TransportError(err).WithHost(host, -1)}
	}
	defer conn.Close()

	for i, ha := range actions {
		select {
		case <-ctx.Done():
			return Outcome{Host: host, Status: StatusCancelled, Err: ctx.Err(), ActionsRun: i}
		default:
		}

		frame, err := buildFrame(conn, ha)
		if err != nil {
			log.Error("failed to prepare action", zap.String("host", host), zap.Int("action", i), zap.Error(err))
			return Outcome{Host: host, Status: StatusFailed, Err: err, ActionsRun: i}
		}

		res, err := conn.Dispatch(ctx, frame)
		if err != nil {
			terr := errs.TransportError(err).WithHost(host, i)
			log.Error("transport error", zap.String("host", host), zap.Int("action", i), zap.Error(err))
			return Outcome{Host: host, Status: StatusFailed, Err: terr, ActionsRun: i, LastResult: res}
		}
		if res.ExitCode != 0 {
			cause := fmt.Errorf("sira-client exited %d: %s", res.ExitCode, strings.TrimSpace(string(res.Stderr)))
			aerr := errs.ActionError(cause).WithHost(host, i)
			log.Warn("action failed", zap.String("host", host), zap.Int("action", i), zap.Int("exit", res.ExitCode))
			return Outcome{Host: host, Status: StatusFailed, Err: aerr, ActionsRun: i, LastResult: res}
		}
		log.Debug("action ok", zap.String("host", host), zap.Int("action", i))
	}

	return Outcome{Host: host, Status: StatusOK, ActionsRun: len(actions)}
}

// buildFrame stages an upload's source file over SCP when needed, compiles
// the resulting action, and signs it (spec.md §4.A, §4.B). An unsigned
// action key (Sign's KeyFound == false) is transmitted with an empty
// signature; sira-client's own VERIFY_SIG step decides whether that's
// acceptable.
func buildFrame(conn hostConn, ha action.HostAction) (wire.Frame, error) {
	a := ha.Action
	if a.Kind() == action.Upload {
		destDir := a.Up.To
		if strings.HasSuffix(destDir, "/") {
			destDir = strings.TrimSuffix(destDir, "/")
		} else {
			destDir = filepath.Dir(destDir)
		}
		staged, err := conn.StageUpload(a.Up.From, destDir)
		if err != nil {
			return wire.Frame{}, fmt.Errorf("staging upload: %w", err)
		}
		up := *a.Up
		up.StagedFrom = staged
		a.Up = &up
	}

	payload, err := action.Compile(a, ha.Vars)
	if err != nil {
		return wire.Frame{}, fmt.Errorf("compiling action: %w", err)
	}

	out, err := signing.Sign(payload, "action")
	if err != nil {
		return wire.Frame{}, fmt.Errorf("signing action: %w", err)
	}

	return wire.Frame{Payload: payload, Signature: out.Signature}, nil
}
