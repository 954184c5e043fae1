// Package coordinator implements spec.md §4.F: spawn one executor per host,
// run them concurrently and independently, and fold their outcomes into a
// process exit code.
package coordinator

import (
	"context"
	"sync"

	"github.com/edev/sira/internal/action"
	"github.com/edev/sira/internal/executor"
	"github.com/edev/sira/internal/transport"
	"go.uber.org/zap"
)

// Report is the full result of one run: every host's outcome plus whether
// the run as a whole should be considered a success.
type Report struct {
	Outcomes []executor.Outcome
	OK       bool
}

// HostResolver maps a plan's logical host name to an SSH dial target
// (host:port); in the simplest case it is the identity function with a
// default port appended.
type HostResolver func(host string) (target string, opts transport.DialOptions)

// Run starts one executor per host in plan, waits for all of them, and
// returns their outcomes. Per SPEC_FULL.md's Open Question decision, a host
// left unreachable before its first action still counts as a failure for
// the purposes of the process exit code (spec.md §4.F).
func Run(ctx context.Context, log *zap.Logger, hosts []string, byHost map[string][]action.HostAction, resolve HostResolver) Report {
	var wg sync.WaitGroup
	results := make([]executor.Outcome, len(hosts))

	for i, host := range hosts {
		i, host := i, host
		wg.Add(1)
		go func() {
			defer wg.Done()
			target, opts := resolve(host)
			results[i] = executor.Run(ctx, log, target, host, byHost[host], opts)
		}()
	}
	wg.Wait()

	ok := true
	for _, o := range results {
		if o.Status != executor.StatusOK {
			ok = false
		}
	}
	return Report{Outcomes: results, OK: ok}
}

// ExitCode maps a Report to the process exit code spec.md §6 defines for
// the control-node CLI: 0 on full success, 1 if any host failed.
func (r Report) ExitCode() int {
	if r.OK {
		return 0
	}
	return 1
}
