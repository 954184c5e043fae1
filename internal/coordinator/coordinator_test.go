package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/edev/sira/internal/action"
	"github.com/edev/sira/internal/transport"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRun_AllUnreachableHostsFailTheRun(t *testing.T) {
	hosts := []string{"web1", "web2"}
	byHost := map[string][]action.HostAction{
		"web1": {{Host: "web1", Action: action.Action{Cmd: &action.CommandAction{Argv: [][]string{{"true"}}}}}},
		"web2": {{Host: "web2", Action: action.Action{Cmd: &action.CommandAction{Argv: [][]string{{"true"}}}}}},
	}
	resolve := func(host string) (string, transport.DialOptions) {
		return "127.0.0.1:0", transport.DialOptions{DialTimeout: 200 * time.Millisecond}
	}

	report := Run(context.Background(), zap.NewNop(), hosts, byHost, resolve)
	require.False(t, report.OK)
	require.Equal(t, 1, report.ExitCode())
	require.Len(t, report.Outcomes, 2)
}

func TestRun_EmptyPlanSucceeds(t *testing.T) {
	report := Run(context.Background(), zap.NewNop(), nil, nil, func(host string) (string, transport.DialOptions) {
		return "", transport.DialOptions{}
	})
	require.True(t, report.OK)
	require.Equal(t, 0, report.ExitCode())
}
