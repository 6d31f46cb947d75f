package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge/cmd/forge/commands"
	"forge/internal/adapters/logger"
	"forge/internal/app"
	"forge/internal/build"
	"forge/internal/core/domain"
	"forge/internal/engine/resolver"
)

type stubApp struct {
	runFunc func(ctx context.Context, targetArgs []string, opts app.RunOptions) error
	graph   *resolver.Graph
}

func (s *stubApp) Run(ctx context.Context, targetArgs []string, opts app.RunOptions) error {
	if s.runFunc != nil {
		return s.runFunc(ctx, targetArgs, opts)
	}
	return nil
}

func (s *stubApp) Graph() (*resolver.Graph, error) { return s.graph, nil }

func TestCommands_Run_WiresFlags(t *testing.T) {
	var capturedOpts app.RunOptions
	var capturedTargets []string

	stub := &stubApp{
		runFunc: func(_ context.Context, targetArgs []string, opts app.RunOptions) error {
			capturedOpts = opts
			capturedTargets = targetArgs
			return nil
		},
	}

	cli := commands.New(stub, logger.New())
	cli.SetArgs([]string{"build", "--force-tasks", "--no-parallel-tasks"})
	cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, []string{"build"}, capturedTargets)
	assert.True(t, capturedOpts.Force)
	assert.False(t, capturedOpts.Parallel)
}

func TestCommands_Run_DisableCacheImpliesForce(t *testing.T) {
	var capturedOpts app.RunOptions
	stub := &stubApp{
		runFunc: func(_ context.Context, _ []string, opts app.RunOptions) error {
			capturedOpts = opts
			return nil
		},
	}

	cli := commands.New(stub, logger.New())
	cli.SetArgs([]string{"build", "--disable-cache"})
	cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

	require.NoError(t, cli.Execute(context.Background()))
	assert.True(t, capturedOpts.Force)
	assert.True(t, capturedOpts.DisableCache)
}

func TestCommands_Run_PropagatesError(t *testing.T) {
	stub := &stubApp{
		runFunc: func(_ context.Context, _ []string, _ app.RunOptions) error {
			return errors.New("simulated error")
		},
	}

	cli := commands.New(stub, logger.New())
	cli.SetArgs([]string{"build"})
	cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

	err := cli.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulated error")
}

func TestCommands_Version(t *testing.T) {
	stub := &stubApp{}
	cli := commands.New(stub, logger.New())

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"--version"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Contains(t, buf.String(), build.Version)
}

func TestCommands_ShowTasks(t *testing.T) {
	stub := &stubApp{graph: resolver.NewGraph(domain.NewPhaseRegistry())}
	cli := commands.New(stub, logger.New())

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"--show-tasks"})

	err := cli.Execute(context.Background())
	require.NoError(t, err)
}
