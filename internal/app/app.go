// Package app wires the engine's pieces into the pipeline a single CLI
// invocation runs: load the forgefile, build its graph, parse the
// requested task invocations, schedule them, execute them, and garbage
// collect the cache. Grounded on the teacher's app.go Run method's overall
// shape (discover cwd, load config, resolve, execute), stripped of the
// daemon/TUI/telemetry/nix concerns spec.md has no analog for (see
// DESIGN.md).
package app

import (
	"context"
	"os"

	"forge/internal/adapters/cas"
	"forge/internal/adapters/config"
	fsadapter "forge/internal/adapters/fs"
	"forge/internal/adapters/shell"
	"forge/internal/core/domain"
	"forge/internal/core/ports"
	"forge/internal/engine/executor"
	"forge/internal/engine/invocation"
	"forge/internal/engine/resolver"
	"forge/internal/engine/scheduler"
)

// RunOptions configures one invocation of Run, mirroring spec §6's CLI
// flags.
type RunOptions struct {
	Force        bool
	Parallel     bool
	DisableCache bool
	ResetCache   bool
}

// App orchestrates one forgefile.yaml's worth of tasks end to end.
type App struct {
	loader *config.Loader
	logger ports.Logger
}

// New creates an App backed by the real filesystem and shell.
func New(logger ports.Logger) *App {
	return &App{loader: config.NewLoader(logger), logger: logger}
}

// Run discovers the forgefile reachable from the current working
// directory, builds its task graph, parses targetArgs into invocations,
// schedules and executes them, then garbage collects the cache.
func (a *App) Run(ctx context.Context, targetArgs []string, opts RunOptions) error {
	graph, root, err := a.loadGraph()
	if err != nil {
		return err
	}

	if opts.ResetCache {
		if err := os.RemoveAll(toolDir(root)); err != nil {
			return err
		}
	}

	invocations, err := invocation.Parse(targetArgs, graph)
	if err != nil {
		return err
	}
	if len(invocations) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	cache := cas.NewCache(root, fsadapter.NewHasher())

	groups, err := scheduler.Schedule(graph, invocations, cache, root, scheduler.Options{
		Force:        opts.Force,
		DisableCache: opts.DisableCache,
	})
	if err != nil {
		return err
	}

	exec := executor.New(cache, a.logger)
	runErr := exec.Run(ctx, groups, executor.Options{
		Root:         root,
		Parallel:     opts.Parallel,
		DisableCache: opts.DisableCache,
	})

	if !opts.DisableCache {
		if gcErr := a.collectGarbage(graph, cache); gcErr != nil {
			return domain.JoinErrors(runErr, gcErr)
		}
	}
	return runErr
}

// Graph discovers the forgefile and builds its task graph, for the
// --show-tasks and --show-task-graph informational modes.
func (a *App) Graph() (*resolver.Graph, error) {
	graph, _, err := a.loadGraph()
	return graph, err
}

func (a *App) loadGraph() (*resolver.Graph, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}

	file, root, err := a.loader.Load(cwd)
	if err != nil {
		return nil, "", err
	}

	phases := domain.NewPhaseRegistry()
	shellExec := shell.NewExecutor(a.logger)
	graph, err := config.BuildGraph(file, phases, shellExec)
	if err != nil {
		return nil, "", err
	}
	return graph, root, nil
}

// collectGarbage removes cache entries for tasks and keys no task in graph
// still occupies (spec §4.6 Cache GC).
func (a *App) collectGarbage(graph *resolver.Graph, cache domain.Cache) error {
	liveTaskNames := make(map[string]struct{})
	liveKeys := make(map[string]struct{})

	for _, name := range graph.TaskNames() {
		task, ok := graph.Task(name)
		if !ok {
			continue
		}
		liveTaskNames[name] = struct{}{}
		liveKeys[name] = struct{}{}
		if _, ok := task.RunCondition.(domain.OnChanges); ok {
			liveKeys[domain.OutputsKey(name)] = struct{}{}
		}
	}

	return cache.RemoveNotMatching(liveTaskNames, liveKeys)
}

func toolDir(root string) string {
	return root + string(os.PathSeparator) + domain.ToolDirName
}
