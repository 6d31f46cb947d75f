// Package executor runs the groups internal/engine/scheduler plans:
// dispatching each group's actions, awaiting them, and running every
// completed invocation's RunCondition post-run hook (spec §4.6). Grounded
// on the teacher's scheduler.go runExecutionLoop/executeTask dispatch and
// app.go's errgroup-bounded concurrent dispatch, generalized from the
// teacher's single free-running worker pool to the spec's main-worker /
// background-pool split between non-parallelizable and parallelizable
// actions.
package executor

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"forge/internal/core/domain"
	"forge/internal/core/ports"
)

// Options configures a run.
type Options struct {
	// Root is the project directory RunCondition post-run hooks resolve
	// relative paths against.
	Root string
	// Parallel enables the background worker pool for is_parallelizable
	// actions; when false every action runs on the main worker.
	Parallel bool
	// DisableCache bypasses the cache entirely: no RunCondition post-run
	// hook runs, and Cache GC is skipped.
	DisableCache bool
}

// Executor runs ParallelGroups against a shared Cache, one group at a
// time, cancelling the rest of a group (and aborting later groups) the
// first time an action fails.
type Executor struct {
	cache  domain.Cache
	logger ports.Logger
	sem    *semaphore.Weighted
}

// New returns an Executor bounding its background worker pool to the
// host's CPU count (spec §4.6).
func New(cache domain.Cache, logger ports.Logger) *Executor {
	return &Executor{
		cache:  cache,
		logger: logger,
		sem:    semaphore.NewWeighted(int64(runtime.NumCPU())),
	}
}

// dispatched records one invocation's outcome within a group, for
// post-run accounting once the group's actions have all returned.
type dispatched struct {
	tws      domain.TaskWithStatus
	ran      bool
	actionErr error
}

// Run executes every group in order, stopping after the first group that
// contains a failure, and returns the aggregate of every action error and
// every post-run hook error encountered along the way (spec §7
// multiple-exceptions).
func (e *Executor) Run(ctx context.Context, groups []domain.ParallelGroup, opts Options) error {
	var aggregate error

	for _, group := range groups {
		results, groupErr := e.runGroup(ctx, group, opts)
		aggregate = domain.JoinErrors(aggregate, groupErr)

		for _, d := range results {
			if !d.ran {
				continue
			}
			if postErr := e.postRun(d, opts); postErr != nil {
				aggregate = domain.JoinErrors(aggregate, postErr)
			}
		}

		if groupErr != nil {
			break
		}
	}

	return aggregate
}

// runGroup dispatches every invocation in group concurrently: a
// parallelizable invocation runs on the bounded background pool when
// opts.Parallel is set, everything else runs in sequence on a single
// "main worker" goroutine, consistent with spec §4.6's scheduling model.
func (e *Executor) runGroup(ctx context.Context, group domain.ParallelGroup, opts Options) ([]dispatched, error) {
	results := make([]dispatched, len(group))
	g, gctx := errgroup.WithContext(ctx)

	var mainWorker []int
	for i, tws := range group {
		if opts.Parallel && tws.Invocation.Task.IsParallelizable {
			i, tws := i, tws
			g.Go(func() error {
				if err := e.sem.Acquire(gctx, 1); err != nil {
					results[i] = dispatched{tws: tws, ran: true, actionErr: domain.ErrCancelled}
					return domain.ErrCancelled
				}
				defer e.sem.Release(1)
				return e.dispatchOne(gctx, tws, &results[i])
			})
		} else {
			mainWorker = append(mainWorker, i)
		}
	}

	if len(mainWorker) > 0 {
		g.Go(func() error {
			for _, i := range mainWorker {
				if err := e.dispatchOne(gctx, group[i], &results[i]); err != nil {
					return err
				}
			}
			return nil
		})
	}

	err := g.Wait()
	return results, err
}

// dispatchOne runs tws's action if its status requires it, recording the
// outcome in slot. An already-cancelled context short-circuits without
// running the action at all — the closest a plain Go function can come to
// spec §5's "observe cancellation at the next suspension point", since
// domain.Action takes no context to poll mid-flight.
func (e *Executor) dispatchOne(ctx context.Context, tws domain.TaskWithStatus, slot *dispatched) error {
	if !tws.MustRun() {
		*slot = dispatched{tws: tws, ran: false}
		return nil
	}
	if ctx.Err() != nil {
		*slot = dispatched{tws: tws, ran: false, actionErr: domain.ErrCancelled}
		return domain.ErrCancelled
	}

	err := e.runAction(tws.Invocation)
	*slot = dispatched{tws: tws, ran: true, actionErr: err}
	if err != nil {
		return domain.WithReason(domain.ErrTaskFailed, tws.Invocation.TaskName()+": "+err.Error())
	}
	return nil
}

// runAction invokes inv's action according to its concrete type, computing
// a Changeset from the cache for IncrementalAction (spec §3).
func (e *Executor) runAction(inv domain.TaskInvocation) error {
	switch action := inv.Task.Action.(type) {
	case domain.PlainAction:
		return action(inv.Args)
	case domain.IncrementalAction:
		changes := e.changeset(inv)
		return action(inv.Args, changes)
	default:
		return domain.ErrAnonymousActionNeedsName
	}
}

// changeset computes the Inputs-side Changeset an IncrementalAction
// receives; output changes aren't meaningful before the action itself
// produces them, so ChangedOutputs/RemovedOutputs are left empty.
func (e *Executor) changeset(inv domain.TaskInvocation) domain.Changeset {
	oc, ok := inv.Task.RunCondition.(domain.OnChanges)
	if !ok {
		return domain.Changeset{}
	}
	changed, removed, err := e.cache.Diff(oc.Inputs, inv.TaskName())
	if err != nil {
		return domain.Changeset{}
	}
	return domain.Changeset{ChangedInputs: changed, RemovedInputs: removed}
}

// postRun invokes a completed invocation's RunCondition post-run hook,
// unless caching is disabled entirely.
func (e *Executor) postRun(d dispatched, opts Options) error {
	if opts.DisableCache {
		return nil
	}
	return d.tws.Invocation.Task.RunCondition.PostRun(d.tws.Invocation, e.cache, opts.Root, d.actionErr)
}
