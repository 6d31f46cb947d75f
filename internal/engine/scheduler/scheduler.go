// Package scheduler implements spec §4.5: turning a resolved, ordered task
// set into a sequence of ParallelGroups, each group a maximal set of
// mutually independent, same-phase invocations. Grounded on the teacher's
// engine/scheduler/scheduler.go in-degree/ready-queue shape, replaced with
// the spec's group-packing algorithm in place of the teacher's
// free-running dispatch loop (dispatch itself moves to
// internal/engine/executor, since this package's job ends at producing the
// plan, not running it).
package scheduler

import (
	"forge/internal/core/domain"
	"forge/internal/engine/resolver"
)

// Options configures a scheduling run.
type Options struct {
	// Force bypasses every RunCondition, as --force-tasks does.
	Force bool
	// DisableCache behaves like Force for status purposes (spec §4.5); the
	// executor additionally skips reading or writing the cache entirely.
	DisableCache bool
}

// Schedule expands requested into its full dependency set via graph,
// computes each invocation's TaskStatus, and packs the result into
// ParallelGroups (spec §4.5's algorithm). requested should already carry
// whatever Args each explicitly invoked task was given; dependencies not
// directly requested are synthesized with empty args. root resolves a
// ToDelete task's Deletions FileSet when deciding whether it still has
// anything left to remove (spec §4.3/§4.7).
func Schedule(graph *resolver.Graph, requested []domain.TaskInvocation, cache domain.Cache, root string, opts Options) ([]domain.ParallelGroup, error) {
	targets := make([]string, len(requested))
	explicit := make(map[string]domain.TaskInvocation, len(requested))
	for i, inv := range requested {
		targets[i] = inv.TaskName()
		explicit[inv.TaskName()] = inv
	}

	order, err := graph.Resolve(targets)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]domain.TaskWithDeps, len(order))
	for _, twd := range order {
		byName[twd.Name()] = twd
	}

	emitted := make(map[string]domain.TaskWithStatus, len(order))
	var groups []domain.ParallelGroup

	for _, twd := range order {
		inv, ok := explicit[twd.Name()]
		if !ok {
			inv = domain.TaskInvocation{Task: twd.Task, InvocationName: twd.Task.Name}
		}

		status, err := computeStatus(twd, inv, cache, root, opts, emitted, graph.DeletionAffects(twd.Name()))
		if err != nil {
			return nil, err
		}

		tws := domain.TaskWithStatus{Invocation: inv, Status: status}
		emitted[twd.Name()] = tws
		groups = place(groups, tws, twd, byName)
	}

	return groups, nil
}

// computeStatus implements spec §4.5 step 2b's status precedence.
func computeStatus(
	twd domain.TaskWithDeps,
	inv domain.TaskInvocation,
	cache domain.Cache,
	root string,
	opts Options,
	emitted map[string]domain.TaskWithStatus,
	deletionAffects []string,
) (domain.TaskStatus, error) {
	if opts.Force || opts.DisableCache {
		return domain.StatusForced, nil
	}
	if _, ok := twd.Task.RunCondition.(domain.AlwaysRun); ok {
		return domain.StatusAlwaysRuns, nil
	}
	for _, affecting := range deletionAffects {
		if aff, ok := emitted[affecting]; ok && aff.Status != domain.StatusUpToDate {
			return domain.StatusAffectedByDeletionTask, nil
		}
	}
	for _, dep := range twd.Dependencies {
		if depStatus, ok := emitted[dep]; ok && depStatus.MustRun() {
			return domain.StatusDependencyIsOutOfDate, nil
		}
	}

	if del, ok := twd.Task.RunCondition.(domain.ToDelete); ok {
		if !del.Exists(root) {
			return domain.StatusUpToDate, nil
		}
		return domain.StatusOutOfDate, nil
	}

	shouldRun, err := twd.Task.RunCondition.ShouldRun(inv, cache)
	if err != nil {
		return "", err
	}
	if shouldRun {
		return domain.StatusOutOfDate, nil
	}
	return domain.StatusUpToDate, nil
}

// place appends tws to the last group if it shares that group's phase and
// has no dependency relation (either direction) with anything already in
// it; otherwise it starts a new group. Because order already respects the
// phase-major, dependency-respecting ordering law, this greedy placement
// yields the maximal packing spec §4.5 describes.
func place(groups []domain.ParallelGroup, tws domain.TaskWithStatus, twd domain.TaskWithDeps, byName map[string]domain.TaskWithDeps) []domain.ParallelGroup {
	if len(groups) > 0 {
		last := groups[len(groups)-1]
		if canJoin(last, twd, byName) {
			groups[len(groups)-1] = append(last, tws)
			return groups
		}
	}
	return append(groups, domain.ParallelGroup{tws})
}

func canJoin(group domain.ParallelGroup, twd domain.TaskWithDeps, byName map[string]domain.TaskWithDeps) bool {
	for _, member := range group {
		memberName := member.Invocation.TaskName()
		memberTwd := byName[memberName]
		if memberTwd.Task.Phase != twd.Task.Phase {
			return false
		}
		if twd.DependsOnTransitively(memberName) || memberTwd.DependsOnTransitively(twd.Name()) {
			return false
		}
	}
	return true
}
