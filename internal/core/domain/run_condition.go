package domain

import (
	"os"
	"path/filepath"
	"time"
)

// RunCondition decides whether a task must run, and how the cache is
// maintained after it does (spec §3, §4.7). Each variant forwards to the
// sum type's own ShouldRun/PostRun — "no dynamic dispatch across processes
// required" per spec §9 Design Notes.
type RunCondition interface {
	// ShouldRun reports whether inv's task is out of date.
	ShouldRun(inv TaskInvocation, cache Cache) (bool, error)

	// PostRun records the outcome of a run. root is the project root used
	// to resolve relative paths for existence checks; runErr is the
	// action's result (nil on success).
	PostRun(inv TaskInvocation, cache Cache, root string, runErr error) error
}

// AlwaysRun never caches; its task always runs.
type AlwaysRun struct{}

// ShouldRun always reports true.
func (AlwaysRun) ShouldRun(TaskInvocation, Cache) (bool, error) { return true, nil }

// PostRun is a no-op.
func (AlwaysRun) PostRun(TaskInvocation, Cache, string, error) error { return nil }

// OnChanges runs when inputs, outputs, or invocation arguments changed
// since the last successful run.
type OnChanges struct {
	Inputs             FileSet
	Outputs            FileSet
	VerifyOutputsExist bool
}

const onChangesOutputsKey = ":outputs"

// OutputsKey returns the cache key OnChanges uses for taskName's outputs,
// for callers (the orchestrator's cache GC pass) that need to name every
// key a live task set still occupies.
func OutputsKey(taskName string) string {
	return taskName + onChangesOutputsKey
}

// ShouldRun reports true if inputs, outputs, or arguments changed.
func (c OnChanges) ShouldRun(inv TaskInvocation, cache Cache) (bool, error) {
	key := inv.TaskName()

	argsChanged, err := cache.HasTaskInvocationChanged(inv)
	if err != nil {
		return false, err
	}
	if argsChanged {
		return true, nil
	}

	inChanged, err := cache.HasChanged(c.Inputs, key)
	if err != nil {
		return false, err
	}
	if inChanged {
		return true, nil
	}

	outChanged, err := cache.HasChanged(c.Outputs, key+onChangesOutputsKey)
	if err != nil {
		return false, err
	}
	return outChanged, nil
}

// PostRun implements spec §4.7's OnChanges semantics, preserving the
// source's documented ordering for the success path: clean-by-key, then
// write inputs, then outputs, then the invocation record (spec §9 Open
// Questions).
func (c OnChanges) PostRun(inv TaskInvocation, cache Cache, root string, runErr error) error {
	key := inv.TaskName()

	if runErr == nil {
		if c.VerifyOutputsExist {
			if missing := firstMissing(c.Outputs, root); missing != "" {
				runErr = withMessage(ErrMissingOutputs, missing)
			}
		}
	}

	if runErr != nil {
		if remErr := cache.RemoveTaskInvocation(inv.TaskName()); remErr != nil {
			return remErr
		}
		if c.Outputs.IsEmpty() {
			return cache.Remove(c.Inputs, key)
		}
		return cache.Remove(c.Outputs, key+onChangesOutputsKey)
	}

	if err := cache.Clean(key); err != nil {
		return err
	}
	if err := cache.Put(c.Inputs, key); err != nil {
		return err
	}
	if err := cache.Put(c.Outputs, key+onChangesOutputsKey); err != nil {
		return err
	}
	return cache.CacheTaskInvocation(inv)
}

// AtMostEvery runs if never run, or the last successful run was more than
// Period ago.
type AtMostEvery struct {
	Period time.Duration
}

// ShouldRun compares the elapsed time since the last successful run to Period.
func (a AtMostEvery) ShouldRun(inv TaskInvocation, cache Cache) (bool, error) {
	last, ok, err := cache.LatestInvocationTime(inv.TaskName())
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return time.Since(last) > a.Period, nil
}

// PostRun records success, or clears the record on failure.
func (a AtMostEvery) PostRun(inv TaskInvocation, cache Cache, _ string, runErr error) error {
	if runErr != nil {
		return cache.RemoveTaskInvocation(inv.TaskName())
	}
	return cache.CacheTaskInvocation(inv)
}

// ToDelete runs whenever any listed entity still exists.
type ToDelete struct {
	Deletions       FileSet
	VerifyDeletions bool
}

// ShouldRun always reports true; ShouldRun has no root parameter to check
// Deletions against, so the scheduler special-cases ToDelete and calls
// Exists directly instead of going through this method (spec §4.3 "runs
// whenever any listed entity still exists").
func (d ToDelete) ShouldRun(_ TaskInvocation, _ Cache) (bool, error) {
	return true, nil
}

// PostRun verifies deletions succeeded, if requested.
func (d ToDelete) PostRun(_ TaskInvocation, _ Cache, root string, runErr error) error {
	if runErr != nil || !d.VerifyDeletions {
		return runErr
	}
	if remaining := firstExisting(d.Deletions, root); remaining != "" {
		return withMessage(ErrNotDeleted, remaining)
	}
	return nil
}

// Exists reports whether any entity named by fs exists under root; used by
// ToDelete's ShouldRun semantics (spec §4.3 "runs whenever any listed
// entity still exists").
func (d ToDelete) Exists(root string) bool {
	return firstExisting(d.Deletions, root) != ""
}

// And requires every member condition to agree the task is up to date; it
// runs if any member would run, and forwards PostRun to all members,
// aggregating errors (spec §4.7).
type And struct {
	Conditions []RunCondition
}

// NewAnd validates the combinator has at least two members (spec §3).
func NewAnd(conditions ...RunCondition) (And, error) {
	if len(conditions) < 2 {
		return And{}, ErrCombinatorTooFewMembers
	}
	return And{Conditions: conditions}, nil
}

// ShouldRun reports true if any member reports true.
func (a And) ShouldRun(inv TaskInvocation, cache Cache) (bool, error) {
	any := false
	for _, c := range a.Conditions {
		run, err := c.ShouldRun(inv, cache)
		if err != nil {
			return false, err
		}
		if run {
			any = true
		}
	}
	return any, nil
}

// PostRun forwards to every member, aggregating errors.
func (a And) PostRun(inv TaskInvocation, cache Cache, root string, runErr error) error {
	return postRunAll(a.Conditions, inv, cache, root, runErr)
}

// Or runs if any member would run, identically to And at the ShouldRun
// level; the two differ only in intent (spec names both, distinguished by
// the build author's choice of combinator for readability).
type Or struct {
	Conditions []RunCondition
}

// NewOr validates the combinator has at least two members (spec §3).
func NewOr(conditions ...RunCondition) (Or, error) {
	if len(conditions) < 2 {
		return Or{}, ErrCombinatorTooFewMembers
	}
	return Or{Conditions: conditions}, nil
}

// ShouldRun reports true if any member reports true.
func (o Or) ShouldRun(inv TaskInvocation, cache Cache) (bool, error) {
	for _, c := range o.Conditions {
		run, err := c.ShouldRun(inv, cache)
		if err != nil {
			return false, err
		}
		if run {
			return true, nil
		}
	}
	return false, nil
}

// PostRun forwards to every member, aggregating errors.
func (o Or) PostRun(inv TaskInvocation, cache Cache, root string, runErr error) error {
	return postRunAll(o.Conditions, inv, cache, root, runErr)
}

func postRunAll(conditions []RunCondition, inv TaskInvocation, cache Cache, root string, runErr error) error {
	var errs error
	for _, c := range conditions {
		if err := c.PostRun(inv, cache, root, runErr); err != nil {
			errs = joinErrors(errs, err)
		}
	}
	return errs
}

// firstMissing returns the first path in fs that does not exist under
// root, or "" if every entity exists.
func firstMissing(fs FileSet, root string) string {
	for _, f := range fs.Files {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(f))); err != nil {
			return f
		}
	}
	for _, d := range fs.Dirs {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(d.Path))); err != nil {
			return d.Path
		}
	}
	return ""
}

// firstExisting returns the first path in fs that still exists under
// root, or "" if none do.
func firstExisting(fs FileSet, root string) string {
	for _, f := range fs.Files {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(f))); err == nil {
			return f
		}
	}
	for _, d := range fs.Dirs {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(d.Path))); err == nil {
			return d.Path
		}
	}
	return ""
}
