package domain

import "time"

// Cache is the interface RunCondition variants use to decide whether a task
// must run and to persist the outcome of a run (spec §4.3). It is declared
// in the domain package, not internal/core/ports, because RunCondition
// logic itself — not just the engine — depends on it; the concrete
// implementation lives in internal/adapters/cas.
type Cache interface {
	// HasChanged reports whether any entity in fs has changed since the
	// last Put under key (spec §4.3 has_changed algorithm). An empty
	// FileSet always reports unchanged.
	HasChanged(fs FileSet, key string) (bool, error)

	// Put refreshes the cached hash of every entity resolved from fs under
	// key, removing entries for entities the FileSet still mentions but
	// that no longer exist.
	Put(fs FileSet, key string) error

	// Remove deletes the cached hash of every entity in fs under key.
	Remove(fs FileSet, key string) error

	// Clean wipes the whole cache (key == "") or only entries under key.
	Clean(key string) error

	// CacheTaskInvocation records inv as the latest successful invocation
	// of its task.
	CacheTaskInvocation(inv TaskInvocation) error

	// HasTaskInvocationChanged reports whether inv's arguments differ from
	// the persisted record, or no record exists.
	HasTaskInvocationChanged(inv TaskInvocation) (bool, error)

	// LatestInvocationTime returns the last-success timestamp recorded for
	// taskName, and false if no record exists.
	LatestInvocationTime(taskName string) (time.Time, bool, error)

	// RemoveTaskInvocation deletes the invocation record for taskName.
	RemoveTaskInvocation(taskName string) error

	// RemoveNotMatching garbage-collects entries whose task name or key is
	// not in the given live sets (spec §4.6 Cache GC).
	RemoveNotMatching(liveTaskNames, liveKeys map[string]struct{}) error

	// Diff reports which entities in fs changed or were removed since the
	// last Put under key, for IncrementalAction's Changeset (spec §3). An
	// entity with no prior record counts as changed, not removed.
	Diff(fs FileSet, key string) (changed, removed []string, err error)
}
