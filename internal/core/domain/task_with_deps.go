package domain

// TaskWithDeps is an immutable wrapper around a Task carrying its fully
// expanded (transitive) dependency list, already sorted in an order
// consistent with phase and dependency ordering (spec §3). It is produced
// by internal/engine/resolver, which also implements the ordering law
// described in spec §4.4 (the law needs whole-graph knowledge this type
// does not carry on its own).
type TaskWithDeps struct {
	Task         *Task
	Dependencies []string
}

// Name returns the wrapped task's name.
func (t TaskWithDeps) Name() string { return t.Task.Name }

// DependsOnTransitively reports whether name appears in t's expanded
// dependency list.
func (t TaskWithDeps) DependsOnTransitively(name string) bool {
	for _, d := range t.Dependencies {
		if d == name {
			return true
		}
	}
	return false
}
