package domain

import (
	"reflect"
	"runtime"
	"strings"
)

// Action is the opaque callable a Task wraps. PlainAction and IncrementalAction
// are the two variants named in spec §9 Design Notes ("small sum type").
type Action interface {
	isAction()
}

// PlainAction takes only the invocation's arguments.
type PlainAction func(args []string) error

func (PlainAction) isAction() {}

// IncrementalAction additionally receives the Changeset computed since the
// task's last successful run, for tasks that want to act only on the diff.
type IncrementalAction func(args []string, changes Changeset) error

func (IncrementalAction) isAction() {}

// Changeset describes what changed since a task's last successful run.
type Changeset struct {
	ChangedInputs  []string
	RemovedInputs  []string
	ChangedOutputs []string
	RemovedOutputs []string
}

// Task is a named unit of work with an action, dependencies, a run
// condition and a phase (spec §3).
type Task struct {
	Name             string
	Action           Action
	IsParallelizable bool
	Description      string
	DependsOn        map[string]struct{}
	RunCondition     RunCondition
	ArgsValidator    ArgsValidator
	Phase            Phase
}

// TaskOption mutates a Task under construction.
type TaskOption func(*Task)

// WithName overrides the task's name.
func WithName(name string) TaskOption { return func(t *Task) { t.Name = name } }

// WithDescription sets the task's free-text description.
func WithDescription(d string) TaskOption { return func(t *Task) { t.Description = d } }

// WithDependsOn declares the task's direct dependencies (unordered set).
func WithDependsOn(names ...string) TaskOption {
	return func(t *Task) {
		if t.DependsOn == nil {
			t.DependsOn = make(map[string]struct{}, len(names))
		}
		for _, n := range names {
			t.DependsOn[n] = struct{}{}
		}
	}
}

// WithRunCondition sets the task's run condition. Defaults to AlwaysRun.
func WithRunCondition(c RunCondition) TaskOption { return func(t *Task) { t.RunCondition = c } }

// WithArgsValidator sets the task's argument validator. Defaults to AcceptAny.
func WithArgsValidator(v ArgsValidator) TaskOption { return func(t *Task) { t.ArgsValidator = v } }

// WithPhase sets the task's phase. Defaults to PhaseBuild.
func WithPhase(p Phase) TaskOption { return func(t *Task) { t.Phase = p } }

// WithParallelizable overrides the inferred parallelizability.
func WithParallelizable(v bool) TaskOption { return func(t *Task) { t.IsParallelizable = v } }

// NewTask constructs a Task with an explicit name, applying defaults for
// any field not set through opts.
func NewTask(name string, action Action, opts ...TaskOption) *Task {
	t := &Task{
		Name:          name,
		Action:        action,
		DependsOn:     map[string]struct{}{},
		RunCondition:  AlwaysRun{},
		ArgsValidator: AcceptAny{},
		Phase:         PhaseBuild,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// NewTaskFromFunc builds a Task from a free function, inferring its name
// and parallelizability the way spec §9 Design Notes describes: a package-
// level function's identifier is used as the default name and marks the
// task parallelizable; a closure captured from locals has neither, and
// construction fails unless WithName supplies one explicitly. This
// replaces the teacher-original's reflection over a Dart closure's string
// representation with Go's runtime.FuncForPC, without the "detect
// main___closure" special case spec §9 says to drop.
func NewTaskFromFunc(action PlainAction, opts ...TaskOption) (*Task, error) {
	name, isFree := inferFuncIdentity(action)
	t := NewTask(name, action, opts...)
	if name == "" {
		t.IsParallelizable = false
	} else {
		t.IsParallelizable = isFree
	}
	for _, o := range opts {
		o(t)
	}
	if t.Name == "" {
		return nil, ErrAnonymousActionNeedsName
	}
	return t, nil
}

// inferFuncIdentity returns the function's short identifier and whether it
// is a package-level ("free") function rather than a closure.
func inferFuncIdentity(fn any) (name string, isFree bool) {
	pc := reflect.ValueOf(fn).Pointer()
	full := runtime.FuncForPC(pc).Name()
	if full == "" {
		return "", false
	}

	short := full
	if idx := strings.LastIndex(full, "/"); idx >= 0 {
		short = full[idx+1:]
	}
	if idx := strings.Index(short, "."); idx >= 0 {
		short = short[idx+1:]
	}

	// Closures and method values get compiler-synthesized names containing
	// ".func" (e.g. "pkg.Caller.func1") or a leading "glob..func" for
	// package-level closures; neither is a stable, free-function identity.
	isFree = !strings.Contains(short, ".func") && !strings.HasPrefix(short, "glob..")
	if !isFree {
		return "", false
	}
	return short, true
}

// Validate checks the invariants spec §3 places directly on a Task (name
// non-empty; everything else is checked by the Resolver once the full task
// set is known).
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyTaskName
	}
	return nil
}
