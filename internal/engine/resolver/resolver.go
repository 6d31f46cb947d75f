// Package resolver builds the ordered, validated task set a build actually
// runs: transitive dependency expansion, cycle detection, phase-ordering
// checks, and the implicit-dependency/output-clash checks spec §4.4
// requires before any task is scheduled. Grounded on the teacher's
// core/domain/domain_test.go (cycle-detection shape and message) and
// engine/scheduler/scheduler.go's collectDependencies BFS, generalized
// with phase and FileSet-intersection checks the teacher's graph has no
// concept of.
package resolver

import (
	"sort"
	"strings"

	"forge/internal/core/domain"
)

// Graph holds a build's full task registry, keyed by name, together with
// the phase registry those tasks are validated against.
type Graph struct {
	tasks  map[string]*domain.Task
	order  []string
	phases *domain.PhaseRegistry

	// deletionAffects records, per task name, the ToDelete tasks whose
	// output overlap with that task's inputs was excused from the
	// implicit-dependency check (spec §4.4) and instead feeds the
	// scheduler's affectedByDeletionTask status (spec §4.5).
	deletionAffects map[string][]string
}

// NewGraph returns an empty Graph validated against phases.
func NewGraph(phases *domain.PhaseRegistry) *Graph {
	return &Graph{
		tasks:           make(map[string]*domain.Task),
		phases:          phases,
		deletionAffects: make(map[string][]string),
	}
}

// DeletionAffects returns the ToDelete tasks whose outputs overlap with
// name's inputs without a declared dependency, as recorded by the most
// recent Resolve call.
func (g *Graph) DeletionAffects(name string) []string {
	return g.deletionAffects[name]
}

// AddTask registers t, rejecting an empty or duplicate name and a phase
// absent from the graph's registry.
func (g *Graph) AddTask(t *domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, exists := g.tasks[t.Name]; exists {
		return withMessage(domain.ErrDuplicateTaskName, t.Name)
	}
	if !g.phases.Contains(t.Phase) {
		return withMessage(domain.ErrPhaseNotRegistered, t.Phase.Name)
	}
	g.tasks[t.Name] = t
	g.order = append(g.order, t.Name)
	return nil
}

// Task returns the task registered under name, if any.
func (g *Graph) Task(name string) (*domain.Task, bool) {
	t, ok := g.tasks[name]
	return t, ok
}

// TaskCount returns the number of tasks registered in the graph.
func (g *Graph) TaskCount() int { return len(g.tasks) }

// TaskNames returns every registered task name, in registration order, for
// the invocation parser's fuzzy-matching pass.
func (g *Graph) TaskNames() []string {
	return append([]string{}, g.order...)
}

// Resolve expands targets into their full transitive dependency set,
// validates the result against spec §4.4's invariants, and returns it in
// an order consistent with phase and dependency ordering: any two tasks
// with no dependency relationship appear in ascending phase-index order,
// and a task always appears after everything it (transitively) depends on.
func (g *Graph) Resolve(targets []string) ([]domain.TaskWithDeps, error) {
	for _, name := range targets {
		if _, ok := g.tasks[name]; !ok {
			return nil, withMessage(domain.ErrUnknownTask, name)
		}
	}

	included, err := g.expand(targets)
	if err != nil {
		return nil, err
	}

	if cyclePath, ok := g.findCycle(included); ok {
		return nil, withMessage(domain.ErrCycleDetected, strings.Join(cyclePath, " -> "))
	}

	if err := g.checkPhaseOrdering(included); err != nil {
		return nil, err
	}
	if err := g.checkFileSetInvariants(included); err != nil {
		return nil, err
	}

	order := g.topoOrder(included)

	deps := make(map[string][]string, len(order))
	for _, name := range order {
		deps[name] = g.transitiveDeps(name, make(map[string]bool))
	}

	out := make([]domain.TaskWithDeps, len(order))
	for i, name := range order {
		out[i] = domain.TaskWithDeps{Task: g.tasks[name], Dependencies: deps[name]}
	}
	return out, nil
}

// expand returns the set of task names reachable from targets via
// DependsOn, erroring on any dependency name absent from the graph.
func (g *Graph) expand(targets []string) (map[string]bool, error) {
	included := make(map[string]bool)
	queue := append([]string{}, targets...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if included[name] {
			continue
		}
		included[name] = true

		task, ok := g.tasks[name]
		if !ok {
			return nil, withMessage(domain.ErrUnknownDependency, name)
		}
		for dep := range task.DependsOn {
			if _, ok := g.tasks[dep]; !ok {
				return nil, withMessage(domain.ErrUnknownDependency, dep)
			}
			if !included[dep] {
				queue = append(queue, dep)
			}
		}
	}
	return included, nil
}

// findCycle runs a white/gray/black DFS over included, returning the first
// cycle found as a printable path.
func (g *Graph) findCycle(included map[string]bool) ([]string, bool) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(included))
	var path []string

	var visit func(name string) ([]string, bool)
	visit = func(name string) ([]string, bool) {
		color[name] = gray
		path = append(path, name)

		for dep := range g.tasks[name].DependsOn {
			if !included[dep] {
				continue
			}
			switch color[dep] {
			case gray:
				start := indexOf(path, dep)
				return append(append([]string{}, path[start:]...), dep), true
			case white:
				if cyc, found := visit(dep); found {
					return cyc, true
				}
			}
		}

		path = path[:len(path)-1]
		color[name] = black
		return nil, false
	}

	names := sortedKeys(included)
	for _, name := range names {
		if color[name] == white {
			if cyc, found := visit(name); found {
				return cyc, true
			}
		}
	}
	return nil, false
}

func indexOf(path []string, name string) int {
	for i, p := range path {
		if p == name {
			return i
		}
	}
	return 0
}

// checkPhaseOrdering enforces spec §4.4: a task may not depend on another
// task scheduled in a later phase.
func (g *Graph) checkPhaseOrdering(included map[string]bool) error {
	for name := range included {
		task := g.tasks[name]
		for dep := range task.DependsOn {
			depTask := g.tasks[dep]
			if depTask.Phase.Index > task.Phase.Index {
				return withMessage(domain.ErrPhaseInversion, name+" ("+task.Phase.Name+") -> "+dep+" ("+depTask.Phase.Name+")")
			}
		}
	}
	return nil
}

// checkFileSetInvariants enforces the output-clash and implicit-dependency
// checks of spec §4.4 over every pair of included tasks, recording a
// deletions-affects relation instead of erroring when one side of an
// uncovered overlap is a domain.ToDelete task (whose Deletions FileSet
// plays the role of "outputs" for this check).
func (g *Graph) checkFileSetInvariants(included map[string]bool) error {
	g.deletionAffects = make(map[string][]string)

	names := sortedKeys(included)
	for i, a := range names {
		aOC, aIsOnChanges := g.tasks[a].RunCondition.(domain.OnChanges)
		aOut, aHasOut := taskOutputs(g.tasks[a])
		for _, b := range names[i+1:] {
			bOC, bIsOnChanges := g.tasks[b].RunCondition.(domain.OnChanges)
			bOut, bHasOut := taskOutputs(g.tasks[b])

			if aIsOnChanges && bIsOnChanges && !aOC.Outputs.Intersect(bOC.Outputs).IsEmpty() {
				return withMessage(domain.ErrOutputClash, a+" & "+b)
			}

			aDepsOnB := g.dependsOnTransitively(a, b)
			bDepsOnA := g.dependsOnTransitively(b, a)
			if aIsOnChanges && bHasOut && !aDepsOnB && !aOC.Inputs.Intersect(bOut).IsEmpty() {
				if err := g.recordOverlap(a, b); err != nil {
					return err
				}
			}
			if bIsOnChanges && aHasOut && !bDepsOnA && !bOC.Inputs.Intersect(aOut).IsEmpty() {
				if err := g.recordOverlap(b, a); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// taskOutputs returns the FileSet a task's condition exposes as "outputs"
// for the implicit-dependency check: an OnChanges task's declared Outputs,
// or a ToDelete task's Deletions.
func taskOutputs(t *domain.Task) (domain.FileSet, bool) {
	switch c := t.RunCondition.(type) {
	case domain.OnChanges:
		return c.Outputs, true
	case domain.ToDelete:
		return c.Deletions, true
	default:
		return domain.EmptyFileSet, false
	}
}

// recordOverlap handles one direction of an uncovered input/output
// overlap: reader's inputs intersect provider's outputs. If provider is a
// ToDelete task, the overlap is expected and recorded as a
// deletions-affects relation; otherwise it is the
// implicit-dependency-required error spec §4.4 names.
func (g *Graph) recordOverlap(reader, provider string) error {
	if _, isDeletion := g.tasks[provider].RunCondition.(domain.ToDelete); isDeletion {
		g.deletionAffects[reader] = append(g.deletionAffects[reader], provider)
		return nil
	}
	return withMessage(domain.ErrImplicitDependencyRequired, reader+" must depend on "+provider)
}

func (g *Graph) dependsOnTransitively(name, candidate string) bool {
	visited := make(map[string]bool)
	var walk func(string) bool
	walk = func(cur string) bool {
		if visited[cur] {
			return false
		}
		visited[cur] = true
		task, ok := g.tasks[cur]
		if !ok {
			return false
		}
		for dep := range task.DependsOn {
			if dep == candidate {
				return true
			}
			if walk(dep) {
				return true
			}
		}
		return false
	}
	return walk(name)
}

func (g *Graph) transitiveDeps(name string, visited map[string]bool) []string {
	task, ok := g.tasks[name]
	if !ok {
		return nil
	}
	var out []string
	for dep := range task.DependsOn {
		if visited[dep] {
			continue
		}
		visited[dep] = true
		out = append(out, dep)
		out = append(out, g.transitiveDeps(dep, visited)...)
	}
	sort.Strings(out)
	return out
}

// topoOrder returns included in an order where any two unrelated tasks
// appear by ascending phase index, and every task follows its dependencies
// (Kahn's algorithm, breaking ties by (phase index, name) at each step).
func (g *Graph) topoOrder(included map[string]bool) []string {
	inDegree := make(map[string]int, len(included))
	dependents := make(map[string][]string, len(included))
	for name := range included {
		inDegree[name] = 0
	}
	for name := range included {
		for dep := range g.tasks[name].DependsOn {
			if included[dep] {
				inDegree[name]++
				dependents[dep] = append(dependents[dep], name)
			}
		}
	}

	var ready []string
	for name, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(included))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			ti, tj := g.tasks[ready[i]], g.tasks[ready[j]]
			if ti.Phase.Index != tj.Phase.Index {
				return ti.Phase.Index < tj.Phase.Index
			}
			return ready[i] < ready[j]
		})
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, dependent := range dependents[next] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}
	return order
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func withMessage(sentinel error, reason string) error {
	return domain.WithReason(sentinel, reason)
}
