package domain

import "sort"

// Phase is a totally ordered grouping that constrains task execution order
// beyond explicit dependencies. Two phases are equal iff both Index and Name
// match; ordering is by Index alone.
type Phase struct {
	Index int32
	Name  string
}

// Built-in phases, matching spec §3.
var (
	PhaseSetup    = Phase{Index: 100, Name: "setup"}
	PhaseBuild    = Phase{Index: 500, Name: "build"}
	PhaseTearDown = Phase{Index: 1000, Name: "tearDown"}
)

// Less reports whether p sorts before other by index.
func (p Phase) Less(other Phase) bool {
	return p.Index < other.Index
}

// Equal reports whether p and other have the same index and name.
func (p Phase) Equal(other Phase) bool {
	return p.Index == other.Index && p.Name == other.Name
}

// PhaseRegistry holds the set of phases known to a build, replacing the
// teacher's process-wide mutable phase list with an explicit value passed
// to resolver.NewGraph (spec §9 Design Notes).
type PhaseRegistry struct {
	phases map[int32]Phase
}

// NewPhaseRegistry creates a registry seeded with the built-in phases.
func NewPhaseRegistry() *PhaseRegistry {
	r := &PhaseRegistry{phases: make(map[int32]Phase)}
	r.mustRegister(PhaseSetup)
	r.mustRegister(PhaseBuild)
	r.mustRegister(PhaseTearDown)
	return r
}

func (r *PhaseRegistry) mustRegister(p Phase) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// Register adds a custom phase. It fails if a different phase already
// occupies the same index, or if (index, name) duplicates an existing
// registration under a different name.
func (r *PhaseRegistry) Register(p Phase) error {
	if existing, ok := r.phases[p.Index]; ok && !existing.Equal(p) {
		return ErrDuplicatePhaseIndex
	}
	r.phases[p.Index] = p
	return nil
}

// Contains reports whether p is registered (spec §4.4 phase-registration check).
func (r *PhaseRegistry) Contains(p Phase) bool {
	existing, ok := r.phases[p.Index]
	return ok && existing.Equal(p)
}

// All returns every registered phase, ordered by index.
func (r *PhaseRegistry) All() []Phase {
	out := make([]Phase, 0, len(r.phases))
	for _, p := range r.phases {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
