package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge/internal/core/domain"
)

func TestPhase_Less(t *testing.T) {
	assert.True(t, domain.PhaseSetup.Less(domain.PhaseBuild))
	assert.False(t, domain.PhaseTearDown.Less(domain.PhaseBuild))
}

func TestPhase_Equal(t *testing.T) {
	assert.True(t, domain.PhaseBuild.Equal(domain.Phase{Index: 500, Name: "build"}))
	assert.False(t, domain.PhaseBuild.Equal(domain.Phase{Index: 500, Name: "other"}))
}

func TestPhaseRegistry_SeededWithBuiltins(t *testing.T) {
	r := domain.NewPhaseRegistry()
	assert.True(t, r.Contains(domain.PhaseSetup))
	assert.True(t, r.Contains(domain.PhaseBuild))
	assert.True(t, r.Contains(domain.PhaseTearDown))
}

func TestPhaseRegistry_Register_CustomPhase(t *testing.T) {
	r := domain.NewPhaseRegistry()
	deploy := domain.Phase{Index: 1500, Name: "deploy"}
	require.NoError(t, r.Register(deploy))
	assert.True(t, r.Contains(deploy))
}

func TestPhaseRegistry_Register_ConflictingIndex(t *testing.T) {
	r := domain.NewPhaseRegistry()
	err := r.Register(domain.Phase{Index: 500, Name: "other"})
	assert.ErrorIs(t, err, domain.ErrDuplicatePhaseIndex)
}

func TestPhaseRegistry_Register_SameIndexAndNameIsIdempotent(t *testing.T) {
	r := domain.NewPhaseRegistry()
	assert.NoError(t, r.Register(domain.PhaseBuild))
}

func TestPhaseRegistry_All_OrderedByIndex(t *testing.T) {
	r := domain.NewPhaseRegistry()
	require.NoError(t, r.Register(domain.Phase{Index: 1500, Name: "deploy"}))

	all := r.All()
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Index, all[i].Index)
	}
}
