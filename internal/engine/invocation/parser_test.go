package invocation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge/internal/core/domain"
	"forge/internal/engine/invocation"
	"forge/internal/engine/resolver"
)

func noop(args []string) error { return nil }

func newGraph(t *testing.T, names ...string) *resolver.Graph {
	t.Helper()
	g := resolver.NewGraph(domain.NewPhaseRegistry())
	for _, name := range names {
		require.NoError(t, g.AddTask(domain.NewTask(name, domain.PlainAction(noop))))
	}
	return g
}

func TestParse_ExactMatch(t *testing.T) {
	g := newGraph(t, "build")
	invocations, err := invocation.Parse([]string{"build"}, g)
	require.NoError(t, err)
	require.Len(t, invocations, 1)
	assert.Equal(t, "build", invocations[0].TaskName())
}

func TestParse_MultipleTasksWithArgs(t *testing.T) {
	g := newGraph(t, "build", "test")
	invocations, err := invocation.Parse([]string{"build", ":release", "test", ":unit"}, g)
	require.NoError(t, err)
	require.Len(t, invocations, 2)
	assert.Equal(t, "build", invocations[0].TaskName())
	assert.Equal(t, []string{"release"}, invocations[0].Args)
	assert.Equal(t, "test", invocations[1].TaskName())
	assert.Equal(t, []string{"unit"}, invocations[1].Args)
}

func TestParse_OrphanArgument(t *testing.T) {
	g := newGraph(t, "build")
	_, err := invocation.Parse([]string{":release"}, g)
	assert.ErrorIs(t, err, domain.ErrOrphanArgument)
}

func TestParse_UnknownTask(t *testing.T) {
	g := newGraph(t, "build")
	_, err := invocation.Parse([]string{"nonexistent"}, g)
	assert.ErrorIs(t, err, domain.ErrUnknownTask)
}

func TestParse_CamelPrefixFuzzyMatch(t *testing.T) {
	g := newGraph(t, "buildJar")
	invocations, err := invocation.Parse([]string{"bJ"}, g)
	require.NoError(t, err)
	require.Len(t, invocations, 1)
	assert.Equal(t, "buildJar", invocations[0].TaskName())
}

func TestParse_AmbiguousFuzzyMatch(t *testing.T) {
	g := newGraph(t, "buildJar", "buildJava")
	_, err := invocation.Parse([]string{"bJ"}, g)
	assert.ErrorIs(t, err, domain.ErrAmbiguousTask)
}

func TestParse_EmptyTokens(t *testing.T) {
	g := newGraph(t, "build")
	invocations, err := invocation.Parse(nil, g)
	require.NoError(t, err)
	assert.Empty(t, invocations)
}
