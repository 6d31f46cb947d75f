package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"forge/internal/core/domain"
)

func TestAcceptAny(t *testing.T) {
	assert.NoError(t, domain.AcceptAny{}.Validate(nil))
	assert.NoError(t, domain.AcceptAny{}.Validate([]string{"a"}))
}

func TestDenyArgs(t *testing.T) {
	assert.NoError(t, domain.DenyArgs{}.Validate(nil))
	assert.ErrorIs(t, domain.DenyArgs{}.Validate([]string{"a"}), domain.ErrInvalidArgs)
}

func TestCount_Validate(t *testing.T) {
	c := domain.Count{Min: 1, Max: 2}
	assert.ErrorIs(t, c.Validate(nil), domain.ErrInvalidArgs)
	assert.NoError(t, c.Validate([]string{"a"}))
	assert.NoError(t, c.Validate([]string{"a", "b"}))
	assert.ErrorIs(t, c.Validate([]string{"a", "b", "c"}), domain.ErrInvalidArgs)
}

func TestCount_Validate_UnboundedMax(t *testing.T) {
	c := domain.Count{Min: 1, Max: -1}
	assert.NoError(t, c.Validate([]string{"a", "b", "c", "d"}))
}

func TestPredicate_Validate(t *testing.T) {
	p := domain.Predicate{
		Check:       func(args []string) bool { return len(args) > 0 },
		HelpMessage: "need at least one argument",
	}
	assert.ErrorIs(t, p.Validate(nil), domain.ErrInvalidArgs)
	assert.NoError(t, p.Validate([]string{"x"}))
}

func TestPredicate_Validate_NilCheckAcceptsAnything(t *testing.T) {
	p := domain.Predicate{}
	assert.NoError(t, p.Validate([]string{"anything"}))
}
