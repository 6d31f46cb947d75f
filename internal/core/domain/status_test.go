package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"forge/internal/core/domain"
)

func TestTaskStatus_MustRun(t *testing.T) {
	assert.False(t, domain.StatusUpToDate.MustRun())
	assert.True(t, domain.StatusOutOfDate.MustRun())
	assert.True(t, domain.StatusForced.MustRun())
	assert.True(t, domain.StatusAlwaysRuns.MustRun())
}

func TestTaskWithStatus_MustRun(t *testing.T) {
	tws := domain.TaskWithStatus{Status: domain.StatusUpToDate}
	assert.False(t, tws.MustRun())

	tws.Status = domain.StatusDependencyIsOutOfDate
	assert.True(t, tws.MustRun())
}
