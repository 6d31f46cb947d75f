package domain_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"forge/internal/core/domain"
)

func TestDefaultPaths_NestUnderToolDir(t *testing.T) {
	assert.Equal(t, domain.ToolDirName, domain.DefaultToolPath())
	assert.Equal(t, filepath.Join(domain.ToolDirName, domain.HashesDirName), domain.DefaultHashesPath())
	assert.Equal(t, filepath.Join(domain.ToolDirName, domain.TasksDirName), domain.DefaultTasksPath())
	assert.Equal(t, filepath.Join(domain.ToolDirName, domain.ExecutablesDirName), domain.DefaultExecutablesPath())
	assert.Equal(t, filepath.Join(domain.ToolDirName, domain.DebugLogFile), domain.DefaultDebugLogPath())
}
