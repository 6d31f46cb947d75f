package domain

import "path/filepath"

// On-disk layout constants for the engine's project directory (spec §4.3).
const (
	// ForgefileName is the name of the project's ambient configuration file,
	// searched for by walking up from the working directory (spec §4.3).
	ForgefileName = "forgefile.yaml"

	// ToolDirName is the name of the engine's per-project metadata directory.
	ToolDirName = ".forge_tool"

	// HashesDirName holds one file per cached entity, scoped by key.
	HashesDirName = "hashes"

	// TasksDirName holds one file per task's last successful invocation.
	TasksDirName = "tasks"

	// ExecutablesDirName holds compiled build-script executables (external
	// collaborator; the engine reserves the path but does not populate it).
	ExecutablesDirName = "executables"

	// DebugLogFile is the name of the debug log file.
	DebugLogFile = "debug.log"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultToolPath returns the default root directory for engine metadata.
func DefaultToolPath() string {
	return ToolDirName
}

// DefaultHashesPath returns the default path for the per-entity hash store.
func DefaultHashesPath() string {
	return filepath.Join(ToolDirName, HashesDirName)
}

// DefaultTasksPath returns the default path for per-task invocation records.
func DefaultTasksPath() string {
	return filepath.Join(ToolDirName, TasksDirName)
}

// DefaultExecutablesPath returns the default path for compiled build scripts.
func DefaultExecutablesPath() string {
	return filepath.Join(ToolDirName, ExecutablesDirName)
}

// DefaultDebugLogPath returns the default path for the debug log.
func DefaultDebugLogPath() string {
	return filepath.Join(ToolDirName, DebugLogFile)
}
