package config

// Forgefile represents the structure of a project's forgefile.yaml: the
// declarative counterpart to Go-API task registration (spec §9 Design
// Notes), mirroring the teacher's Samefile shape but with Cmd-backed
// actions instead of the source's PTY-only shell tasks.
type Forgefile struct {
	Version string              `yaml:"version"`
	Root    string              `yaml:"root"`
	Phases  []PhaseDTO          `yaml:"phases"`
	Tasks   map[string]*TaskDTO `yaml:"tasks"`
}

// PhaseDTO declares a custom phase alongside the built-in setup/build/
// tearDown trio (spec §3).
type PhaseDTO struct {
	Name  string `yaml:"name"`
	Index int32  `yaml:"index"`
}

// TaskDTO represents one task definition in a forgefile. Cmd is run through
// internal/adapters/shell; a task with no Cmd and no DependsOn is rejected
// by BuildGraph since it would do nothing.
type TaskDTO struct {
	Description        string            `yaml:"description"`
	Cmd                []string          `yaml:"cmd"`
	WorkingDir         string            `yaml:"workingDir"`
	Environment        map[string]string `yaml:"environment"`
	DependsOn          []string          `yaml:"dependsOn"`
	Phase              string            `yaml:"phase"`
	Inputs             []string          `yaml:"inputs"`
	Outputs            []string          `yaml:"outputs"`
	VerifyOutputsExist bool              `yaml:"verifyOutputsExist"`
	Parallelizable     bool              `yaml:"parallelizable"`
}
