// Package config loads a project's ambient forgefile.yaml and translates
// its declarative tasks into the Go API described by spec §9: a
// resolver.Graph ready for Resolve, with each TaskDTO's Cmd wired to a
// domain.PlainAction backed by internal/adapters/shell.
package config

import (
	"context"
	"os"
	"path/filepath"

	"forge/internal/adapters/shell"
	"forge/internal/core/domain"
	"forge/internal/core/ports"
	"forge/internal/engine/resolver"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader discovers and parses a project's forgefile.yaml.
type Loader struct {
	Logger ports.Logger
	FS     FileSystem
}

// NewLoader creates a Loader backed by the real filesystem.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, FS: NewOSFS()}
}

// NewLoaderWithFS creates a Loader backed by an arbitrary FileSystem, for
// tests.
func NewLoaderWithFS(logger ports.Logger, fsys FileSystem) *Loader {
	return &Loader{Logger: logger, FS: fsys}
}

// DiscoverRoot walks up from cwd looking for a forgefile.yaml, the way the
// teacher's Loader walks up looking for a same.yaml/same.work.yaml.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ForgefileName)
		if _, err := l.FS.Stat(candidate); err == nil {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}
	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

// Load discovers and parses the forgefile.yaml reachable from cwd.
func (l *Loader) Load(cwd string) (*Forgefile, string, error) {
	root, err := l.DiscoverRoot(cwd)
	if err != nil {
		return nil, "", err
	}

	path := filepath.Join(root, domain.ForgefileName)
	raw, err := l.FS.ReadFile(path)
	if err != nil {
		return nil, "", zerr.With(zerr.Wrap(err, "failed to read forgefile"), "path", path)
	}

	var file Forgefile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, "", zerr.With(domain.WithReason(domain.ErrConfigParseFailed, err.Error()), "path", path)
	}
	if file.Root == "" {
		file.Root = root
	}

	return &file, root, nil
}

// BuildGraph translates file's declarative tasks into a resolver.Graph,
// registering any custom phases first so later phase lookups succeed.
func BuildGraph(file *Forgefile, phases *domain.PhaseRegistry, executor *shell.Executor) (*resolver.Graph, error) {
	for _, p := range file.Phases {
		if err := phases.Register(domain.Phase{Index: p.Index, Name: p.Name}); err != nil {
			return nil, zerr.With(err, "phase", p.Name)
		}
	}

	graph := resolver.NewGraph(phases)
	for name, dto := range file.Tasks {
		task, err := buildTask(name, dto, file.Root, phases, executor)
		if err != nil {
			return nil, zerr.With(err, "task", name)
		}
		if err := graph.AddTask(task); err != nil {
			return nil, err
		}
	}
	return graph, nil
}

func buildTask(name string, dto *TaskDTO, root string, phases *domain.PhaseRegistry, executor *shell.Executor) (*domain.Task, error) {
	if len(dto.Cmd) == 0 && len(dto.DependsOn) == 0 {
		return nil, domain.ErrEmptyTask
	}

	phase, err := resolvePhase(dto.Phase, phases)
	if err != nil {
		return nil, err
	}

	opts := []domain.TaskOption{
		domain.WithDescription(dto.Description),
		domain.WithDependsOn(dto.DependsOn...),
		domain.WithPhase(phase),
		domain.WithParallelizable(dto.Parallelizable),
		domain.WithRunCondition(runConditionFor(dto)),
	}

	action := domain.PlainAction(func(args []string) error {
		workDir := dto.WorkingDir
		if workDir == "" {
			workDir = root
		} else if !filepath.IsAbs(workDir) {
			workDir = filepath.Join(root, workDir)
		}
		spec := shell.Spec{
			Command:     append(append([]string{}, dto.Cmd...), args...),
			WorkingDir:  workDir,
			Environment: dto.Environment,
		}
		return executor.Execute(context.Background(), spec, os.Stdout, os.Stderr)
	})

	return domain.NewTask(name, action, opts...), nil
}

func runConditionFor(dto *TaskDTO) domain.RunCondition {
	if len(dto.Inputs) == 0 && len(dto.Outputs) == 0 {
		return domain.AlwaysRun{}
	}
	return domain.OnChanges{
		Inputs:             domain.NewFiles(dto.Inputs...),
		Outputs:            domain.NewFiles(dto.Outputs...),
		VerifyOutputsExist: dto.VerifyOutputsExist,
	}
}

func resolvePhase(name string, phases *domain.PhaseRegistry) (domain.Phase, error) {
	if name == "" {
		return domain.PhaseBuild, nil
	}
	for _, p := range phases.All() {
		if p.Name == name {
			return p, nil
		}
	}
	return domain.Phase{}, zerr.With(domain.ErrPhaseNotRegistered, "phase", name)
}
