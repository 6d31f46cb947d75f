// Package tasks renders a build's task registry for the CLI's
// informational flags (spec §6 --show-tasks/--show-task-graph), grounded
// on the teacher's tui/styles.go color palette and internal/ui/style's
// shared brand colors, generalized from the teacher's live-run TUI to a
// static, non-interactive listing.
package tasks

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"

	"forge/internal/core/domain"
	"forge/internal/engine/resolver"
	"forge/internal/ui/style"
)

var (
	nameStyle  = lipgloss.NewStyle().Bold(true).Foreground(style.Iris)
	descStyle  = lipgloss.NewStyle().Foreground(style.Slate)
	phaseStyle = lipgloss.NewStyle().Foreground(style.Yellow)
	depStyle   = lipgloss.NewStyle().Foreground(style.Slate)
)

// sortedNames returns graph's task names alphabetically, for deterministic
// output independent of registration order.
func sortedNames(graph *resolver.Graph) []string {
	names := graph.TaskNames()
	sort.Strings(names)
	return names
}

// RenderList writes one line per task to w: its name, phase and
// description (spec §6 --show-tasks).
func RenderList(w io.Writer, graph *resolver.Graph) {
	for _, name := range sortedNames(graph) {
		task, ok := graph.Task(name)
		if !ok {
			continue
		}
		line := nameStyle.Render(name) + " " + phaseStyle.Render("["+task.Phase.Name+"]")
		if task.Description != "" {
			line += " " + descStyle.Render(task.Description)
		}
		fmt.Fprintln(w, line)
	}
}

// RenderGraph writes each task together with its direct dependencies
// (spec §6 --show-task-graph).
func RenderGraph(w io.Writer, graph *resolver.Graph) {
	for _, name := range sortedNames(graph) {
		task, ok := graph.Task(name)
		if !ok {
			continue
		}
		fmt.Fprintln(w, nameStyle.Render(name))
		for _, dep := range dependencyNames(task) {
			fmt.Fprintln(w, "  "+depStyle.Render("-> "+dep))
		}
	}
}

func dependencyNames(t *domain.Task) []string {
	deps := make([]string, 0, len(t.DependsOn))
	for dep := range t.DependsOn {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	return deps
}
