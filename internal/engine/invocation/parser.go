// Package invocation parses a command line's positional arguments into
// TaskInvocations (spec §4.8): `(TASK (':' ARG)*)*`, with camelCase
// word-prefix fuzzy matching against a build's known task names. Grounded
// on the teacher's cmd/same/commands/run.go shape (cobra.ArbitraryArgs
// feeding straight into task names), generalized with the fuzzy-matching
// grammar the teacher has no analog for, built directly from spec §4.8.
package invocation

import (
	"strings"
	"unicode"

	"forge/internal/core/domain"
)

// Parse splits tokens into one TaskInvocation per TASK segment, resolving
// each task name against graph via camelCase fuzzy matching and validating
// its collected args with the task's ArgsValidator.
func Parse(tokens []string, graph TaskLookup) ([]domain.TaskInvocation, error) {
	if len(tokens) > 0 && strings.HasPrefix(tokens[0], ":") {
		return nil, domain.WithReason(domain.ErrOrphanArgument, tokens[0])
	}

	var invocations []domain.TaskInvocation
	var current *domain.TaskInvocation

	for _, tok := range tokens {
		if strings.HasPrefix(tok, ":") {
			current.Args = append(current.Args, strings.TrimPrefix(tok, ":"))
			continue
		}

		if current != nil {
			invocations = append(invocations, *current)
		}
		task, err := resolveTask(tok, graph)
		if err != nil {
			return nil, err
		}
		current = &domain.TaskInvocation{Task: task, InvocationName: tok}
	}
	if current != nil {
		invocations = append(invocations, *current)
	}

	for i, inv := range invocations {
		if err := inv.Validate(); err != nil {
			return nil, err
		}
		invocations[i] = inv
	}
	return invocations, nil
}

// TaskLookup is the subset of resolver.Graph the parser needs: by-name
// lookup plus the full set of registered task names to fuzzy-match
// against.
type TaskLookup interface {
	Task(name string) (*domain.Task, bool)
	TaskNames() []string
}

// resolveTask finds the task text names, preferring an exact match and
// falling back to camelCase word-prefix fuzzy matching over every
// registered name.
func resolveTask(text string, graph TaskLookup) (*domain.Task, error) {
	if task, ok := graph.Task(text); ok {
		return task, nil
	}

	searchWords := splitCamelCase(text)
	var matches []string
	for _, name := range graph.TaskNames() {
		if camelPrefixMatch(searchWords, splitCamelCase(name)) {
			matches = append(matches, name)
		}
	}

	switch len(matches) {
	case 1:
		task, _ := graph.Task(matches[0])
		return task, nil
	case 0:
		return nil, domain.WithReason(domain.ErrUnknownTask, text)
	default:
		return nil, domain.WithReason(domain.ErrAmbiguousTask, text+" matches "+strings.Join(matches, ", "))
	}
}

// camelPrefixMatch reports whether every search word is a prefix of the
// corresponding candidate word, and the word counts match.
func camelPrefixMatch(search, candidate []string) bool {
	if len(search) != len(candidate) {
		return false
	}
	for i, word := range search {
		if !strings.HasPrefix(strings.ToLower(candidate[i]), strings.ToLower(word)) {
			return false
		}
	}
	return true
}

// splitCamelCase splits s at each uppercase letter, keeping the letter as
// the start of its segment; "buildJar" -> ["build", "Jar"].
func splitCamelCase(s string) []string {
	var words []string
	var cur strings.Builder
	for _, r := range s {
		if unicode.IsUpper(r) && cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	if len(words) == 0 {
		return []string{s}
	}
	return words
}
