package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

// Exit codes, matching spec §6.
const (
	ExitSuccess            = 0
	ExitGenericFailure     = 1
	ExitBuildFileCompile   = 2
	ExitMissingBuildOrArgs = 4
	ExitInternal           = 22
)

// exitCodes maps a sentinel error to the exit code it should contribute to
// an aggregate failure, per spec §7 ("the process exits with the exit code
// of the first DartleException-kind error encountered, or 1 otherwise").
var exitCodes = map[error]int{}

func withExitCode(err error, code int) error {
	exitCodes[err] = code
	return err
}

// withMessage attaches a human-readable reason to a sentinel error via
// zerr's structured metadata, used by ArgsValidator and similar leaf checks
// that want to explain themselves without minting a new sentinel per case.
func withMessage(sentinel error, reason string) error {
	if reason == "" {
		return sentinel
	}
	return zerr.With(sentinel, "reason", reason)
}

// WithReason is withMessage, exported for callers outside the domain
// package (the engine, adapters) that need to attach context to one of
// this package's sentinels without minting a new one.
func WithReason(sentinel error, reason string) error {
	return withMessage(sentinel, reason)
}

// ExitCodeOf returns the exit code associated with err, walking its chain.
// For a joined aggregate it is the code of the first joined error.
// Unrecognized errors map to ExitGenericFailure.
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if e != nil && e != ErrMultipleExceptions {
				return ExitCodeOf(e)
			}
		}
		return ExitGenericFailure
	}
	for sentinel, code := range exitCodes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return ExitGenericFailure
}

var (
	// Build-configuration errors (surfaced before execution).

	// ErrUnknownTask is returned when an invocation names a task the resolver doesn't know.
	ErrUnknownTask = withExitCode(zerr.New("unknown-task"), ExitMissingBuildOrArgs)
	// ErrUnknownDependency is returned when a task's depends_on references an unresolvable name.
	ErrUnknownDependency = withExitCode(zerr.New("unknown-dependency"), ExitBuildFileCompile)
	// ErrCycleDetected is returned when the dependency graph contains a cycle.
	ErrCycleDetected = withExitCode(zerr.New("cycle-detected"), ExitBuildFileCompile)
	// ErrPhaseInversion is returned when a → b but b.phase.index > a.phase.index.
	ErrPhaseInversion = withExitCode(zerr.New("phase-inversion"), ExitBuildFileCompile)
	// ErrImplicitDependencyRequired is returned when a's inputs intersect b's outputs without a declared dependency.
	ErrImplicitDependencyRequired = withExitCode(zerr.New("implicit-dependency-required"), ExitBuildFileCompile)
	// ErrOutputClash is returned when two tasks' output FileSets intersect.
	ErrOutputClash = withExitCode(zerr.New("output-clash"), ExitBuildFileCompile)
	// ErrDuplicateDirectory is returned when a FileSet contains overlapping directory entries.
	ErrDuplicateDirectory = withExitCode(zerr.New("duplicate-directory"), ExitBuildFileCompile)
	// ErrAbsoluteDirectory is returned when a FileSet directory entry uses an absolute path.
	ErrAbsoluteDirectory = withExitCode(zerr.New("absolute-directory"), ExitBuildFileCompile)
	// ErrAmbiguousTask is returned when a fuzzy task-name match is ambiguous.
	ErrAmbiguousTask = withExitCode(zerr.New("ambiguous-task"), ExitMissingBuildOrArgs)
	// ErrInvalidArgs is returned when an invocation's arguments fail the task's ArgsValidator.
	ErrInvalidArgs = withExitCode(zerr.New("invalid-args"), ExitMissingBuildOrArgs)
	// ErrOrphanArgument is returned when a ':arg' token precedes any task name.
	ErrOrphanArgument = withExitCode(zerr.New("orphan-argument"), ExitMissingBuildOrArgs)
	// ErrDuplicatePhaseIndex is returned when two distinct phases share an index.
	ErrDuplicatePhaseIndex = withExitCode(zerr.New("duplicate-phase-index"), ExitBuildFileCompile)
	// ErrPhaseNotRegistered is returned when a task's phase isn't in the active registry.
	ErrPhaseNotRegistered = withExitCode(zerr.New("phase-not-registered"), ExitBuildFileCompile)
	// ErrEmptyTaskName is returned when a Task has an empty name.
	ErrEmptyTaskName = withExitCode(zerr.New("empty-task-name"), ExitBuildFileCompile)
	// ErrDuplicateTaskName is returned when two tasks share a name within a build.
	ErrDuplicateTaskName = withExitCode(zerr.New("duplicate-task-name"), ExitBuildFileCompile)
	// ErrCombinatorTooFewMembers is returned when And/Or is constructed with fewer than 2 members.
	ErrCombinatorTooFewMembers = withExitCode(zerr.New("combinator-too-few-members"), ExitBuildFileCompile)
	// ErrAnonymousActionNeedsName is returned when a non-free-function action is registered without an explicit name.
	ErrAnonymousActionNeedsName = withExitCode(zerr.New("anonymous-action-needs-name"), ExitBuildFileCompile)
	// ErrNoTargetsSpecified is returned when a build is invoked with no tasks and no configured defaults.
	ErrNoTargetsSpecified = withExitCode(zerr.New("no-targets-specified"), ExitMissingBuildOrArgs)
	// ErrConfigNotFound is returned when no build file can be located.
	ErrConfigNotFound = withExitCode(zerr.New("config-not-found"), ExitMissingBuildOrArgs)
	// ErrConfigParseFailed is returned when the build file cannot be parsed.
	ErrConfigParseFailed = withExitCode(zerr.New("config-parse-failed"), ExitBuildFileCompile)
	// ErrEmptyTask is returned when a declared task has neither a command nor dependencies, so it would do nothing.
	ErrEmptyTask = withExitCode(zerr.New("empty-task"), ExitBuildFileCompile)

	// Run-time task errors.

	// ErrTaskFailed wraps a user action's error.
	ErrTaskFailed = withExitCode(zerr.New("task-failed"), ExitGenericFailure)
	// ErrMissingOutputs is returned when verify_outputs_exist finds a declared output missing after success.
	ErrMissingOutputs = withExitCode(zerr.New("missing-outputs"), ExitGenericFailure)
	// ErrNotDeleted is returned when verify_deletions finds an entity still existing after a ToDelete task.
	ErrNotDeleted = withExitCode(zerr.New("not-deleted"), ExitGenericFailure)
	// ErrCancelled is returned when a suspended action observes cancellation; not a user-visible failure reason.
	ErrCancelled = zerr.New("cancelled")

	// Aggregate.

	// ErrMultipleExceptions wraps more than one error surfaced at once.
	ErrMultipleExceptions = withExitCode(zerr.New("multiple-exceptions"), ExitGenericFailure)

	// Cache / I/O errors, surfaced wrapped by the above where relevant.

	// ErrCacheReadFailed is returned when a cache entry cannot be read.
	ErrCacheReadFailed = zerr.New("failed to read cache entry")
	// ErrCacheWriteFailed is returned when a cache entry cannot be written.
	ErrCacheWriteFailed = zerr.New("failed to write cache entry")
	// ErrHashFileFailed is returned when hashing a file's content fails.
	ErrHashFileFailed = zerr.New("failed to hash file content")
	// ErrStatFailed is returned when stating a path fails.
	ErrStatFailed = zerr.New("failed to stat path")
)

// WrapHashFileFailed wraps a file-hashing I/O error with the path that
// failed, for adapters/fs.
func WrapHashFileFailed(cause error, path string) error {
	return zerr.With(zerr.Wrap(cause, ErrHashFileFailed.Error()), "path", path)
}

// WrapCacheReadFailed wraps a cache-read I/O error with the key that failed.
func WrapCacheReadFailed(cause error, key string) error {
	return zerr.With(zerr.Wrap(cause, ErrCacheReadFailed.Error()), "key", key)
}

// WrapCacheWriteFailed wraps a cache-write I/O error with the key that failed.
func WrapCacheWriteFailed(cause error, key string) error {
	return zerr.With(zerr.Wrap(cause, ErrCacheWriteFailed.Error()), "key", key)
}

// WrapStatFailed wraps a stat I/O error with the path that failed.
func WrapStatFailed(cause error, path string) error {
	return zerr.With(zerr.Wrap(cause, ErrStatFailed.Error()), "path", path)
}

// JoinErrors accumulates errors the way the executor collects failures
// across a group: nil operands are dropped, a single remaining error is
// returned as-is, and two or more are wrapped under ErrMultipleExceptions
// (spec §7).
func JoinErrors(errs ...error) error {
	var present []error
	for _, err := range errs {
		if err != nil {
			present = append(present, err)
		}
	}
	switch len(present) {
	case 0:
		return nil
	case 1:
		return present[0]
	default:
		return errors.Join(append([]error{ErrMultipleExceptions}, present...)...)
	}
}
