package domain

import "fmt"

// ArgsValidator checks a TaskInvocation's arguments before it is scheduled
// (spec §4.8).
type ArgsValidator interface {
	Validate(args []string) error
}

// AcceptAny accepts any argument list, including empty.
type AcceptAny struct{}

// Validate always succeeds.
func (AcceptAny) Validate([]string) error { return nil }

// DenyArgs accepts only an empty argument list.
type DenyArgs struct{}

// Validate fails if any argument is present.
func (DenyArgs) Validate(args []string) error {
	if len(args) != 0 {
		return withMessage(ErrInvalidArgs, "task does not accept arguments")
	}
	return nil
}

// Count accepts argument lists whose length is within [Min, Max] inclusive.
// Max < 0 means unbounded.
type Count struct {
	Min int
	Max int
}

// Validate checks the argument count against [Min, Max].
func (c Count) Validate(args []string) error {
	n := len(args)
	if n < c.Min || (c.Max >= 0 && n > c.Max) {
		msg := fmt.Sprintf("expected between %d and %d arguments, got %d", c.Min, c.Max, n)
		if c.Max < 0 {
			msg = fmt.Sprintf("expected at least %d arguments, got %d", c.Min, n)
		}
		return withMessage(ErrInvalidArgs, msg)
	}
	return nil
}

// Predicate accepts argument lists for which Check returns true, reporting
// HelpMessage otherwise.
type Predicate struct {
	Check       func(args []string) bool
	HelpMessage string
}

// Validate runs the predicate, attaching HelpMessage to ErrInvalidArgs on failure.
func (p Predicate) Validate(args []string) error {
	if p.Check == nil || p.Check(args) {
		return nil
	}
	return withMessage(ErrInvalidArgs, p.HelpMessage)
}
