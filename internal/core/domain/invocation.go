package domain

// TaskInvocation pairs a Task with the concrete arguments a user (or the
// Resolver, for synthetic dependency invocations) supplied for one run
// (spec §3).
type TaskInvocation struct {
	Task           *Task
	Args           []string
	InvocationName string
}

// Validate runs the task's ArgsValidator against Args.
func (i TaskInvocation) Validate() error {
	if i.Task == nil || i.Task.ArgsValidator == nil {
		return nil
	}
	return i.Task.ArgsValidator.Validate(i.Args)
}

// TaskName returns the underlying task's name, or "" if unset.
func (i TaskInvocation) TaskName() string {
	if i.Task == nil {
		return ""
	}
	return i.Task.Name
}
