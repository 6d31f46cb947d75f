package domain

// joinErrors combines errors the way the engine combines post-run and
// action failures into a multiple-exceptions aggregate (spec §7).
func joinErrors(errs ...error) error {
	return JoinErrors(errs...)
}
