package clientrun

// ioError marks a failure as an I/O failure (spec.md §4.D exit code 4)
// rather than an action-logic failure (exit code 1) — e.g. a temp file that
// could not be created, as opposed to a script that ran and exited
// non-zero.
type ioError struct {
	err error
}

func (e *ioError) Error() string { return e.err.Error() }
func (e *ioError) Unwrap() error { return e.err }

func isIOError(err error) bool {
	_, ok := err.(*ioError)
	return ok
}

// overwriteError marks an upload that refused to clobber an existing
// destination (spec.md §4.D: "fail with a distinct exit code"), mapped to
// exit code 5 — outside the 0-4 taxonomy §4.D enumerates by name, since this
// case has no other listed code of its own.
type overwriteError struct {
	path string
}

func (e *overwriteError) Error() string {
	return "destination " + e.path + " already exists and overwrite is false"
}

func isOverwriteError(err error) bool {
	_, ok := err.(*overwriteError)
	return ok
}
