package clientrun

import (
	"fmt"
	"io"
	"os"

	"github.com/edev/sira/internal/action"
)

// runScript writes Contents to a mktemp file the target user can read, runs
// it as that user via sudo, and removes the file on every exit path
// (spec.md §4.D, grounded on original_source/src/core/action/script.rs,
// whose client::run uses Command::status() so the script's own stdout and
// stderr stream straight through rather than being captured).
func runScript(a *action.ScriptAction, stdout, stderr io.Writer) error {
	f, err := os.CreateTemp("", "sira-script-*")
	if err != nil {
		return &ioError{err: fmt.Errorf("creating script temp file: %w", err)}
	}
	path := f.Name()
	defer os.Remove(path)

	if err := f.Close(); err != nil {
		return &ioError{err: fmt.Errorf("closing script temp file: %w", err)}
	}
	if err := os.Chmod(path, 0o700); err != nil {
		return &ioError{err: fmt.Errorf("chmod script temp file: %w", err)}
	}
	if err := os.WriteFile(path, []byte(a.Contents), 0o700); err != nil {
		return &ioError{err: fmt.Errorf("writing script contents: %w", err)}
	}

	if _, err := captureCommand("chown", a.User, path); err != nil {
		return fmt.Errorf("chown script to %s: %w", a.User, err)
	}

	code, err := commandRunner("sudo", []string{"-u", a.User, path}, nil, stdout, stderr)
	if err != nil {
		return fmt.Errorf("running script as %s: %w", a.User, err)
	}
	if code != 0 {
		return fmt.Errorf("script exited %d", code)
	}
	return nil
}
