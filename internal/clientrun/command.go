package clientrun

import (
	"fmt"
	"io"

	"github.com/edev/sira/internal/action"
)

// runCommand spawns each argv sequentially with no shell interpretation,
// stopping at the first non-zero exit (spec.md §4.D).
func runCommand(a *action.CommandAction, stdout, stderr io.Writer) error {
	for i, argv := range a.Argv {
		code, err := commandRunner(argv[0], argv[1:], nil, stdout, stderr)
		if err != nil {
			return fmt.Errorf("command[%d] (%s): %w", i, argv[0], err)
		}
		if code != 0 {
			return fmt.Errorf("command[%d] (%s) exited %d", i, argv[0], code)
		}
	}
	return nil
}
