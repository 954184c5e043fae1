// Package clientrun implements sira-client's managed-side state machine
// (spec.md §4.D): READ_FRAME → VERIFY_SIG → DISPATCH → run variant → EXIT.
package clientrun

import (
	"fmt"
	"io"

	"github.com/edev/sira/internal/action"
	"github.com/edev/sira/internal/signing"
	"github.com/edev/sira/internal/wire"
	"gopkg.in/yaml.v3"
)

// Exit codes per spec.md §4.D, plus 5 for the upload-overwrite case (see
// overwriteError).
const (
	ExitOK               = 0
	ExitActionFailure    = 1
	ExitSignatureFailure = 2
	ExitMalformedFrame   = 3
	ExitIOFailure        = 4
	ExitOverwriteRefused = 5
)

// Run reads one frame from stdin, verifies and dispatches it, and returns
// the process exit code. Diagnostics go to stderr; a command action's own
// stdout/stderr are streamed to the caller's stdout/stderr as they run.
func Run(stdin io.Reader, stdout, stderr io.Writer) int {
	frame, err := wire.Decode(stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitMalformedFrame
	}

	verifierPresent, err := signing.Installed("action")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitIOFailure
	}
	signed := len(frame.Signature) > 0

	if err := signing.Enforce(signed, verifierPresent); err != nil {
		fmt.Fprintln(stderr, err)
		return ExitSignatureFailure
	}
	if signing.RequireVerification(signed, verifierPresent) {
		if err := signing.Verify(frame.Payload, frame.Signature, "action"); err != nil {
			fmt.Fprintln(stderr, err)
			return ExitSignatureFailure
		}
	}

	var a action.Action
	if err := yaml.Unmarshal(frame.Payload, &a); err != nil {
		fmt.Fprintln(stderr, err)
		return ExitMalformedFrame
	}

	if err := dispatch(a, stdout, stderr); err != nil {
		fmt.Fprintln(stderr, err)
		switch {
		case isOverwriteError(err):
			return ExitOverwriteRefused
		case isIOError(err):
			return ExitIOFailure
		default:
			return ExitActionFailure
		}
	}
	return ExitOK
}

func dispatch(a action.Action, stdout, stderr io.Writer) error {
	switch a.Kind() {
	case action.Command:
		return runCommand(a.Cmd, stdout, stderr)
	case action.Script:
		return runScript(a.Scr, stdout, stderr)
	case action.LineInFile:
		return runLineInFile(a.Line)
	case action.Upload:
		return runUpload(a.Up)
	default:
		return fmt.Errorf("clientrun: unknown action kind")
	}
}
