package clientrun

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/edev/sira/internal/action"
)

// runUpload moves a.StagedFrom (the file already staged on this host by the
// control node's SCP transfer) into place at a.To, applying ownership and
// permissions first (spec.md §4.D, grounded on
// original_source/src/bin/sira-client.rs's upload handling). a.From keeps
// naming the original control-node source path throughout, used only to
// derive the destination's basename when To is a directory, exactly as
// sira-client.rs keeps `from` around purely for `file_name()` while moving
// a separately named transfer file into place.
func runUpload(a *action.UploadAction) error {
	if strings.Contains(a.User, ":") {
		return fmt.Errorf("upload user must not contain a colon: %q", a.User)
	}
	if strings.Contains(a.Group, ":") {
		return fmt.Errorf("upload group must not contain a colon: %q", a.Group)
	}

	staged := a.StagedFrom

	if a.Permissions != "" {
		if _, err := captureCommand("chmod", a.Permissions, staged); err != nil {
			return fmt.Errorf("chmod staged upload: %w", err)
		}
	}
	if a.User != "" || a.Group != "" {
		owner := a.User + ":" + a.Group
		if _, err := captureCommand("chown", owner, staged); err != nil {
			return fmt.Errorf("chown staged upload to %s: %w", owner, err)
		}
	}

	dest := a.To
	if strings.HasSuffix(dest, "/") {
		dest = filepath.Join(dest, filepath.Base(a.From))
	}

	if !a.Overwrite {
		if _, err := os.Stat(dest); err == nil {
			return &overwriteError{path: dest}
		}
	}

	if err := os.Rename(staged, dest); err != nil {
		os.Remove(staged)
		return &ioError{err: fmt.Errorf("moving staged upload into place at %s: %w", dest, err)}
	}
	return nil
}
