// Package action implements sira's action model: the four action variants,
// the Task/Manifest/HostAction types that bind them to hosts, and the
// variable compiler described in spec.md §4.A.
package action

import "fmt"

// Kind tags which variant an Action holds.
type Kind int

const (
	Command Kind = iota
	Script
	LineInFile
	Upload
)

func (k Kind) String() string {
	switch k {
	case Command:
		return "command"
	case Script:
		return "script"
	case LineInFile:
		return "line_in_file"
	case Upload:
		return "upload"
	default:
		return "unknown"
	}
}

// CommandAction runs one or more argv vectors in sequence, with no shell
// interpretation. Each inner slice is a single argv: the first element is
// the program, the rest are its arguments.
type CommandAction struct {
	Argv [][]string `yaml:"argv"`
}

// ScriptAction writes Contents to a temporary file and runs it as User.
type ScriptAction struct {
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Contents string `yaml:"contents"`
}

// LineInFileAction edits a single line of Path. Exactly one of Pattern/After
// may be set; see spec.md §4.D for the precedence rules.
type LineInFileAction struct {
	Path    string `yaml:"path"`
	Line    string `yaml:"line"`
	Pattern string `yaml:"pattern,omitempty"`
	After   string `yaml:"after,omitempty"`
	Indent  bool   `yaml:"indent"`
}

// UploadAction copies a file from the control node to a managed host. From
// is the control-node source path throughout compilation and transmission,
// even after staging: sira-client needs it only to name the destination
// file when To is a directory, the way original_source's sira-client.rs
// keeps `from` pointing at the real source purely for `file_name()` while
// moving a separately named staged file into place. StagedFrom is filled in
// by the executor once the file has actually been copied onto the managed
// host; it names the real source for the move/chmod/chown steps.
type UploadAction struct {
	From        string `yaml:"from"`
	StagedFrom  string `yaml:"staged_from,omitempty"`
	To          string `yaml:"to"`
	User        string `yaml:"user,omitempty"`
	Group       string `yaml:"group,omitempty"`
	Permissions string `yaml:"permissions,omitempty"`
	Overwrite   bool   `yaml:"overwrite"`
}

// Action is a closed tagged union over the four variants. Exactly one of
// the pointer fields is non-nil; Kind() reports which. A struct-of-pointers
// shape was chosen over an interface with a type-switch registry because the
// variant set is closed by spec.md §1 ("no plugin interface") — there is no
// need for dynamic dispatch or open extension.
type Action struct {
	Cmd  *CommandAction
	Scr  *ScriptAction
	Line *LineInFileAction
	Up   *UploadAction
}

// Kind reports which variant is populated. It panics on a zero-value Action;
// if more than one variant is set it reports the first of Cmd, Scr, Line, Up.
// Callers are expected to validate on construction (at YAML-decode time)
// rather than at every use site.
func (a Action) Kind() Kind {
	switch {
	case a.Cmd != nil:
		return Command
	case a.Scr != nil:
		return Script
	case a.Line != nil:
		return LineInFile
	case a.Up != nil:
		return Upload
	default:
		panic("action: Kind called on a zero-value Action")
	}
}

// Validate enforces spec.md §3's invariants: exactly one variant tag, and
// each variant's own non-empty-field requirements.
func (a Action) Validate() error {
	set := 0
	for _, ok := range []bool{a.Cmd != nil, a.Scr != nil, a.Line != nil, a.Up != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("action: exactly one variant must be set, found %d", set)
	}

	switch {
	case a.Cmd != nil:
		if len(a.Cmd.Argv) == 0 {
			return fmt.Errorf("action: command.argv must be non-empty")
		}
		for i, v := range a.Cmd.Argv {
			if len(v) == 0 {
				return fmt.Errorf("action: command.argv[%d] must be non-empty", i)
			}
		}
	case a.Scr != nil:
		if a.Scr.Contents == "" {
			return fmt.Errorf("action: script.contents must be non-empty")
		}
		if a.Scr.User == "" {
			a.Scr.User = "root"
		}
	case a.Line != nil:
		if a.Line.Pattern != "" && a.Line.After != "" {
			return fmt.Errorf("action: line_in_file may set pattern or after, not both")
		}
	case a.Up != nil:
		if a.Up.From == "" || a.Up.To == "" {
			return fmt.Errorf("action: upload.from and upload.to are required")
		}
	}
	return nil
}
