package action

import (
	"fmt"
	"regexp"
)

// varNameRe is the identifier pattern spec.md §3 requires of every vars key.
var varNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Task is an ordered list of actions plus the variables available to them.
type Task struct {
	Name    string            `yaml:"name"`
	Actions []Action          `yaml:"actions"`
	Vars    map[string]string `yaml:"vars,omitempty"`

	// Source is the file this task was parsed from, used only for error
	// messages and logging; it is not part of the YAML schema.
	Source string `yaml:"-"`
}

// Validate checks the invariants spec.md §3 places on Task: vars keys match
// the identifier regex.
func (t *Task) Validate() error {
	for k := range t.Vars {
		if !varNameRe.MatchString(k) {
			return fmt.Errorf("task %q: invalid variable name %q", t.Name, k)
		}
	}
	for i, a := range t.Actions {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("task %q: action[%d]: %w", t.Name, i, err)
		}
	}
	return nil
}
