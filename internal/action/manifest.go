package action

import "fmt"

// Manifest binds the tasks in its Include files (paths resolved relative to
// the manifest file) to hosts, and
// supplies variables that take precedence over a task's own (spec.md §3,
// "Variable scope").
type Manifest struct {
	Name    string            `yaml:"name"`
	Hosts   []string          `yaml:"hosts"`
	Include []string          `yaml:"include,omitempty"`
	Vars    map[string]string `yaml:"vars,omitempty"`

	// Source is the file this manifest was parsed from.
	Source string `yaml:"-"`
}

// Validate checks the invariants spec.md §3/§4.G place on Manifest: a
// non-empty hosts list and well-formed variable names.
func (m *Manifest) Validate() error {
	if len(m.Hosts) == 0 {
		return fmt.Errorf("manifest %q: hosts must be non-empty", m.Name)
	}
	for k := range m.Vars {
		if !varNameRe.MatchString(k) {
			return fmt.Errorf("manifest %q: invalid variable name %q", m.Name, k)
		}
	}
	return nil
}
