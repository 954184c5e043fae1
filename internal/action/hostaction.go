package action

// HostAction is the unit the executor pushes to the wire: a single Action
// bound to a specific host, with provenance for logging (spec.md §3).
//
// manifestio.Flatten builds one HostAction per (host, action) for the whole
// plan before the run starts; the executor compiles each one into its
// payload immediately before transmitting it.
type HostAction struct {
	Host           string
	Action         Action
	SourceManifest string // manifest name
	SourceTask     string // task name
	Vars           map[string]string
}

// Compile produces the final action_payload for this HostAction (spec.md
// §4.A).
func (ha HostAction) Compile() ([]byte, error) {
	return Compile(ha.Action, ha.Vars)
}
