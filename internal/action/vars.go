package action

// EffectiveVars computes the variable map for one HostAction compilation:
// the task's vars overlaid by the manifest's vars, manifest winning on
// conflict (spec.md §3, "Variable scope"; decided in favor of the newer
// manifest-wins wording per SPEC_FULL.md's Open Question decisions).
//
// The result is built by iterating task vars first (in map order, which Go
// does not guarantee, but compile's substitution is insertion-order
// independent for any key that appears at most once per source) and then
// overlaying manifest vars, so a key present in both ends up with the
// manifest's value.
func EffectiveVars(task *Task, manifest *Manifest) map[string]string {
	out := make(map[string]string, len(task.Vars)+len(manifest.Vars))
	for k, v := range task.Vars {
		out[k] = v
	}
	for k, v := range manifest.Vars {
		out[k] = v
	}
	return out
}
