package manifestio

import (
	"github.com/edev/sira/internal/action"
)

// Plan is the flattened, ordered run plan spec.md §4.G promises: hosts in
// first-mention order across manifests, and within each host, HostActions
// in (manifest order, include order, task order, action order).
type Plan struct {
	Hosts  []string
	ByHost map[string][]action.HostAction
}

// Flatten walks manifests in order and, for each, its included tasks in
// order, producing the Plan the coordinator dispatches from.
func Flatten(manifests []*action.Manifest, fs *FileSet) (*Plan, error) {
	plan := &Plan{ByHost: map[string][]action.HostAction{}}
	seen := map[string]bool{}

	for _, m := range manifests {
		tasks, err := fs.TasksFor(m)
		if err != nil {
			return nil, err
		}
		for _, host := range m.Hosts {
			if !seen[host] {
				seen[host] = true
				plan.Hosts = append(plan.Hosts, host)
			}
		}
		for _, t := range tasks {
			vars := action.EffectiveVars(t, m)
			for _, a := range t.Actions {
				ha := action.HostAction{
					Action:         a,
					SourceManifest: m.Name,
					SourceTask:     t.Name,
					Vars:           vars,
				}
				for _, host := range m.Hosts {
					hostHA := ha
					hostHA.Host = host
					plan.ByHost[host] = append(plan.ByHost[host], hostHA)
				}
			}
		}
	}

	return plan, nil
}
