package action

import (
	"bytes"
	"regexp"

	"gopkg.in/yaml.v3"
)

// varRefRe matches $name or ${name} for any identifier-shaped name.
// Undefined names are left untouched by Compile (spec.md §4.A: "no error is
// raised for undefined variables").
var varRefRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// Compile serializes action to its canonical YAML form and performs variable
// substitution, producing the exact byte payload that will be signed and
// transmitted (spec.md §4.A).
//
// Substitution scans the serialized text exactly once. This is what makes
// the result non-recursive (invariant 8.4): given vars = {a: "$b", b: "x"}
// and a payload containing "$a", the single scan replaces "$a" with the
// literal value "$b" and moves past it — it never revisits that output to
// match "$b" against the b entry, which a naive "do one strings.Replace pass
// per variable, in order" implementation would do whenever a appears before
// b in iteration order.
func Compile(a Action, vars map[string]string) ([]byte, error) {
	raw, err := canonicalYAML(a)
	if err != nil {
		return nil, err
	}

	out := varRefRe.ReplaceAllStringFunc(string(raw), func(match string) string {
		name := varRefRe.FindStringSubmatch(match)
		// name[1] is the ${name} form; name[2] is the $name form.
		key := name[1]
		if key == "" {
			key = name[2]
		}
		if v, ok := vars[key]; ok {
			return v
		}
		return match
	})

	return []byte(out), nil
}

func canonicalYAML(a Action) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(a); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
