package action

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestUnmarshalYAML_Command(t *testing.T) {
	var a Action
	err := yaml.Unmarshal([]byte(`
command:
  argv:
    - [echo, hello]
`), &a)
	require.NoError(t, err)
	require.Equal(t, Command, a.Kind())
	require.Equal(t, [][]string{{"echo", "hello"}}, a.Cmd.Argv)
}

func TestUnmarshalYAML_RejectsMultipleVariants(t *testing.T) {
	var a Action
	err := yaml.Unmarshal([]byte(`
command:
  argv: [[echo, hi]]
upload:
  from: a
  to: b
`), &a)
	require.Error(t, err)
}

func TestMarshalYAML_RoundTrip(t *testing.T) {
	orig := Action{Line: &LineInFileAction{Path: "/etc/x", Line: "y", Pattern: "z"}}
	out, err := yaml.Marshal(orig)
	require.NoError(t, err)

	var decoded Action
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	require.Equal(t, orig, decoded)
}
