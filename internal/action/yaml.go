package action

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// wireAction mirrors the YAML shape of an Action: exactly one of its four
// keys present. Decoding through this auxiliary struct, rather than a custom
// node walk, mirrors the teacher's commandEntry.UnmarshalYAML approach of
// decoding into a struct with every possible field and then picking the one
// that was actually set.
type wireAction struct {
	Command    *CommandAction    `yaml:"command,omitempty"`
	Script     *ScriptAction     `yaml:"script,omitempty"`
	LineInFile *LineInFileAction `yaml:"line_in_file,omitempty"`
	Upload     *UploadAction     `yaml:"upload,omitempty"`
}

func (a *Action) UnmarshalYAML(value *yaml.Node) error {
	var w wireAction
	if err := value.Decode(&w); err != nil {
		return err
	}
	*a = Action{Cmd: w.Command, Scr: w.Script, Line: w.LineInFile, Up: w.Upload}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("action: %w", err)
	}
	return nil
}

func (a Action) MarshalYAML() (interface{}, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("action: %w", err)
	}
	return wireAction{Command: a.Cmd, Script: a.Scr, LineInFile: a.Line, Upload: a.Up}, nil
}
