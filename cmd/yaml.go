package cmd

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func yamlUnmarshal(b []byte, out any) error {
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("yaml unmarshal: %w", err)
	}
	return nil
}

// UnmarshalYAML accepts "cmd" as an alias of "command" and defaults the
// action to send when a command is present.
func (s *planStep) UnmarshalYAML(value *yaml.Node) error {
	type plain planStep
	var aux struct {
		plain `yaml:",inline"`
		Cmd   string `yaml:"cmd"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	*s = planStep(aux.plain)
	if s.Command == "" {
		s.Command = aux.Cmd
	}
	if s.Action == "" && s.Command != "" {
		s.Action = actionSend
	}
	return nil
}
