package sshclient

import (
	"gopkg.in/yaml.v3"
)

// Request is one remote command.
type Request struct {
	// "command" is preferred; "cmd" also accepted during unmarshal
	Command string `yaml:"command"`
	// Stdin is sent to the command before end of input. Empty means none.
	Stdin string `yaml:"stdin,omitempty"`
	// User overrides the endpoint's default user. It travels as a message
	// header, not in the payload.
	User string `yaml:"-"`
}

// UnmarshalYAML supports both "command" and "cmd" keys.
func (r *Request) UnmarshalYAML(value *yaml.Node) error {
	var aux struct {
		Command string `yaml:"command"`
		Cmd     string `yaml:"cmd"`
		Stdin   string `yaml:"stdin"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	r.Command = aux.Command
	if r.Command == "" {
		r.Command = aux.Cmd
	}
	r.Stdin = aux.Stdin
	return nil
}

// Response is the outcome of one remote command.
type Response struct {
	Stdout   string `yaml:"stdout"`
	Stderr   string `yaml:"stderr"`
	ExitCode int    `yaml:"exit"`
}
