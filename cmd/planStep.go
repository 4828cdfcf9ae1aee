package cmd

import (
	"fmt"
	"strings"
	"time"
)

// planStep is one send or receive. A send runs Command (with Args quoted)
// on the endpoint; a receive collects the reply of the latest send and
// checks Expect against it.
type planStep struct {
	Title   string   `yaml:"title,omitempty"`
	Action  string   `yaml:"action"`
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
	Stdin   string   `yaml:"stdin,omitempty"`
	// User overrides the endpoint's default remote user for a send.
	User string `yaml:"user,omitempty"`
	// Timeout like "30s". For a send it bounds the command, for a receive
	// the wait for the reply.
	Timeout string       `yaml:"timeout,omitempty"`
	Expect  *expectation `yaml:"expect,omitempty"`
}

// expectation lists the checks a receive applies to the reply. Unset fields
// are not checked.
type expectation struct {
	Exit           *int    `yaml:"exit,omitempty"`
	Stdout         *string `yaml:"stdout,omitempty"`
	StdoutContains string  `yaml:"stdout_contains,omitempty"`
	Stderr         *string `yaml:"stderr,omitempty"`
}

// line renders the command with safely quoted arguments.
func (s *planStep) line() string {
	if len(s.Args) == 0 {
		return s.Command
	}
	quoted := make([]string, 0, len(s.Args))
	for _, a := range s.Args {
		quoted = append(quoted, shellQuote(a))
	}
	return strings.TrimSpace(s.Command + " " + strings.Join(quoted, " "))
}

// timeout returns the step's own timeout, or def when none or an invalid one
// is given.
func (s *planStep) timeout(def time.Duration) time.Duration {
	if s.Timeout == "" {
		return def
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return def
	}
	return d
}

// label is the progress and report title of the step.
func (s *planStep) label() string {
	if t := strings.TrimSpace(s.Title); t != "" {
		return t
	}
	if s.Action == actionReceive {
		return actionReceive
	}
	return s.line()
}

// check compares the reply fields with e and returns one message per
// mismatch.
func (e *expectation) check(stdout, stderr string, exit int) []string {
	if e == nil {
		return nil
	}
	var failures []string
	if e.Exit != nil && *e.Exit != exit {
		failures = append(failures, fmt.Sprintf("exit code: expected %d, got %d", *e.Exit, exit))
	}
	if e.Stdout != nil && *e.Stdout != stdout {
		failures = append(failures, fmt.Sprintf("stdout: expected %q, got %q", *e.Stdout, stdout))
	}
	if e.StdoutContains != "" && !strings.Contains(stdout, e.StdoutContains) {
		failures = append(failures, fmt.Sprintf("stdout: expected to contain %q, got %q", e.StdoutContains, stdout))
	}
	if e.Stderr != nil && *e.Stderr != stderr {
		failures = append(failures, fmt.Sprintf("stderr: expected %q, got %q", *e.Stderr, stderr))
	}
	return failures
}
