package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// loadPlan reads and validates a test plan. A receive must follow at least
// one send, only receives carry expectations, and every send needs a
// command.
func loadPlan(path string) (*testPlan, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := &testPlan{}
	if err := yamlUnmarshal(b, p); err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, errors.New("plan.name is required")
	}
	if p.Description == "" {
		return nil, errors.New("plan.description is required")
	}
	if len(p.Steps) == 0 {
		return nil, errors.New("plan contains no steps")
	}
	sent := false
	for i, s := range p.Steps {
		switch s.Action {
		case actionSend:
			if strings.TrimSpace(s.Command) == "" {
				return nil, fmt.Errorf("steps[%d].command is required", i)
			}
			if s.Expect != nil {
				return nil, fmt.Errorf("steps[%d]: expectations belong on a receive step", i)
			}
			sent = true
		case actionReceive:
			if !sent {
				return nil, fmt.Errorf("steps[%d]: receive without a preceding send", i)
			}
		case "":
			return nil, fmt.Errorf("steps[%d].action is required", i)
		default:
			return nil, fmt.Errorf("steps[%d]: unknown action %q", i, s.Action)
		}
		if s.Timeout != "" {
			if _, err := time.ParseDuration(s.Timeout); err != nil {
				return nil, fmt.Errorf("steps[%d].timeout: %w", i, err)
			}
		}
	}
	return p, nil
}
