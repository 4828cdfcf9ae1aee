package cmd

import (
	"bufio"
	"io"
	"time"

	"github.com/NalediMadlopha/citrus/internal/sshclient"
)

// yamlReport is the document run writes: plan metadata, the endpoint it ran
// against, and one result per step.
type yamlReport struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Generated   string           `yaml:"generated"`
	Endpoint    string           `yaml:"endpoint"`
	Passed      bool             `yaml:"passed"`
	Results     []yamlStepResult `yaml:"results"`
}

// yamlStepResult records the outcome of a single step. Reply fields are only
// filled for receives that got a reply.
type yamlStepResult struct {
	Title    string   `yaml:"title,omitempty"`
	Action   string   `yaml:"action"`
	Command  string   `yaml:"command,omitempty"`
	User     string   `yaml:"user,omitempty"`
	Timeout  string   `yaml:"timeout,omitempty"`
	Key      string   `yaml:"key,omitempty"`
	ExitCode *int     `yaml:"exit_code,omitempty"`
	Stdout   string   `yaml:"stdout,omitempty"`
	Stderr   string   `yaml:"stderr,omitempty"`
	Error    string   `yaml:"error,omitempty"`
	Failures []string `yaml:"failures,omitempty"`
}

func (r yamlStepResult) failed() bool {
	return r.Error != "" || len(r.Failures) > 0
}

func newYAMLReport(p *testPlan, endpoint string) *yamlReport {
	return &yamlReport{
		Name:        p.Name,
		Description: p.Description,
		Generated:   time.Now().Format(time.RFC3339),
		Endpoint:    endpoint,
		Passed:      true,
	}
}

func (r *yamlReport) add(res yamlStepResult) {
	if res.failed() {
		r.Passed = false
	}
	r.Results = append(r.Results, res)
}

// failures counts the failed steps.
func (r *yamlReport) failures() int {
	n := 0
	for _, res := range r.Results {
		if res.failed() {
			n++
		}
	}
	return n
}

func writeYAMLReport(w io.Writer, r *yamlReport) error {
	b, err := sshclient.EncodeYAML(r)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(b); err != nil {
		return err
	}
	return bw.Flush()
}
