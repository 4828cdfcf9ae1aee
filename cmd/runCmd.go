package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NalediMadlopha/citrus/internal/correlation"
	"github.com/NalediMadlopha/citrus/internal/message"
	"github.com/NalediMadlopha/citrus/internal/sshclient"
)

// runCmd executes a test plan against one endpoint. Every step runs even
// after a failure; the report lists each outcome and the command fails when
// any step did.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a test plan and write a YAML report",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgPlan == "" {
			return errors.New("--plan is required (path to YAML)")
		}
		if cfgOutPath == "" {
			return errors.New("--out is required (path to report file)")
		}
		p, err := loadPlan(cfgPlan)
		if err != nil {
			return fmt.Errorf("failed to read plan: %w", err)
		}
		cfg, err := endpointConfig(&p.Endpoint)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(cfgOutPath), 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
		outFile, err := os.Create(cfgOutPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = outFile.Close() }()

		client, err := newClientFunc(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		report := newYAMLReport(p, cfg.Addr())
		scope := correlation.NewScope()
		for i := range p.Steps {
			s := &p.Steps[i]
			_, _ = fmt.Fprintf(os.Stderr, "Executing [%d/%d] %s: %s\n", i+1, len(p.Steps), s.Action, s.label())
			res := runStep(cmd.Context(), client, scope, s)
			if res.failed() {
				reason := res.Error
				if reason == "" {
					reason = strings.Join(res.Failures, "; ")
				}
				logger.WithField("step", i+1).Warnf("%s failed: %s", s.Action, reason)
			}
			report.add(res)
		}

		if err := writeYAMLReport(outFile, report); err != nil {
			return fmt.Errorf("failed to write YAML report: %w", err)
		}
		_, _ = fmt.Fprintf(os.Stderr, "Done. Report written to %s\n", cfgOutPath)
		if !report.Passed {
			return fmt.Errorf("%d of %d steps failed", report.failures(), len(p.Steps))
		}
		return nil
	},
}

func runStep(ctx context.Context, client endpoint, scope *correlation.Scope, s *planStep) yamlStepResult {
	if s.Action == actionReceive {
		return runReceive(ctx, client, scope, s)
	}
	return runSend(ctx, client, scope, s)
}

// runSend sends the step's command. A step timeout bounds the whole send,
// connecting included.
func runSend(ctx context.Context, client endpoint, scope *correlation.Scope, s *planStep) yamlStepResult {
	res := yamlStepResult{
		Title:   strings.TrimSpace(s.Title),
		Action:  actionSend,
		Command: s.line(),
		User:    s.User,
	}
	if d := s.timeout(0); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
		res.Timeout = d.String()
	}

	m, err := sshclient.NewRequestMessage(sshclient.Request{Command: s.line(), Stdin: s.Stdin})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if s.User != "" {
		m.SetHeader(message.HeaderUser, s.User)
	}
	key, err := client.Send(ctx, m, scope)
	res.Key = key.String()
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// runReceive collects the reply of the latest send in scope and checks the
// step's expectations against it.
func runReceive(ctx context.Context, client endpoint, scope *correlation.Scope, s *planStep) yamlStepResult {
	d := s.timeout(cfgReplyTimeout)
	res := yamlStepResult{
		Title:   strings.TrimSpace(s.Title),
		Action:  actionReceive,
		Timeout: d.String(),
	}
	reply, err := client.ReceiveTimeout(ctx, scope, d)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	resp, err := sshclient.DecodeResponse(reply)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.User = reply.Header(message.HeaderUser)
	res.ExitCode = &resp.ExitCode
	res.Stdout = resp.Stdout
	res.Stderr = resp.Stderr
	res.Failures = s.Expect.check(resp.Stdout, resp.Stderr, resp.ExitCode)
	return res
}
