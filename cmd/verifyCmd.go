package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Validate a test plan without connecting",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgPlan == "" {
			return errors.New("--plan is required (path to YAML)")
		}
		p, err := loadPlan(cfgPlan)
		if err != nil {
			return fmt.Errorf("invalid plan: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Plan OK: %d steps\n", len(p.Steps))
		return nil
	},
}
