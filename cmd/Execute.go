package cmd

import (
	"fmt"
	"os"
)

// Execute runs the root command and exits with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		exitFunc(1)
	}
}
