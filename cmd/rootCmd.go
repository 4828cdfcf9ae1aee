package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// logger receives endpoint lifecycle logs. --verbose lowers its level to
// debug.
var logger = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "citrus-ssh",
	Short: "Send commands to an SSH server and check the correlated replies",
	Long: "Runs commands on a remote host over SSH. Each request is tagged with a correlation key so a " +
		"later receive step can collect the matching stdout, stderr and exit code.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if errConfigFile != nil {
			return errConfigFile
		}
		configureLogging()
		return nil
	},
}

func configureLogging() {
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if cfgVerbose {
		logger.SetLevel(logrus.DebugLevel)
		return
	}
	logger.SetLevel(logrus.WarnLevel)
}
