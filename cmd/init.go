package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/NalediMadlopha/citrus/internal/sshclient"
)

// errConfigFile holds the failure to read --config; it is reported by the
// root command's pre-run hook since OnInitialize cannot return errors.
var errConfigFile error

// init configures the persistent flags, binds them to viper for environment
// and config-file overrides, and registers the subcommands.
func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgConfigFile, "config", "", "Optional YAML config file with flag values")
	pf.StringVar(&cfgName, "name", sshclient.DefaultName, "Endpoint name; also names the correlation key")
	pf.StringVarP(&cfgHost, "host", "H", "", "SSH server host")
	pf.IntVarP(&cfgPort, "port", "p", 0, "SSH server port (0 means 22)")
	pf.StringVarP(&cfgUser, "user", "u", "", "Default remote user")
	pf.StringVar(&cfgPassword, "password", "", "SSH password (or set CITRUS_SSH_PASSWORD)")
	pf.StringVar(&cfgKeyPath, "key", "", "Private key path; classpath: resolves against the working directory")
	pf.StringVar(&cfgPassphrase, "passphrase", "", "Private key passphrase (or set CITRUS_SSH_PASSPHRASE)")
	pf.BoolVar(&cfgUseAgent, "agent", false, "Use the running ssh-agent when no key or password is given")
	pf.StringVar(&cfgKnownHosts, "known-hosts", "", "known_hosts file used with --strict-host-key")
	pf.BoolVar(&cfgStrictHost, "strict-host-key", false, "Require host key verification against --known-hosts")
	pf.DurationVar(&cfgConnTimeout, "conn-timeout", sshclient.DefaultConnectionTimeout, "Connection timeout")
	pf.DurationVar(&cfgCmdTimeout, "cmd-timeout", sshclient.DefaultCommandTimeout, "Per-command timeout. 0 disables")
	pf.DurationVar(&cfgReplyTimeout, "reply-timeout", sshclient.DefaultReplyTimeout, "How long a receive waits for a reply")
	pf.StringVarP(&cfgPlan, "plan", "f", "", "Path to YAML test plan")
	pf.StringVarP(&cfgOutPath, "out", "o", "", "Path to YAML report")
	pf.BoolVarP(&cfgVerbose, "verbose", "v", false, "Log connection lifecycle at debug level")

	bindFlags()

	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(verifyCmd)
}

// boundFlags are the persistent flags viper resolves against environment
// variables and the config file.
var boundFlags = []string{
	"name", "host", "port", "user", "password", "key", "passphrase", "agent", "known-hosts",
	"strict-host-key", "conn-timeout", "cmd-timeout", "reply-timeout", "plan", "out", "verbose",
}

// bindFlags registers boundFlags with viper. Environment variables carry the
// CITRUS_SSH prefix with dashes turned into underscores, so --known-hosts is
// read from CITRUS_SSH_KNOWN_HOSTS.
func bindFlags() {
	pf := rootCmd.PersistentFlags()
	for _, name := range boundFlags {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// initConfig reads the optional config file and copies environment and file
// overrides back into the cfg* variables.
func initConfig() {
	errConfigFile = nil
	if cfgConfigFile != "" {
		viper.SetConfigFile(cfgConfigFile)
		if err := viper.ReadInConfig(); err != nil {
			errConfigFile = fmt.Errorf("failed to read config %s: %w", cfgConfigFile, err)
			return
		}
	}

	if v := viper.GetString("name"); v != "" {
		cfgName = v
	}
	if v := viper.GetString("host"); v != "" {
		cfgHost = v
	}
	if v := viper.GetInt("port"); v != 0 {
		cfgPort = v
	}
	if v := viper.GetString("user"); v != "" {
		cfgUser = v
	}
	if v := viper.GetString("password"); v != "" {
		cfgPassword = v
	}
	if v := viper.GetString("key"); v != "" {
		cfgKeyPath = v
	}
	if v := viper.GetString("passphrase"); v != "" {
		cfgPassphrase = v
	}
	if v := viper.GetString("known-hosts"); v != "" {
		cfgKnownHosts = v
	}
	if v := viper.GetString("plan"); v != "" {
		cfgPlan = v
	}
	if v := viper.GetString("out"); v != "" {
		cfgOutPath = v
	}
	if viper.IsSet("conn-timeout") {
		cfgConnTimeout = viper.GetDuration("conn-timeout")
	}
	if viper.IsSet("cmd-timeout") {
		cfgCmdTimeout = viper.GetDuration("cmd-timeout")
	}
	if viper.IsSet("reply-timeout") {
		cfgReplyTimeout = viper.GetDuration("reply-timeout")
	}
	// Booleans
	if viper.IsSet("agent") {
		cfgUseAgent = viper.GetBool("agent")
	}
	if viper.IsSet("strict-host-key") {
		cfgStrictHost = viper.GetBool("strict-host-key")
	}
	if viper.IsSet("verbose") {
		cfgVerbose = viper.GetBool("verbose")
	}
}
