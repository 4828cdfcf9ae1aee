package cmd

import (
	"context"
	"time"

	"github.com/NalediMadlopha/citrus/internal/correlation"
	"github.com/NalediMadlopha/citrus/internal/message"
	"github.com/NalediMadlopha/citrus/internal/sshclient"
)

// Version is the CLI version string injected at build time via -ldflags.
var Version = "0.1.0"

// envPrefix prefixes every environment override, e.g. CITRUS_SSH_PASSWORD.
const envPrefix = "CITRUS_SSH"

var (
	// Global configuration populated by flags, environment variables and the
	// optional config file. Declared here so every subcommand sees them.
	cfgConfigFile   string
	cfgName         string
	cfgHost         string
	cfgPort         int
	cfgUser         string
	cfgPassword     string
	cfgKeyPath      string
	cfgPassphrase   string
	cfgUseAgent     bool
	cfgKnownHosts   string
	cfgStrictHost   bool
	cfgConnTimeout  time.Duration
	cfgCmdTimeout   time.Duration
	cfgReplyTimeout time.Duration
	cfgPlan         string
	cfgOutPath      string
	cfgVerbose      bool

	// send subcommand
	sendStdin  string
	sendAsUser string
)

// endpoint is the part of *sshclient.Client the subcommands use.
type endpoint interface {
	Send(ctx context.Context, m *message.Message, scope *correlation.Scope) (correlation.Key, error)
	ReceiveTimeout(ctx context.Context, scope *correlation.Scope, timeout time.Duration) (*message.Message, error)
	Close() error
}

// Allow tests to stub endpoint construction.
var newClientFunc = func(cfg sshclient.Config) (endpoint, error) {
	return sshclient.New(cfg)
}
