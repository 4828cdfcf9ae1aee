package cmd

import (
	"errors"

	"github.com/NalediMadlopha/citrus/internal/sshclient"
)

// endpointConfig builds the client configuration from the global flags.
// Values missing there fall back to defaults, which may be nil.
func endpointConfig(defaults *planEndpoint) (sshclient.Config, error) {
	cfg := sshclient.Config{
		Name:                 cfgName,
		Host:                 cfgHost,
		Port:                 cfgPort,
		User:                 cfgUser,
		Password:             cfgPassword,
		PrivateKeyPath:       cfgKeyPath,
		PrivateKeyPassphrase: cfgPassphrase,
		UseAgent:             cfgUseAgent,
		KnownHosts:           cfgKnownHosts,
		StrictHostChecking:   cfgStrictHost,
		ConnectionTimeout:    cfgConnTimeout,
		CommandTimeout:       cfgCmdTimeout,
		ReplyTimeout:         cfgReplyTimeout,
		Logger:               logger,
	}
	if defaults != nil {
		if cfg.Host == "" {
			cfg.Host = defaults.Host
		}
		if cfg.Port == 0 {
			cfg.Port = defaults.Port
		}
		if cfg.User == "" {
			cfg.User = defaults.User
		}
		if defaults.Name != "" && (cfg.Name == "" || cfg.Name == sshclient.DefaultName) {
			cfg.Name = defaults.Name
		}
	}
	if cfg.Host == "" {
		return cfg, errors.New("--host is required")
	}
	return cfg, nil
}
