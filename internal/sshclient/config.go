package sshclient

import (
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Defaults applied by Config.withDefaults.
const (
	DefaultName              = "ssh-client"
	DefaultPort              = 22
	DefaultConnectionTimeout = time.Minute
	DefaultCommandTimeout    = 5 * time.Minute
	DefaultReplyTimeout      = 5 * time.Second
)

// Config describes one SSH endpoint.
type Config struct {
	// Name identifies the endpoint; correlation keys are scoped by it.
	Name string

	Host string
	Port int
	// User is the default remote user. A "user" header on the request
	// message takes precedence.
	User string

	Password string
	// PrivateKeyPath points to a PEM or OpenSSH private key. A "classpath:"
	// prefix resolves the rest of the path against Resources.
	PrivateKeyPath       string
	PrivateKeyPassphrase string
	// UseAgent allows the running ssh-agent (SSH_AUTH_SOCK) as a credential
	// when neither a private key nor a password is configured.
	UseAgent bool

	// KnownHosts is a known_hosts file, "classpath:" prefix allowed.
	// Required when StrictHostChecking is set.
	KnownHosts         string
	StrictHostChecking bool

	// ConnectionTimeout bounds TCP connect plus SSH handshake.
	ConnectionTimeout time.Duration
	// CommandTimeout bounds one remote command. Zero disables the bound.
	CommandTimeout time.Duration
	// ReplyTimeout is the default wait of Receive.
	ReplyTimeout time.Duration

	// Resources backs "classpath:" paths. Nil means the working directory.
	Resources fs.FS
	// Logger receives lifecycle logs. Nil means the logrus standard logger.
	Logger logrus.FieldLogger
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.ConnectionTimeout == 0 {
		c.ConnectionTimeout = DefaultConnectionTimeout
	}
	if c.ReplyTimeout == 0 {
		c.ReplyTimeout = DefaultReplyTimeout
	}
	if c.Resources == nil {
		c.Resources = os.DirFS(".")
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	return c
}

// Validate checks the settings that do not depend on a request.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("%w: host is required", ErrConfiguration)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port %d", ErrConfiguration, c.Port)
	}
	if c.ConnectionTimeout < 0 || c.CommandTimeout < 0 || c.ReplyTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrConfiguration)
	}
	return nil
}

// Addr returns host:port.
func (c Config) Addr() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}
