// Package sshclient runs remote commands over SSH and hands the results
// back through a correlation store, so the step that sends a request and the
// step that consumes its response can run independently.
package sshclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/NalediMadlopha/citrus/internal/correlation"
	"github.com/NalediMadlopha/citrus/internal/message"
)

// Client sends requests to one SSH endpoint and holds their responses until
// they are received.
//
// Send calls are serialized: a client runs one remote command at a time.
// Receive may be called concurrently with Send and with other Receive calls.
type Client struct {
	cfg        Config
	cred       Credential
	converter  MessageConverter
	replies    *correlation.Manager[*message.Message]
	res        *resources
	clk        clock.Clock
	log        logrus.FieldLogger
	newSession func(*ssh.Client) sessionClient

	mu       sync.Mutex
	sessions *sessionManager
}

// Option customizes a Client.
type Option func(*Client)

// WithConverter replaces the default YAML message converter.
func WithConverter(c MessageConverter) Option {
	return func(cl *Client) { cl.converter = c }
}

// WithCorrelationManager shares a reply store between clients.
func WithCorrelationManager(m *correlation.Manager[*message.Message]) Option {
	return func(cl *Client) { cl.replies = m }
}

// WithClock sets the clock used for command timeouts and reply waits.
func WithClock(clk clock.Clock) Option {
	return func(cl *Client) { cl.clk = clk }
}

// withDialer replaces the transport dialer; tests use it to count or fail dials.
func withDialer(d dialFunc) Option {
	return func(cl *Client) { cl.sessions.dial = d }
}

// New validates cfg and returns a client for it. No connection is opened
// until the first Send.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger.WithFields(logrus.Fields{"endpoint": cfg.Name, "host": cfg.Addr()})
	c := &Client{
		cfg:        cfg,
		cred:       credentialFor(cfg),
		converter:  YAMLConverter{},
		res:        newResources(cfg.Resources),
		clk:        clock.NewClock(),
		log:        log,
		newSession: func(sc *ssh.Client) sessionClient { return sshClientWrapper{sc} },
		sessions: &sessionManager{
			addr:    cfg.Addr(),
			timeout: cfg.ConnectionTimeout,
			dial:    dialSSH,
			log:     log,
		},
	}
	for _, o := range opts {
		o(c)
	}
	if c.replies == nil {
		c.replies = correlation.NewManager[*message.Message](c.clk)
	}
	c.sessions.clk = c.clk
	return c, nil
}

// Name returns the endpoint name.
func (c *Client) Name() string { return c.cfg.Name }

// Credential returns the credential the client authenticates with.
func (c *Client) Credential() Credential { return c.cred }

// Send runs the command described by m and stores the response under a new
// correlation key, which is returned and also recorded in scope. Errors are
// returned to the caller; in that case no response is ever stored for the
// key. The connection is torn down before Send returns, on every path.
func (c *Client) Send(ctx context.Context, m *message.Message, scope *correlation.Scope) (correlation.Key, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.replies.CreateKey(correlation.KeyName(c.cfg.Name), scope)
	log := c.log.WithField("key", key)

	req, err := c.converter.ConvertOutbound(m)
	if err != nil {
		return key, err
	}

	var hostKey ssh.HostKeyCallback
	if c.cfg.StrictHostChecking {
		if hostKey, err = hostKeyCallback(true, c.cfg.KnownHosts, c.res); err != nil {
			return key, err
		}
	}

	user, err := c.remoteUser(req)
	if err != nil {
		return key, err
	}
	log = log.WithField("user", user)

	resp, err := c.execute(ctx, req, user, hostKey)
	if err != nil {
		log.WithError(err).Warn("SSH request failed")
		return key, err
	}

	reply, err := c.converter.ConvertInbound(resp)
	if err != nil {
		return key, err
	}
	reply.SetHeader(message.HeaderUser, user)

	if err := c.replies.Store(key, reply); err != nil {
		return key, err
	}
	log.WithField("exit", resp.ExitCode).Debug("Stored SSH response")
	return key, nil
}

// execute connects, runs req, and disconnects regardless of the outcome.
func (c *Client) execute(ctx context.Context, req Request, user string, hostKey ssh.HostKeyCallback) (Response, error) {
	defer c.sessions.disconnect()

	conn, err := c.sessions.connect(ctx, user, func(u string) (*ssh.ClientConfig, func() error, error) {
		return c.clientConfig(u, hostKey)
	})
	if err != nil {
		return Response{}, err
	}

	c.log.WithFields(logrus.Fields{"user": user, "command": req.Command}).Debug("Executing remote command")
	return runRemoteCommand(ctx, c.newSession(conn), req, c.cfg.CommandTimeout, c.clk)
}

// clientConfig assembles auth and host key checking for a new connection.
func (c *Client) clientConfig(user string, hostKey ssh.HostKeyCallback) (*ssh.ClientConfig, func() error, error) {
	auths, release, err := authMethods(c.cred, c.res)
	if err != nil {
		return nil, nil, err
	}
	if hostKey == nil {
		if hostKey, err = hostKeyCallback(c.cfg.StrictHostChecking, c.cfg.KnownHosts, c.res); err != nil {
			if release != nil {
				_ = release()
			}
			return nil, nil, err
		}
	}
	return &ssh.ClientConfig{
		User:            user,
		Auth:            auths,
		HostKeyCallback: hostKey,
		Timeout:         c.cfg.ConnectionTimeout,
	}, release, nil
}

// remoteUser resolves the identity for req: the request's user, then the
// endpoint default.
func (c *Client) remoteUser(req Request) (string, error) {
	if u := strings.TrimSpace(req.User); u != "" {
		return u, nil
	}
	if u := strings.TrimSpace(c.cfg.User); u != "" {
		return u, nil
	}
	return "", fmt.Errorf("%w: no user given for connecting to SSH server", ErrConfiguration)
}

// Receive waits for the response of the last request sent in scope, up to
// the configured reply timeout.
func (c *Client) Receive(ctx context.Context, scope *correlation.Scope) (*message.Message, error) {
	return c.ReceiveTimeout(ctx, scope, c.cfg.ReplyTimeout)
}

// ReceiveTimeout is like Receive with an explicit wait.
func (c *Client) ReceiveTimeout(ctx context.Context, scope *correlation.Scope, timeout time.Duration) (*message.Message, error) {
	key, err := c.replies.Key(correlation.KeyName(c.cfg.Name), scope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReplyTimeout, err)
	}
	return c.ReceiveKey(ctx, key, timeout)
}

// ReceiveKey waits up to timeout for the response stored under key. A
// non-positive timeout selects the configured reply timeout. The only
// error it returns wraps ErrReplyTimeout.
func (c *Client) ReceiveKey(ctx context.Context, key correlation.Key, timeout time.Duration) (*message.Message, error) {
	if timeout <= 0 {
		timeout = c.cfg.ReplyTimeout
	}
	m, err := c.replies.Find(ctx, key, timeout)
	if err != nil {
		if !errors.Is(err, ErrReplyTimeout) {
			err = fmt.Errorf("%w: %v", ErrReplyTimeout, err)
		}
		return nil, fmt.Errorf("action timeout while receiving synchronous reply message from ssh server: %w", err)
	}
	return m, nil
}

// Disconnect closes the connection, if any. It is idempotent.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions.disconnect()
}

// Close disconnects and removes temporary copies of classpath resources.
func (c *Client) Close() error {
	c.Disconnect()
	return c.res.cleanup()
}
