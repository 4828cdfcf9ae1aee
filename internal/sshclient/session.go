package sshclient

import (
	"context"
	"fmt"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
)

// keepaliveRequest is sent to probe whether a cached connection still works.
// Servers answer unknown global requests with a failure reply, which is
// enough to prove the transport is up.
const keepaliveRequest = "keepalive@openssh.com"

// clientConfigFunc builds the SSH client configuration for a new connection.
// The returned release func, if non-nil, frees resources tied to it.
type clientConfigFunc func(user string) (*ssh.ClientConfig, func() error, error)

// sessionManager owns at most one live SSH connection.
type sessionManager struct {
	addr    string
	timeout time.Duration
	dial    dialFunc
	clk     clock.Clock
	log     logrus.FieldLogger

	client  *ssh.Client
	user    string
	release func() error
}

// connect returns the live connection for user, dialing a new one when there
// is none, when it dropped, or when it belongs to another user.
func (m *sessionManager) connect(ctx context.Context, user string, newConfig clientConfigFunc) (*ssh.Client, error) {
	if m.client != nil {
		if m.user == user && m.alive() {
			return m.client, nil
		}
		m.log.WithField("user", m.user).Debug("Dropping stale SSH connection")
		m.disconnect()
	}

	cfg, release, err := newConfig(user)
	if err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{"addr": m.addr, "user": user}).Debug("Connecting via SSH")
	c, err := m.dial(ctx, m.addr, cfg, m.timeout)
	if err != nil {
		if release != nil {
			_ = release()
		}
		return nil, fmt.Errorf("%w: cannot connect via SSH to %s: %v", ErrConnection, m.addr, err)
	}
	m.client, m.user, m.release = c, user, release
	return c, nil
}

// alive probes the cached connection.
func (m *sessionManager) alive() bool {
	ch := make(chan error, 1)
	c := m.client
	go func() {
		_, _, err := c.SendRequest(keepaliveRequest, true, nil)
		ch <- err
	}()

	var deadline <-chan time.Time
	if m.timeout > 0 {
		tm := m.clk.NewTimer(m.timeout)
		defer tm.Stop()
		deadline = tm.C()
	}
	select {
	case err := <-ch:
		return err == nil
	case <-deadline:
		return false
	}
}

// connected reports whether a connection is currently held.
func (m *sessionManager) connected() bool {
	return m.client != nil
}

// disconnect closes the connection if there is one. It is safe to call any
// number of times, including after a failed connect.
func (m *sessionManager) disconnect() {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			m.log.WithError(err).Debug("Closing SSH connection")
		}
		m.client = nil
		m.user = ""
	}
	if m.release != nil {
		_ = m.release()
		m.release = nil
	}
}
