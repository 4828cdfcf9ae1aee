package sshclient

import (
	"fmt"
	"io"

	"golang.org/x/crypto/ssh"
)

// sessionClient opens exec channels.
type sessionClient interface {
	NewSession() (session, error)
}

// session is one exec channel.
type session interface {
	// Bind attaches the sinks for standard output and error. It must be
	// called before Start.
	Bind(stdout, stderr io.Writer)
	StdinPipe() (io.WriteCloser, error)
	Start(cmd string) error
	Wait() error
	Close() error
}

// sshClientWrapper adapts *ssh.Client to sessionClient
type sshClientWrapper struct {
	c *ssh.Client
}

// NewSession opens a new exec channel on the underlying *ssh.Client.
func (w sshClientWrapper) NewSession() (session, error) {
	if w.c == nil {
		return nil, fmt.Errorf("nil ssh client")
	}
	s, err := w.c.NewSession()
	if err != nil {
		return nil, err
	}
	return sshSessionWrapper{s}, nil
}

// sshSessionWrapper adapts *ssh.Session to session.
type sshSessionWrapper struct {
	s *ssh.Session
}

func (w sshSessionWrapper) Bind(stdout, stderr io.Writer) {
	w.s.Stdout = stdout
	w.s.Stderr = stderr
}

func (w sshSessionWrapper) StdinPipe() (io.WriteCloser, error) { return w.s.StdinPipe() }
func (w sshSessionWrapper) Start(cmd string) error            { return w.s.Start(cmd) }
func (w sshSessionWrapper) Wait() error                       { return w.s.Wait() }
func (w sshSessionWrapper) Close() error                      { return w.s.Close() }
