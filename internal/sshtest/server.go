// Package sshtest provides an in-process SSH server for exercising the
// client against a real transport. It supports exec sessions only and hands
// each command to a pluggable Handler.
package sshtest

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Handler runs cmd and returns its exit status. ctx is canceled when the
// client closes the channel. stdin reaches EOF when the client signals end
// of input.
type Handler func(ctx context.Context, cmd string, stdin io.Reader, stdout, stderr io.Writer) int

// Option configures a Server.
type Option func(*Server)

// WithPassword requires password authentication for user.
func WithPassword(user, password string) Option {
	return func(s *Server) { s.passwords[user] = password }
}

// WithAuthorizedKey accepts public-key authentication with key for any user.
func WithAuthorizedKey(key ssh.PublicKey) Option {
	return func(s *Server) { s.keys = append(s.keys, key) }
}

// WithHandler replaces the default command emulation.
func WithHandler(h Handler) Option {
	return func(s *Server) { s.handler = h }
}

// Server is a running test SSH server.
type Server struct {
	ln        net.Listener
	hostKey   ssh.Signer
	handler   Handler
	passwords map[string]string
	keys      []ssh.PublicKey

	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	accepted int
	users    []string
	commands []string

	done chan struct{}
}

// Start listens on listenAddr (for example 127.0.0.1:0) and serves until
// Close. Without WithPassword or WithAuthorizedKey any client is accepted.
func Start(listenAddr string, opts ...Option) (*Server, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return nil, err
	}

	s := &Server{
		hostKey:   signer,
		handler:   DefaultHandler,
		passwords: make(map[string]string),
		conns:     make(map[net.Conn]struct{}),
		done:      make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, err
	}
	s.ln = ln

	cfg := s.serverConfig()
	go func() {
		defer close(s.done)
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.conns[conn] = struct{}{}
			s.accepted++
			s.mu.Unlock()
			go s.handleConn(conn, cfg)
		}
	}()
	return s, nil
}

func (s *Server) serverConfig() *ssh.ServerConfig {
	cfg := &ssh.ServerConfig{}
	if len(s.passwords) == 0 && len(s.keys) == 0 {
		cfg.NoClientAuth = true
	}
	if len(s.passwords) > 0 {
		cfg.PasswordCallback = func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if want, ok := s.passwords[c.User()]; ok && want == string(pass) {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %q", c.User())
		}
	}
	if len(s.keys) > 0 {
		cfg.PublicKeyCallback = func(c ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			for _, k := range s.keys {
				if bytes.Equal(k.Marshal(), key.Marshal()) {
					return nil, nil
				}
			}
			return nil, fmt.Errorf("unknown public key for %q", c.User())
		}
	}
	cfg.AddHostKey(s.hostKey)
	return cfg
}

// Addr returns the listening address.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// HostPort splits Addr.
func (s *Server) HostPort() (string, int) {
	a := s.ln.Addr().(*net.TCPAddr)
	return a.IP.String(), a.Port
}

// HostKey returns the server's public host key.
func (s *Server) HostKey() ssh.PublicKey { return s.hostKey.PublicKey() }

// KnownHostsLine returns a known_hosts entry for this server.
func (s *Server) KnownHostsLine() string {
	return knownhosts.Line([]string{s.Addr()}, s.HostKey())
}

// Accepted returns how many TCP connections were accepted.
func (s *Server) Accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

// OpenConns returns how many connections are still open.
func (s *Server) OpenConns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Users returns the authenticated user of every SSH connection, in order.
func (s *Server) Users() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.users...)
}

// Commands returns every exec command received, in order.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// DropConnections closes every open connection, simulating a network drop.
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.Close()
	}
}

// Close stops accepting, drops open connections and waits for the accept
// loop to end.
func (s *Server) Close() error {
	err := s.ln.Close()
	s.DropConnections()
	<-s.done
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) handleConn(raw net.Conn, cfg *ssh.ServerConfig) {
	defer func() {
		_ = raw.Close()
		s.mu.Lock()
		delete(s.conns, raw)
		s.mu.Unlock()
	}()

	sc, chans, reqs, err := ssh.NewServerConn(raw, cfg)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.users = append(s.users, sc.User())
	s.mu.Unlock()

	go ssh.DiscardRequests(reqs)
	for ch := range chans {
		if ch.ChannelType() != "session" {
			_ = ch.Reject(ssh.UnknownChannelType, "")
			continue
		}
		c, in, err := ch.Accept()
		if err != nil {
			continue
		}
		go s.handleSession(c, in)
	}
}

func (s *Server) handleSession(ch ssh.Channel, in <-chan *ssh.Request) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := false
	for req := range in {
		if req.Type != "exec" || started {
			if req.WantReply {
				_ = req.Reply(false, nil)
			}
			continue
		}
		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			_ = req.Reply(false, nil)
			continue
		}
		started = true
		_ = req.Reply(true, nil)

		s.mu.Lock()
		s.commands = append(s.commands, payload.Command)
		s.mu.Unlock()

		go func(cmd string) {
			code := s.handler(ctx, cmd, ch, ch, ch.Stderr())
			_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{uint32(code)}))
			_ = ch.Close()
		}(payload.Command)
	}
	// The request channel closes once the client closed its side.
	_ = ch.Close()
}
