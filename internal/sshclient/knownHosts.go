package sshclient

import (
	"fmt"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// hostKeyCallback returns the host key policy for the endpoint. With strict
// checking it fails closed: no known-hosts source is a configuration error.
func hostKeyCallback(strict bool, knownHostsPath string, res *resources) (ssh.HostKeyCallback, error) {
	if !strict {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	if knownHostsPath == "" {
		return nil, fmt.Errorf("%w: strict host checking is enabled but no known hosts given", ErrConfiguration)
	}
	p, err := res.file(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot find known hosts %s: %v", ErrConfiguration, knownHostsPath, err)
	}
	cb, err := knownhosts.New(p)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot add known hosts from %s: %v", ErrConfiguration, knownHostsPath, err)
	}
	return cb, nil
}
