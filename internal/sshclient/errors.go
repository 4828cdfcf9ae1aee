package sshclient

import (
	"errors"

	"github.com/NalediMadlopha/citrus/internal/correlation"
)

// Error kinds returned by the client. Callers match them with errors.Is; the
// wrapped message carries the detail.
var (
	// ErrConfiguration reports an unusable endpoint setup: no user, no
	// credential, missing known hosts, or an unreadable private key. It is
	// always raised before any network connection is attempted.
	ErrConfiguration = errors.New("ssh configuration error")
	// ErrConnection reports a transport or authentication failure.
	ErrConnection = errors.New("ssh connection error")
	// ErrExecutionTimeout reports a remote command that did not finish
	// within the command timeout.
	ErrExecutionTimeout = errors.New("ssh command did not finish in time")
	// ErrIO reports a failure writing standard input or reading output.
	ErrIO = errors.New("ssh channel i/o error")
	// ErrReplyTimeout is the only error Receive returns.
	ErrReplyTimeout = correlation.ErrReplyTimeout
)
