package sshclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"code.cloudfoundry.org/clock"
	"golang.org/x/crypto/ssh"
)

// runRemoteCommand executes req on a fresh exec channel and returns the
// captured streams and exit status. A non-zero exit status is not an error.
// The channel is closed on every return path.
func runRemoteCommand(ctx context.Context, client sessionClient, req Request, timeout time.Duration, clk clock.Clock) (Response, error) {
	sess, err := client.NewSession()
	if err != nil {
		return Response{}, fmt.Errorf("%w: cannot open exec channel: %v", ErrConnection, err)
	}
	defer func() { _ = sess.Close() }()

	var stdout, stderr bytes.Buffer
	sess.Bind(&stdout, &stderr)

	var stdin io.WriteCloser
	if req.Stdin != "" {
		if stdin, err = sess.StdinPipe(); err != nil {
			return Response{}, fmt.Errorf("%w: cannot open standard input: %v", ErrIO, err)
		}
	}

	var deadline <-chan time.Time
	if timeout > 0 {
		tm := clk.NewTimer(timeout)
		defer tm.Stop()
		deadline = tm.C()
	}

	if err := sess.Start(req.Command); err != nil {
		return Response{}, fmt.Errorf("%w: cannot start command: %v", ErrConnection, err)
	}

	// Writing standard input may block until the remote side drains it, so
	// it runs under the same deadline as Wait.
	done := make(chan commandResult, 1)
	go func() {
		if stdin != nil {
			if err := sendStandardInput(stdin, req.Stdin); err != nil {
				done <- commandResult{stdinErr: err}
				return
			}
		}
		done <- commandResult{waitErr: sess.Wait()}
	}()

	select {
	case res := <-done:
		if res.stdinErr != nil {
			return Response{}, res.stdinErr
		}
		code, err := exitStatus(res.waitErr)
		if err != nil {
			return Response{}, err
		}
		return Response{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: code}, nil
	case <-deadline:
		return Response{}, fmt.Errorf("%w: channel not finished within %v", ErrExecutionTimeout, timeout)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Response{}, fmt.Errorf("%w: %v", ErrExecutionTimeout, ctx.Err())
		}
		return Response{}, fmt.Errorf("command canceled: %w", ctx.Err())
	}
}

type commandResult struct {
	stdinErr error
	waitErr  error
}

// sendStandardInput writes in and then closes w, which signals end of input
// to the remote command.
func sendStandardInput(w io.WriteCloser, in string) error {
	_, werr := io.WriteString(w, in)
	cerr := w.Close()
	if werr != nil {
		return fmt.Errorf("%w: cannot write to standard input: %v", ErrIO, werr)
	}
	if cerr != nil {
		return fmt.Errorf("%w: cannot close standard input: %v", ErrIO, cerr)
	}
	return nil
}

// exitStatus maps the result of Wait to an exit code. A command that ended
// without reporting a status yields -1.
func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var ee *ssh.ExitError
	if errors.As(err, &ee) {
		return ee.ExitStatus(), nil
	}
	var missing *ssh.ExitMissingError
	if errors.As(err, &missing) {
		return -1, nil
	}
	return -1, fmt.Errorf("%w: %v", ErrIO, err)
}
