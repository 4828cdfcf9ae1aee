package sshtest

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// DefaultHandler emulates a tiny subset of a POSIX shell, enough for
// exercising a client:
//
//	echo ARGS...       prints ARGS; a trailing ">&2" prints to stderr
//	exit N             exits with status N
//	sleep SECONDS      waits, or until the channel is closed
//	cat                copies stdin to stdout
//	true, false        exit 0 and 1
//
// Commands may be chained with ";" and the status of the last one wins.
// Anything else exits 127 with a "not found" message on stderr.
func DefaultHandler(ctx context.Context, cmd string, stdin io.Reader, stdout, stderr io.Writer) int {
	code := 0
	for _, part := range strings.Split(cmd, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var exited bool
		code, exited = runOne(ctx, part, stdin, stdout, stderr)
		if exited || ctx.Err() != nil {
			break
		}
	}
	return code
}

func runOne(ctx context.Context, line string, stdin io.Reader, stdout, stderr io.Writer) (code int, exited bool) {
	fields := splitWords(line)
	if len(fields) == 0 {
		return 0, false
	}
	switch fields[0] {
	case "echo":
		out := stdout
		args := fields[1:]
		if n := len(args); n > 0 && args[n-1] == ">&2" {
			out = stderr
			args = args[:n-1]
		}
		_, _ = fmt.Fprintln(out, strings.Join(args, " "))
		return 0, false
	case "exit":
		if len(fields) < 2 {
			return 0, true
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "exit: %s: numeric argument required\n", fields[1])
			return 2, true
		}
		return n, true
	case "sleep":
		if len(fields) < 2 {
			return 1, false
		}
		secs, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return 1, false
		}
		tm := time.NewTimer(time.Duration(secs * float64(time.Second)))
		defer tm.Stop()
		select {
		case <-tm.C:
			return 0, false
		case <-ctx.Done():
			return 143, true
		}
	case "cat":
		if _, err := io.Copy(stdout, stdin); err != nil {
			return 1, false
		}
		return 0, false
	case "true":
		return 0, false
	case "false":
		return 1, false
	default:
		_, _ = fmt.Fprintf(stderr, "sh: %s: not found\n", fields[0])
		return 127, false
	}
}

// splitWords splits line into words the way a shell would for single
// quotes, double quotes and backslash escapes. Nothing is expanded.
func splitWords(line string) []string {
	var (
		words   []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\\':
			escaped, inWord = true, true
		case r == '\'' || r == '"':
			quote, inWord = r, true
		case r == ' ' || r == '\t' || r == '\n':
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if inWord {
		words = append(words, cur.String())
	}
	return words
}
