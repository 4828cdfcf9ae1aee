package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShellQuote(t *testing.T) {
	for in, want := range map[string]string{
		"simple":    "simple",
		"":          "''",
		"two words": "'two words'",
		"a'b":       `'a'\''b'`,
		"/path/ok":  "/path/ok",
		"abc+123":   "abc+123",
		"$HOME":     "'$HOME'",
		"a;b":       "'a;b'",
	} {
		require.Equal(t, want, shellQuote(in), in)
	}
}
