package sshclient

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/NalediMadlopha/citrus/internal/message"
)

func TestYAMLConverter_Outbound(t *testing.T) {
	c := YAMLConverter{}

	m := message.New([]byte("command: ls -l /tmp\nstdin: |\n  a\n  b\n")).SetHeader(message.HeaderUser, "app")
	req, err := c.ConvertOutbound(m)
	require.NoError(t, err)
	require.Equal(t, Request{Command: "ls -l /tmp", Stdin: "a\nb\n", User: "app"}, req)

	req, err = c.ConvertOutbound(message.New([]byte("cmd: uptime")))
	require.NoError(t, err)
	require.Equal(t, "uptime", req.Command)
	require.Empty(t, req.User)
}

func TestYAMLConverter_OutboundErrors(t *testing.T) {
	c := YAMLConverter{}
	for name, m := range map[string]*message.Message{
		"nil":        nil,
		"bad yaml":   message.New([]byte("command: [")),
		"no command": message.New([]byte("stdin: x")),
		"blank":      message.New([]byte("command: '  '")),
	} {
		_, err := c.ConvertOutbound(m)
		require.ErrorIs(t, err, ErrConfiguration, name)
	}
}

func TestYAMLConverter_InboundAndDecode(t *testing.T) {
	m, err := YAMLConverter{}.ConvertInbound(Response{Stdout: "hello\n", Stderr: "", ExitCode: 2})
	require.NoError(t, err)
	require.NotEmpty(t, m.ID)
	require.Contains(t, string(m.Payload), "exit: 2")

	resp, err := DecodeResponse(m)
	require.NoError(t, err)
	require.Equal(t, Response{Stdout: "hello\n", ExitCode: 2}, resp)

	_, err = DecodeResponse(nil)
	require.Error(t, err)
}

func TestNewRequestMessage(t *testing.T) {
	m, err := NewRequestMessage(Request{Command: "whoami", User: "ops"})
	require.NoError(t, err)
	require.Equal(t, "ops", m.Header(message.HeaderUser))
	require.NotContains(t, string(m.Payload), "ops")
	require.NotContains(t, string(m.Payload), "stdin")

	req, err := YAMLConverter{}.ConvertOutbound(m)
	require.NoError(t, err)
	require.Equal(t, Request{Command: "whoami", User: "ops"}, req)
}
