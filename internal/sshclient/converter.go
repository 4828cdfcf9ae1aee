package sshclient

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/NalediMadlopha/citrus/internal/message"
)

// MessageConverter maps messages to requests and responses to messages.
type MessageConverter interface {
	ConvertOutbound(m *message.Message) (Request, error)
	ConvertInbound(r Response) (*message.Message, error)
}

// YAMLConverter carries requests and responses as YAML documents:
//
//	command: ls -l /tmp
//	stdin: optional input
//
// and
//
//	stdout: "..."
//	stderr: "..."
//	exit: 0
type YAMLConverter struct{}

// ConvertOutbound decodes the message payload into a Request and applies
// the user header.
func (YAMLConverter) ConvertOutbound(m *message.Message) (Request, error) {
	if m == nil {
		return Request{}, fmt.Errorf("%w: nil request message", ErrConfiguration)
	}
	var r Request
	if err := yaml.Unmarshal(m.Payload, &r); err != nil {
		return Request{}, fmt.Errorf("%w: invalid request payload: %v", ErrConfiguration, err)
	}
	if strings.TrimSpace(r.Command) == "" {
		return Request{}, fmt.Errorf("%w: request.command is required", ErrConfiguration)
	}
	r.User = m.Header(message.HeaderUser)
	return r, nil
}

// ConvertInbound encodes r as the payload of a new message.
func (YAMLConverter) ConvertInbound(r Response) (*message.Message, error) {
	b, err := EncodeYAML(r)
	if err != nil {
		return nil, err
	}
	return message.New(b), nil
}

// NewRequestMessage builds an outbound message for req in the YAML format.
func NewRequestMessage(req Request) (*message.Message, error) {
	b, err := EncodeYAML(req)
	if err != nil {
		return nil, err
	}
	m := message.New(b)
	if req.User != "" {
		m.SetHeader(message.HeaderUser, req.User)
	}
	return m, nil
}

// DecodeResponse reads a Response from a reply payload.
func DecodeResponse(m *message.Message) (Response, error) {
	var r Response
	if m == nil {
		return r, fmt.Errorf("nil response message")
	}
	if err := yaml.Unmarshal(m.Payload, &r); err != nil {
		return r, fmt.Errorf("yaml unmarshal: %w", err)
	}
	return r, nil
}

// EncodeYAML serializes v with two-space indentation.
func EncodeYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
