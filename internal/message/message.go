// Package message defines the envelope exchanged between test steps and
// endpoints: a set of string headers plus an opaque payload.
package message

import (
	"sort"

	"github.com/google/uuid"
)

// HeaderUser names the header carrying the remote user identity. On an
// outbound message it overrides the endpoint default; on a reply it holds
// the identity the command actually ran as.
const HeaderUser = "user"

// Message is a payload with headers.
type Message struct {
	ID      string
	Headers map[string]string
	Payload []byte
}

// New returns a message with a fresh ID carrying payload.
func New(payload []byte) *Message {
	return &Message{
		ID:      uuid.NewString(),
		Headers: make(map[string]string),
		Payload: payload,
	}
}

// Header returns the value of header name, or "" if it is absent.
func (m *Message) Header(name string) string {
	if m == nil || m.Headers == nil {
		return ""
	}
	return m.Headers[name]
}

// SetHeader sets header name to value and returns m for chaining.
func (m *Message) SetHeader(name, value string) *Message {
	if m.Headers == nil {
		m.Headers = make(map[string]string)
	}
	m.Headers[name] = value
	return m
}

// HeaderNames returns the header names in sorted order.
func (m *Message) HeaderNames() []string {
	names := make([]string, 0, len(m.Headers))
	for n := range m.Headers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
