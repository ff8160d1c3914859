package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Well-known header names read by the release path.
const (
	// HeaderReplyDestination names (or directly carries) the destination a
	// released message is forwarded to when the handler has no fixed output.
	// The value may be a Destination or a string resolved via a Resolver.
	HeaderReplyDestination = "delaymux_replyDestination"

	// HeaderErrorDestination names (or directly carries) the destination
	// error reports are sent to when a scheduled release fails. Same
	// object-or-name rules as HeaderReplyDestination.
	HeaderErrorDestination = "delaymux_errorDestination"
)

// Message is an immutable unit of work: an opaque payload plus a header map.
// Mutators return a copy; a Message handed to a Handler is never modified.
type Message struct {
	id        uuid.UUID
	timestamp time.Time
	payload   any
	headers   map[string]any
}

// NewMessage creates a Message with the given payload and no headers.
func NewMessage(payload any) *Message {
	return &Message{
		id:        uuid.New(),
		timestamp: time.Now(),
		payload:   payload,
	}
}

// NewMessageWithHeaders creates a Message with a copy of the given headers.
func NewMessageWithHeaders(payload any, headers map[string]any) *Message {
	m := NewMessage(payload)
	if len(headers) > 0 {
		m.headers = make(map[string]any, len(headers))
		for k, v := range headers {
			m.headers[k] = v
		}
	}
	return m
}

// ID returns the unique id assigned at construction.
func (m *Message) ID() uuid.UUID { return m.id }

// Timestamp returns the creation time of the message.
func (m *Message) Timestamp() time.Time { return m.timestamp }

// Payload returns the opaque payload.
func (m *Message) Payload() any { return m.payload }

// Header returns the value stored under key, if any.
func (m *Message) Header(key string) (any, bool) {
	v, ok := m.headers[key]
	return v, ok
}

// Headers returns a copy of the header map.
func (m *Message) Headers() map[string]any {
	out := make(map[string]any, len(m.headers))
	for k, v := range m.headers {
		out[k] = v
	}
	return out
}

// WithHeader returns a copy of the message carrying key=value. The id and
// timestamp are preserved; the receiver is left untouched.
func (m *Message) WithHeader(key string, value any) *Message {
	cp := &Message{
		id:        m.id,
		timestamp: m.timestamp,
		payload:   m.payload,
		headers:   make(map[string]any, len(m.headers)+1),
	}
	for k, v := range m.headers {
		cp.headers[k] = v
	}
	cp.headers[key] = value
	return cp
}

func (m *Message) String() string {
	return fmt.Sprintf("Message[id=%s headers=%d]", m.id, len(m.headers))
}

// ReleaseError reports the failure of a release attempt together with the
// message that could not be delivered.
type ReleaseError struct {
	Msg *Message
	Err error
}

func (e *ReleaseError) Error() string {
	return fmt.Sprintf("delaymux: failed to release %s: %v", e.Msg, e.Err)
}

func (e *ReleaseError) Unwrap() error { return e.Err }

// NewErrorMessage builds the error report delivered on the error path: a new
// Message whose payload is a *ReleaseError wrapping the original message and
// the failure cause.
func NewErrorMessage(original *Message, cause error) *Message {
	return NewMessage(&ReleaseError{Msg: original, Err: cause})
}
