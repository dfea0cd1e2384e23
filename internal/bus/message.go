package bus

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// CodeRecipientPanic is the failure code sent when a consumer panics before
// answering a request.
const CodeRecipientPanic = -1

var (
	// ErrAlreadyReplied is returned by a second Reply or Fail on the same message.
	ErrAlreadyReplied = errors.New("bus: message already replied")

	// ErrNoReplyExpected is returned by Reply or Fail on a sent or published message.
	ErrNoReplyExpected = errors.New("bus: sender expects no reply")
)

// ReplyError is the failure a consumer sent back with Fail.
type ReplyError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *ReplyError) Error() string {
	return fmt.Sprintf("recipient failure (code %d): %s", e.Code, e.Message)
}

// Headers are string key/value pairs attached to a message.
type Headers map[string]string

// Get returns the value for key, or "" if absent.
func (h Headers) Get(key string) string {
	return h[key]
}

// Contains reports whether key is present, even with an empty value.
func (h Headers) Contains(key string) bool {
	_, ok := h[key]
	return ok
}

// Message is one unit of communication on the bus.
type Message struct {
	ID      string
	Address string
	Headers Headers
	Body    json.RawMessage

	reply   chan<- outcome
	replied atomic.Bool
}

type outcome struct {
	msg *Message
	err error
}

func newMessage(address string, body any, headers Headers) (*Message, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("bus: encode body for %s: %w", address, err)
	}
	copied := make(Headers, len(headers))
	for k, v := range headers {
		copied[k] = v
	}
	return &Message{
		ID:      newID(),
		Address: address,
		Headers: copied,
		Body:    data,
	}, nil
}

// newID returns a time-sortable UUIDv7 string.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Decode unmarshals the body into v. An empty body leaves v untouched.
func (m *Message) Decode(v any) error {
	if len(m.Body) == 0 {
		return nil
	}
	return json.Unmarshal(m.Body, v)
}

// ExpectsReply reports whether the sender is waiting for an outcome.
func (m *Message) ExpectsReply() bool {
	return m.reply != nil
}

// Reply answers the sender with body.
func (m *Message) Reply(body any) error {
	if m.reply == nil {
		return ErrNoReplyExpected
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("bus: encode reply to %s: %w", m.ID, err)
	}
	if !m.replied.CompareAndSwap(false, true) {
		return ErrAlreadyReplied
	}
	m.reply <- outcome{msg: &Message{ID: newID(), Address: m.Address, Headers: Headers{}, Body: data}}
	return nil
}

// Fail answers the sender with a failure code and message.
func (m *Message) Fail(code int, message string) error {
	if m.reply == nil {
		return ErrNoReplyExpected
	}
	if !m.replied.CompareAndSwap(false, true) {
		return ErrAlreadyReplied
	}
	m.reply <- outcome{err: &ReplyError{Code: code, Message: message}}
	return nil
}
