// Package sse implements Server-Sent Events framing and a broadcast hub
// for the /events endpoint.
package sse

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Framing errors.
var (
	ErrInvalidField = errors.New("sse: field contains newline")
	ErrNilEvent     = errors.New("sse: event is nil")
)

// Event is a single server-sent event.
type Event struct {
	// ID is the optional event ID echoed in Last-Event-ID.
	ID string
	// Type is the optional event type ("message" when empty).
	Type string
	// Retry is the optional reconnection delay in milliseconds.
	Retry int
	// Data is the payload. Strings are sent as-is; other values are
	// JSON-encoded.
	Data any
}

// Encoder formats events per the WHATWG EventSource specification.
type Encoder struct{}

// NewEncoder creates an Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Format renders an event into wire format, terminated by the blank line
// that dispatches it.
func (e *Encoder) Format(ev *Event) (string, error) {
	if ev == nil {
		return "", ErrNilEvent
	}

	var sb strings.Builder

	if ev.Type != "" {
		if strings.ContainsAny(ev.Type, "\r\n") {
			return "", ErrInvalidField
		}
		sb.WriteString("event: ")
		sb.WriteString(ev.Type)
		sb.WriteByte('\n')
	}

	if ev.ID != "" {
		if strings.ContainsAny(ev.ID, "\r\n") {
			return "", ErrInvalidField
		}
		sb.WriteString("id: ")
		sb.WriteString(ev.ID)
		sb.WriteByte('\n')
	}

	if ev.Retry > 0 {
		sb.WriteString("retry: ")
		sb.WriteString(strconv.Itoa(ev.Retry))
		sb.WriteByte('\n')
	}

	data, err := e.dataString(ev.Data)
	if err != nil {
		return "", err
	}

	// Multiline payloads become one data: field per line.
	for _, line := range strings.Split(data, "\n") {
		sb.WriteString("data: ")
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	sb.WriteByte('\n')
	return sb.String(), nil
}

// Comment renders a comment line. EventSource clients ignore comments, so
// they double as keepalives.
func (e *Encoder) Comment(text string) string {
	var sb strings.Builder
	for _, line := range strings.Split(text, "\n") {
		sb.WriteString(": ")
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	return sb.String()
}

func (e *Encoder) dataString(data any) (string, error) {
	switch v := data.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
