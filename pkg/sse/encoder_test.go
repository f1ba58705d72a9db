package sse

import (
	"testing"
)

func TestFormatDataOnly(t *testing.T) {
	enc := NewEncoder()

	out, err := enc.Format(&Event{Data: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "data: hello\n\n" {
		t.Fatalf("unexpected framing: %q", out)
	}
}

func TestFormatAllFields(t *testing.T) {
	enc := NewEncoder()

	out, err := enc.Format(&Event{ID: "7", Type: "tick", Retry: 3000, Data: "now"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "event: tick\nid: 7\nretry: 3000\ndata: now\n\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestFormatJSONPayload(t *testing.T) {
	enc := NewEncoder()

	out, err := enc.Format(&Event{Data: map[string]int{"id": 3}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "data: {\"id\":3}\n\n" {
		t.Fatalf("unexpected framing: %q", out)
	}
}

func TestFormatMultilineData(t *testing.T) {
	enc := NewEncoder()

	out, err := enc.Format(&Event{Data: "line1\nline2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "data: line1\ndata: line2\n\n" {
		t.Fatalf("unexpected framing: %q", out)
	}
}

func TestFormatRejectsNewlinesInFields(t *testing.T) {
	enc := NewEncoder()

	if _, err := enc.Format(&Event{Type: "bad\ntype", Data: "x"}); err != ErrInvalidField {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
	if _, err := enc.Format(&Event{ID: "bad\rid", Data: "x"}); err != ErrInvalidField {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
}

func TestFormatNil(t *testing.T) {
	enc := NewEncoder()
	if _, err := enc.Format(nil); err != ErrNilEvent {
		t.Fatalf("expected ErrNilEvent, got %v", err)
	}
}

func TestComment(t *testing.T) {
	enc := NewEncoder()
	if got := enc.Comment("keepalive"); got != ": keepalive\n\n" {
		t.Fatalf("unexpected comment framing: %q", got)
	}
}
