package core

import (
	"testing"
	"time"
)

// mustEvent waits for an event of the given kind, skipping others.
func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("events closed while waiting for %v", kind)
			}
			if ev != nil && ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("expected event kind %v not received", kind)
			return nil
		}
	}
}

// mustNoEvent asserts that no event of the given kind arrives within a short window.
func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	timeout := time.After(150 * time.Millisecond)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected %v event: %+v", kind, ev)
			}
		case <-timeout:
			return
		}
	}
}
