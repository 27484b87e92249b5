package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrySendKeepsDroppedLatest(t *testing.T) {
	c := &ViewportClient{send: make(chan []byte, 1)}

	c.trySend([]byte("first"))
	c.trySend([]byte("second"))
	c.trySend([]byte("third"))

	// Buffer held only the first payload; the newest overflow is retained.
	assert.Equal(t, []byte("first"), <-c.send)

	c.resendDropped()

	select {
	case got := <-c.send:
		assert.Equal(t, []byte("third"), got)
	default:
		t.Fatal("dropped payload was not resent")
	}

	// Nothing left to resend once delivered.
	c.resendDropped()
	select {
	case got := <-c.send:
		t.Fatalf("unexpected resend: %s", got)
	default:
	}
}

func TestTrySendClearsDroppedOnSuccess(t *testing.T) {
	c := &ViewportClient{send: make(chan []byte, 1)}

	c.trySend([]byte("first"))
	c.trySend([]byte("stale"))

	// Drain, then send a newer payload; it supersedes the dropped one.
	<-c.send
	c.trySend([]byte("newer"))
	require.Equal(t, []byte("newer"), <-c.send)

	c.resendDropped()
	select {
	case got := <-c.send:
		t.Fatalf("superseded payload resent: %s", got)
	default:
	}
}

func TestTrySendAfterClose(t *testing.T) {
	c := &ViewportClient{send: make(chan []byte, 1), closed: true}

	c.trySend([]byte("late"))
	c.resendDropped()

	select {
	case got := <-c.send:
		t.Fatalf("send on closed client: %s", got)
	default:
	}
}
