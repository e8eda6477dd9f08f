package websocket

import (
	"path/filepath"
	"testing"
	"time"

	"ai-jobanalyzer-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, logger.NewIsolatedLogger(filepath.Join(t.TempDir(), "hub.log")))
	go hub.Run()
	return hub
}

func clientCount(hub *Hub, sessionID string) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.clients[sessionID])
}

func TestHubEvictsSlowClientWithoutPanic(t *testing.T) {
	hub := newTestHub(t)

	client := &Client{Hub: hub, SessionID: "s1", Send: make(chan []byte, 1)}
	hub.register <- client

	require.Eventually(t, func() bool {
		return clientCount(hub, "s1") == 1
	}, time.Second, 5*time.Millisecond)

	// First send fills the one-slot buffer; the second overflows it and
	// must evict the viewer instead of crashing the hub.
	hub.Send("s1", []byte(`{"type":"node_start"}`))
	hub.Send("s1", []byte(`{"type":"node_end"}`))

	require.Eventually(t, func() bool {
		return clientCount(hub, "s1") == 0
	}, time.Second, 5*time.Millisecond)

	// Send is closed exactly once: the buffered message drains, then the
	// channel reports closed.
	<-client.Send
	_, open := <-client.Send
	assert.False(t, open)

	// The hub keeps serving after the eviction
	hub.Send("s1", []byte(`{"type":"agent_end"}`))
}

func TestHubDeliversToAllSessionViewers(t *testing.T) {
	hub := newTestHub(t)

	a := &Client{Hub: hub, SessionID: "s1", Send: make(chan []byte, 4)}
	b := &Client{Hub: hub, SessionID: "s1", Send: make(chan []byte, 4)}
	other := &Client{Hub: hub, SessionID: "s2", Send: make(chan []byte, 4)}
	hub.register <- a
	hub.register <- b
	hub.register <- other

	require.Eventually(t, func() bool {
		return clientCount(hub, "s1") == 2 && clientCount(hub, "s2") == 1
	}, time.Second, 5*time.Millisecond)

	hub.Send("s1", []byte(`{"type":"node_start"}`))

	assert.Len(t, a.Send, 1)
	assert.Len(t, b.Send, 1)
	assert.Len(t, other.Send, 0)
}
