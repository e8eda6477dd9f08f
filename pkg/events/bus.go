package events

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Topic is the watermill topic live subscribers (websocket hub, NATS relay)
// consume agent events from. The session id travels inside the payload.
const Topic = "agent_events"

// maxHistory caps the per-session log; the oldest events are dropped once
// exceeded. Seq numbers are preserved so readers can detect the truncation.
const maxHistory = 1000

// fanOutBuffer bounds the queue between Publish and the drain goroutine.
// When it is full the live copy is dropped; the stored log is unaffected.
const fanOutBuffer = 1024

// Bus records a per-session, append-only event log and fans events out to
// live subscribers. Publishing never blocks on a slow reader, and live
// subscribers see events in the same order they were appended.
type Bus struct {
	mu     sync.RWMutex
	logs   map[string][]Event
	seqs   map[string]int
	latest string // most recently active session id

	pubSub *gochannel.GoChannel
	out    chan []byte
	logger *log.Logger
}

func NewBus(pubSub *gochannel.GoChannel, logger *log.Logger) *Bus {
	b := &Bus{
		logs:   make(map[string][]Event),
		seqs:   make(map[string]int),
		pubSub: pubSub,
		logger: logger,
	}
	if pubSub != nil {
		b.out = make(chan []byte, fanOutBuffer)
		go b.drain()
	}
	return b
}

// Publish appends the event to its session log and queues it for fan-out.
// The stored event is the source of truth; the live copy is best-effort and
// never blocks stage execution.
func (b *Bus) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.seqs[e.SessionID]++
	e.Seq = b.seqs[e.SessionID]
	entries := append(b.logs[e.SessionID], e)
	if len(entries) > maxHistory {
		entries = entries[len(entries)-maxHistory:]
	}
	b.logs[e.SessionID] = entries
	b.latest = e.SessionID

	// Enqueued while the lock is held so the queue order matches Seq order
	// even with concurrent publishers.
	if b.out == nil {
		return
	}
	payload, err := json.Marshal(e)
	if err != nil {
		b.logf("[ERROR] Failed to marshal event %s: %v", e.Type, err)
		return
	}
	select {
	case b.out <- payload:
	default:
		b.logf("[WARN] Fan-out queue full, dropping live copy of %s event", e.Type)
	}
}

// drain publishes queued events to watermill one at a time, preserving the
// append order for every live subscriber.
func (b *Bus) drain() {
	for payload := range b.out {
		msg := message.NewMessage(uuid.NewString(), payload)
		if err := b.pubSub.Publish(Topic, msg); err != nil {
			b.logf("[WARN] Event fan-out failed: %v", err)
		}
	}
}

// Events returns a copy of the full event log for a session, in order.
func (b *Bus) Events(sessionID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	log := b.logs[sessionID]
	out := make([]Event, len(log))
	copy(out, log)
	return out
}

// EventsSince returns events with Seq > since, in order.
func (b *Bus) EventsSince(sessionID string, since int) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Event
	for _, e := range b.logs[sessionID] {
		if e.Seq > since {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of events recorded for a session.
func (b *Bus) Count(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.seqs[sessionID]
}

// LatestSessionID returns the id of the most recently active session.
func (b *Bus) LatestSessionID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.latest
}

// Drop discards a session's log once the session is archived.
func (b *Bus) Drop(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.logs, sessionID)
	delete(b.seqs, sessionID)
}

func (b *Bus) logf(format string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Printf(format, args...)
	}
}
