package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"ai-jobanalyzer-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

type Hub struct {
	// Registered clients map: SessionID -> List of Clients (multi-viewer)
	clients map[string][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance fan-out
	rdb *redis.Client

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis Subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.SessionID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.SessionID]) == 0 {
					delete(h.clients, client.SessionID)
					h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"session_id": client.SessionID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Send delivers an event payload to every viewer of a session.
func (h *Hub) Send(sessionID string, payload []byte) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "agent_event",
		"data": json.RawMessage(payload),
	})

	// Deliver under the read lock so the unregister handler cannot close a
	// Send channel mid-loop. Evictions happen after the lock is released.
	h.mu.RLock()
	var evicted []*Client
	for _, client := range h.clients[sessionID] {
		select {
		case client.Send <- data:
		default:
			evicted = append(evicted, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range evicted {
		// The unregister handler performs the single close of Send
		h.logger.Warn("Hub", "Client Send buffer full, evicting client", map[string]interface{}{"session_id": sessionID})
		h.unregister <- client
	}

	// Publish to Redis so viewers connected to other instances see it too
	if h.rdb != nil {
		envelope := map[string]interface{}{
			"target_session_id": sessionID,
			"message":           data,
		}
		jsonPayload, _ := json.Marshal(envelope)
		h.rdb.Publish(context.Background(), "agent_stream_events", jsonPayload)
	}
}

func (h *Hub) subscribeToRedis() {
	// All instances subscribe to the same channel; each checks whether it
	// has local viewers for the target session before delivering.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "agent_stream_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			TargetSessionID string          `json:"target_session_id"`
			Message         json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		h.mu.RLock()
		var evicted []*Client
		for _, client := range h.clients[payload.TargetSessionID] {
			select {
			case client.Send <- payload.Message:
			default:
				evicted = append(evicted, client)
			}
		}
		h.mu.RUnlock()

		for _, client := range evicted {
			h.unregister <- client
		}
	}
}
