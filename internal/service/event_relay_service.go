package service

import (
	"context"
	"encoding/json"
	"log"

	"ai-jobanalyzer-be/internal/websocket"
	"ai-jobanalyzer-be/pkg/events"
	pktNats "ai-jobanalyzer-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IEventRelayService interface {
	Start(ctx context.Context) error
}

// eventRelayService bridges the in-process event bus to the outside world:
// websocket viewers get each event for their session, and NATS gets a copy
// for external consumers. The in-memory log stays the source of truth; the
// relay is delivery only.
type eventRelayService struct {
	pubSub  *gochannel.GoChannel
	hub     *websocket.Hub
	natsPub *pktNats.Publisher // optional
}

func NewEventRelayService(
	pubSub *gochannel.GoChannel,
	hub *websocket.Hub,
	natsPub *pktNats.Publisher,
) IEventRelayService {
	return &eventRelayService{
		pubSub:  pubSub,
		hub:     hub,
		natsPub: natsPub,
	}
}

func (s *eventRelayService) Start(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *eventRelayService) processMessage(ctx context.Context, msg *message.Message) {
	var event events.Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		log.Printf("[ERROR] Failed to unmarshal agent event: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if s.hub != nil && event.SessionID != "" {
		s.hub.Send(event.SessionID, msg.Payload)
	}

	if s.natsPub != nil {
		if err := s.natsPub.Publish(ctx, event); err != nil {
			log.Printf("[WARN] Failed to mirror event %s to NATS: %v", event.Type, err)
		}
	}

	msg.Ack()
}
