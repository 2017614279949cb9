package nats

import (
	"context"
	"encoding/json"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/nats-io/nats.go"
)

type EventSubscriber struct {
	conn *nats.Conn
	log  logger.Logger
}

func NewEventSubscriber(conn *nats.Conn, log logger.Logger) *EventSubscriber {
	return &EventSubscriber{conn: conn, log: log}
}

// SubscribeToAuctionEvents listens on every item subject until ctx is done.
func (s *EventSubscriber) SubscribeToAuctionEvents(ctx context.Context, handler domain.EventHandler) error {
	sub, err := s.conn.Subscribe(subjectPrefix+".>", func(msg *nats.Msg) {
		event, err := decode(msg.Data)
		if err != nil {
			s.log.Error("Failed to parse event", "subject", msg.Subject, "error", err)
			return
		}
		if err := handler(event); err != nil {
			s.log.Error("Failed to handle event", "type", event.Type, "item_id", event.ItemID, "error", err)
		}
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	s.log.Info("Subscribed to auction events", "subject", sub.Subject)
	<-ctx.Done()
	s.log.Info("Event subscriber stopped")
	return ctx.Err()
}

func decode(data []byte) (*domain.AuctionEvent, error) {
	var event domain.AuctionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
