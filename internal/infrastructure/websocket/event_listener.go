package websocket

import (
	"context"
	"fmt"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
)

// EventListener relays bus events to the websocket clients watching the
// affected item.
type EventListener struct {
	connManager domain.ConnectionManager
	log         logger.Logger
}

func NewEventListener(connManager domain.ConnectionManager, log logger.Logger) *EventListener {
	return &EventListener{connManager: connManager, log: log}
}

func (el *EventListener) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	el.log.Info("Starting event listener")
	return subscriber.SubscribeToAuctionEvents(ctx, el.HandleEvent)
}

func (el *EventListener) HandleEvent(event *domain.AuctionEvent) error {
	switch event.Type {
	case domain.EventItemUpdated, domain.EventNewBid, domain.EventPayment:
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}

	if err := el.connManager.BroadcastToItem(event.ItemID, event); err != nil {
		return err
	}

	// Nothing more will happen to this item.
	if event.Closing() {
		return el.connManager.CloseAndUnregisterConnections(event.ItemID)
	}
	return nil
}
