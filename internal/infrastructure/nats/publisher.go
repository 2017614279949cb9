package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"

	"github.com/nats-io/nats.go"
)

const subjectPrefix = "auction.events"

// Subject returns the per-item subject events for itemID are published on.
func Subject(itemID string) string {
	return fmt.Sprintf("%s.%s", subjectPrefix, itemID)
}

// Connect dials the NATS server and logs connection state changes.
func Connect(url string, log logger.Logger) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("auction-marketplace"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("Disconnected from NATS", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
	)
}

type EventPublisher struct {
	conn  *nats.Conn
	clock utils.Clock
}

func NewEventPublisher(conn *nats.Conn, clock utils.Clock) *EventPublisher {
	return &EventPublisher{conn: conn, clock: clock}
}

func (p *EventPublisher) BroadcastItemUpdate(ctx context.Context, item *domain.AuctionItem) error {
	return p.publish(domain.NewItemUpdatedEvent(item, p.clock.Now()))
}

func (p *EventPublisher) BroadcastNewBid(ctx context.Context, bid *domain.Bid) error {
	return p.publish(domain.NewBidEvent(bid, p.clock.Now()))
}

func (p *EventPublisher) BroadcastPayment(ctx context.Context, receipt *domain.Receipt) error {
	return p.publish(domain.NewPaymentEvent(receipt, p.clock.Now()))
}

func (p *EventPublisher) publish(event *domain.AuctionEvent) error {
	data, err := encode(event)
	if err != nil {
		return err
	}
	return p.conn.Publish(Subject(event.ItemID), data)
}

func encode(event *domain.AuctionEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	return data, nil
}
