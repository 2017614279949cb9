package redis

import (
	"context"
	"encoding/json"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"

	"github.com/go-redis/redis/v8"
)

const EventsChannel = "auction_events"

// EventPublisher fans committed changes out over Redis pub/sub. Item
// updates go through the snapshot cache; bids and payments are published
// directly.
type EventPublisher struct {
	client *redis.Client
	cache  *ItemCache
	clock  utils.Clock
	log    logger.Logger
}

func NewEventPublisher(client *redis.Client, cache *ItemCache, clock utils.Clock, log logger.Logger) *EventPublisher {
	return &EventPublisher{client: client, cache: cache, clock: clock, log: log}
}

func (p *EventPublisher) BroadcastItemUpdate(ctx context.Context, item *domain.AuctionItem) error {
	payload, err := json.Marshal(domain.NewItemUpdatedEvent(item, p.clock.Now()))
	if err != nil {
		return err
	}

	published, err := p.cache.PublishSnapshot(ctx, item, EventsChannel, payload)
	if err != nil {
		return err
	}
	if !published {
		p.log.Debug("Dropped stale item update", "item_id", item.ID, "version", item.Version)
	}
	return nil
}

func (p *EventPublisher) BroadcastNewBid(ctx context.Context, bid *domain.Bid) error {
	return p.publish(ctx, domain.NewBidEvent(bid, p.clock.Now()))
}

func (p *EventPublisher) BroadcastPayment(ctx context.Context, receipt *domain.Receipt) error {
	return p.publish(ctx, domain.NewPaymentEvent(receipt, p.clock.Now()))
}

func (p *EventPublisher) publish(ctx context.Context, event *domain.AuctionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, EventsChannel, payload).Err()
}
