package services

import (
	"context"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
)

// Notifier publishes committed changes. Failures are logged and dropped so a
// broken event bus can never undo a mutation.
type Notifier struct {
	publisher domain.UpdatePublisher
	timeout   time.Duration
	log       logger.Logger
}

func NewNotifier(publisher domain.UpdatePublisher, timeout time.Duration, log logger.Logger) *Notifier {
	return &Notifier{publisher: publisher, timeout: timeout, log: log}
}

func (n *Notifier) run(ctx context.Context, what string, itemID string, publish func(ctx context.Context) error) {
	if n == nil || n.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	if err := publish(ctx); err != nil {
		n.log.Warn("Failed to publish update", "event", what, "item_id", itemID, "error", err)
	}
}

func (n *Notifier) ItemUpdated(ctx context.Context, item *domain.AuctionItem) {
	n.run(ctx, "item_update", item.ID, func(ctx context.Context) error {
		return n.publisher.BroadcastItemUpdate(ctx, item)
	})
}

func (n *Notifier) NewBid(ctx context.Context, bid *domain.Bid) {
	n.run(ctx, "new_bid", bid.ItemID, func(ctx context.Context) error {
		return n.publisher.BroadcastNewBid(ctx, bid)
	})
}

func (n *Notifier) Payment(ctx context.Context, receipt *domain.Receipt) {
	n.run(ctx, "payment", receipt.ItemID, func(ctx context.Context) error {
		return n.publisher.BroadcastPayment(ctx, receipt)
	})
}

// LogPublisher stands in when no event bus is configured.
type LogPublisher struct {
	log logger.Logger
}

func NewLogPublisher(log logger.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) BroadcastItemUpdate(ctx context.Context, item *domain.AuctionItem) error {
	p.log.Debug("Item updated", "item_id", item.ID, "status", item.Status, "price", item.CurrentPrice)
	return nil
}

func (p *LogPublisher) BroadcastNewBid(ctx context.Context, bid *domain.Bid) error {
	p.log.Debug("New bid", "item_id", bid.ItemID, "bid_id", bid.ID, "amount", bid.Amount)
	return nil
}

func (p *LogPublisher) BroadcastPayment(ctx context.Context, receipt *domain.Receipt) error {
	p.log.Debug("Payment received", "item_id", receipt.ItemID, "receipt_id", receipt.ID)
	return nil
}
