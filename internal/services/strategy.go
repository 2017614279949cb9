package services

import (
	"fmt"
	"time"

	"auction-marketplace/internal/domain"

	"github.com/shopspring/decimal"
)

// BidStrategy validates a bid against one auction variant and applies it to
// the item in place. The caller persists and publishes.
type BidStrategy interface {
	PlaceBid(item *domain.AuctionItem, amount decimal.Decimal, bidderID string, now time.Time) error
}

type ForwardBidStrategy struct{}

func (ForwardBidStrategy) PlaceBid(item *domain.AuctionItem, amount decimal.Decimal, bidderID string, now time.Time) error {
	if item.Status != domain.StatusAvailable {
		return fmt.Errorf("%w: item %s is %s", domain.ErrInvalidState, item.ID, item.Status)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidBid)
	}
	if amount.LessThanOrEqual(item.CurrentPrice) {
		return fmt.Errorf("%w: %s must exceed current price %s", domain.ErrInvalidBid, amount, item.CurrentPrice)
	}
	if now.After(item.EndTime) {
		return fmt.Errorf("%w: item %s closed at %s", domain.ErrExpired, item.ID, item.EndTime.Format(time.RFC3339))
	}

	// Closing is left to the expiry sweep.
	item.HighestBidderID = bidderID
	item.CurrentPrice = amount
	item.UpdatedAt = now
	return nil
}

type DutchBidStrategy struct{}

func (DutchBidStrategy) PlaceBid(item *domain.AuctionItem, amount decimal.Decimal, bidderID string, now time.Time) error {
	if item.Status != domain.StatusAvailable {
		return fmt.Errorf("%w: item %s is %s", domain.ErrInvalidState, item.ID, item.Status)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidBid)
	}
	if !amount.Equal(item.CurrentPrice) {
		return fmt.Errorf("%w: %s must equal listed price %s", domain.ErrInvalidBid, amount, item.CurrentPrice)
	}

	item.HighestBidderID = bidderID
	return item.Transition(domain.StatusSold, now)
}

func StrategyFor(t domain.ItemType) (BidStrategy, error) {
	switch t {
	case domain.ItemForward:
		return ForwardBidStrategy{}, nil
	case domain.ItemDutch:
		return DutchBidStrategy{}, nil
	}
	return nil, fmt.Errorf("%w: unknown item type %q", domain.ErrInvalidState, t)
}
