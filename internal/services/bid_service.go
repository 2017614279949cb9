package services

import (
	"context"
	"fmt"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"

	"github.com/shopspring/decimal"
)

type BidPlacement struct {
	Item *domain.AuctionItem `json:"item"`
	Bid  *domain.Bid         `json:"bid"`
}

type BidService struct {
	store    repositories.AuctionStore
	items    *itemMutator
	notifier *Notifier
	clock    utils.Clock
	log      logger.Logger
}

func NewBidService(
	store repositories.AuctionStore,
	locker *ItemLocker,
	notifier *Notifier,
	clock utils.Clock,
	log logger.Logger,
) *BidService {
	return &BidService{
		store:    store,
		items:    &itemMutator{store: store, locker: locker, log: log},
		notifier: notifier,
		clock:    clock,
		log:      log,
	}
}

func (s *BidService) CreateBid(ctx context.Context, itemID, bidderID string, amount decimal.Decimal) (*BidPlacement, error) {
	s.log.Info("Placing bid", "item_id", itemID, "bidder_id", bidderID, "amount", amount)

	if bidderID == "" {
		return nil, fmt.Errorf("%w: bidder is required", domain.ErrValidation)
	}

	// A bidder who wins elsewhere between this check and the commit below is
	// caught at payment time instead.
	won, err := s.store.ListWonItems(ctx, bidderID)
	if err != nil {
		return nil, storeError("list won items", err)
	}
	if len(won) > 0 {
		return nil, fmt.Errorf("%w: bidder %s has not paid for item %s", domain.ErrOutstandingPayment, bidderID, won[0].ID)
	}

	var bid *domain.Bid
	item, err := s.items.mutate(ctx, itemID,
		func(ctx context.Context, item *domain.AuctionItem) error {
			strategy, err := StrategyFor(item.Type)
			if err != nil {
				return err
			}
			now := s.clock.Now()
			if err := strategy.PlaceBid(item, amount, bidderID, now); err != nil {
				return err
			}
			bid = &domain.Bid{
				ID:        utils.GenerateID("bid"),
				ItemID:    item.ID,
				BidderID:  bidderID,
				Amount:    item.CurrentPrice,
				CreatedAt: now,
			}
			return nil
		},
		func(ctx context.Context, item *domain.AuctionItem) error {
			return s.store.CommitBid(ctx, item, bid)
		},
	)
	if err != nil {
		s.log.Info("Bid rejected", "item_id", itemID, "bidder_id", bidderID, "amount", amount, "error", err)
		return nil, err
	}

	s.log.Info("Bid accepted", "item_id", item.ID, "bid_id", bid.ID, "status", item.Status)
	s.notifier.ItemUpdated(ctx, item)
	s.notifier.NewBid(ctx, bid)
	return &BidPlacement{Item: item, Bid: bid}, nil
}

// GetBidsForItem returns accepted bids, oldest first.
func (s *BidService) GetBidsForItem(ctx context.Context, itemID string) ([]*domain.Bid, error) {
	if _, err := s.store.GetItem(ctx, itemID); err != nil {
		return nil, storeError("get item", err)
	}
	bids, err := s.store.ListBids(ctx, itemID)
	if err != nil {
		return nil, storeError("list bids", err)
	}
	return bids, nil
}
