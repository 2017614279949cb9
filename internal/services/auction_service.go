package services

import (
	"context"
	"errors"
	"fmt"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"

	"github.com/shopspring/decimal"
)

type AuctionService struct {
	store    repositories.AuctionStore
	items    *itemMutator
	notifier *Notifier
	clock    utils.Clock
	log      logger.Logger
}

func NewAuctionService(
	store repositories.AuctionStore,
	locker *ItemLocker,
	notifier *Notifier,
	clock utils.Clock,
	log logger.Logger,
) *AuctionService {
	return &AuctionService{
		store:    store,
		items:    &itemMutator{store: store, locker: locker, log: log},
		notifier: notifier,
		clock:    clock,
		log:      log,
	}
}

func (s *AuctionService) CreateForwardItem(ctx context.Context, params domain.NewForwardItemParams) (*domain.AuctionItem, error) {
	item, err := domain.NewForwardItem(utils.GenerateID("item"), params, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return s.create(ctx, item)
}

func (s *AuctionService) CreateDutchItem(ctx context.Context, params domain.NewDutchItemParams) (*domain.AuctionItem, error) {
	item, err := domain.NewDutchItem(utils.GenerateID("item"), params, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return s.create(ctx, item)
}

func (s *AuctionService) create(ctx context.Context, item *domain.AuctionItem) (*domain.AuctionItem, error) {
	if _, err := s.store.GetItemByName(ctx, item.Name); err == nil {
		return nil, fmt.Errorf("%w: item named %q", domain.ErrConflict, item.Name)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, storeError("lookup item name", err)
	}

	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, storeError("create item", err)
	}

	s.log.Info("Item created", "item_id", item.ID, "type", item.Type, "seller_id", item.SellerID)
	s.notifier.ItemUpdated(ctx, item)
	return item, nil
}

// DecreasePrice lowers a Dutch item's price. Reaching or crossing the
// reserve expires the item, and the price is stored as computed even when it
// lands below the reserve.
func (s *AuctionService) DecreasePrice(ctx context.Context, itemID, sellerID string, amount decimal.Decimal) (*domain.AuctionItem, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: decrease amount must be positive", domain.ErrValidation)
	}

	item, err := s.items.mutate(ctx, itemID,
		func(ctx context.Context, item *domain.AuctionItem) error {
			if item.Type != domain.ItemDutch {
				return fmt.Errorf("%w: item %s is not a dutch auction", domain.ErrInvalidState, item.ID)
			}
			if item.SellerID != sellerID {
				return fmt.Errorf("%w: item %s", domain.ErrNotSeller, item.ID)
			}
			if item.Status != domain.StatusAvailable {
				return fmt.Errorf("%w: item %s is %s", domain.ErrInvalidState, item.ID, item.Status)
			}

			now := s.clock.Now()
			item.CurrentPrice = item.CurrentPrice.Sub(amount)
			item.UpdatedAt = now
			if item.CurrentPrice.GreaterThan(item.ReservePrice) {
				return nil
			}
			return item.Transition(domain.StatusExpired, now)
		},
		s.store.UpdateItem,
	)
	if err != nil {
		s.log.Info("Price decrease rejected", "item_id", itemID, "seller_id", sellerID, "error", err)
		return nil, err
	}

	s.log.Info("Price decreased", "item_id", item.ID, "price", item.CurrentPrice, "status", item.Status)
	s.notifier.ItemUpdated(ctx, item)
	return item, nil
}

// CancelItem withdraws an item that nobody has bid on yet.
func (s *AuctionService) CancelItem(ctx context.Context, itemID, sellerID string) (*domain.AuctionItem, error) {
	item, err := s.items.mutate(ctx, itemID,
		func(ctx context.Context, item *domain.AuctionItem) error {
			if item.SellerID != sellerID {
				return fmt.Errorf("%w: item %s", domain.ErrNotSeller, item.ID)
			}
			if item.HasBidder() {
				return fmt.Errorf("%w: item %s already has bids", domain.ErrInvalidState, item.ID)
			}
			return item.Transition(domain.StatusCancelled, s.clock.Now())
		},
		s.store.UpdateItem,
	)
	if err != nil {
		return nil, err
	}

	s.log.Info("Item cancelled", "item_id", item.ID)
	s.notifier.ItemUpdated(ctx, item)
	return item, nil
}

func (s *AuctionService) GetAllItems(ctx context.Context) ([]*domain.AuctionItem, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, storeError("list items", err)
	}
	return items, nil
}

func (s *AuctionService) GetItemsByStatus(ctx context.Context, status domain.ItemStatus) ([]*domain.AuctionItem, error) {
	items, err := s.store.ListItemsByStatus(ctx, status)
	if err != nil {
		return nil, storeError("list items by status", err)
	}
	return items, nil
}

func (s *AuctionService) GetByID(ctx context.Context, itemID string) (*domain.AuctionItem, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, storeError("get item", err)
	}
	return item, nil
}

func (s *AuctionService) GetByName(ctx context.Context, name string) (*domain.AuctionItem, error) {
	item, err := s.store.GetItemByName(ctx, name)
	if err != nil {
		return nil, storeError("get item by name", err)
	}
	return item, nil
}

func (s *AuctionService) SearchByKeyword(ctx context.Context, keyword string) ([]*domain.AuctionItem, error) {
	items, err := s.store.SearchItems(ctx, keyword)
	if err != nil {
		return nil, storeError("search items", err)
	}
	return items, nil
}
