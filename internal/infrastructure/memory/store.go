package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"auction-marketplace/internal/domain"
)

// Store keeps every entity in process memory. Values are copied on the way
// in and out so callers never share pointers with the store.
type Store struct {
	mutex    sync.RWMutex
	items    map[string]*domain.AuctionItem
	names    map[string]string
	bids     map[string][]*domain.Bid
	receipts map[string]*domain.Receipt
}

func NewStore() *Store {
	return &Store{
		items:    make(map[string]*domain.AuctionItem),
		names:    make(map[string]string),
		bids:     make(map[string][]*domain.Bid),
		receipts: make(map[string]*domain.Receipt),
	}
}

func (s *Store) CreateItem(ctx context.Context, item *domain.AuctionItem) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.names[item.Name]; exists {
		return fmt.Errorf("%w: item named %q", domain.ErrConflict, item.Name)
	}
	if _, exists := s.items[item.ID]; exists {
		return fmt.Errorf("%w: item %s", domain.ErrConflict, item.ID)
	}

	item.Version = 1
	s.items[item.ID] = item.Clone()
	s.names[item.Name] = item.ID
	return nil
}

func (s *Store) GetItem(ctx context.Context, itemID string) (*domain.AuctionItem, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: item %s", domain.ErrNotFound, itemID)
	}
	return item.Clone(), nil
}

func (s *Store) GetItemByName(ctx context.Context, name string) (*domain.AuctionItem, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	id, ok := s.names[name]
	if !ok {
		return nil, fmt.Errorf("%w: item named %q", domain.ErrNotFound, name)
	}
	return s.items[id].Clone(), nil
}

func (s *Store) ListItems(ctx context.Context) ([]*domain.AuctionItem, error) {
	return s.filter(func(*domain.AuctionItem) bool { return true }), nil
}

func (s *Store) ListItemsByStatus(ctx context.Context, status domain.ItemStatus) ([]*domain.AuctionItem, error) {
	return s.filter(func(i *domain.AuctionItem) bool { return i.Status == status }), nil
}

func (s *Store) ListWonItems(ctx context.Context, bidderID string) ([]*domain.AuctionItem, error) {
	return s.filter(func(i *domain.AuctionItem) bool {
		return i.Status == domain.StatusSold && i.HighestBidderID == bidderID
	}), nil
}

func (s *Store) SearchItems(ctx context.Context, keyword string) ([]*domain.AuctionItem, error) {
	return s.filter(func(i *domain.AuctionItem) bool { return i.Matches(keyword) }), nil
}

func (s *Store) filter(keep func(*domain.AuctionItem) bool) []*domain.AuctionItem {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	items := make([]*domain.AuctionItem, 0, len(s.items))
	for _, item := range s.items {
		if keep(item) {
			items = append(items, item.Clone())
		}
	}
	sort.Slice(items, func(a, b int) bool {
		if items[a].CreatedAt.Equal(items[b].CreatedAt) {
			return items[a].ID < items[b].ID
		}
		return items[a].CreatedAt.Before(items[b].CreatedAt)
	})
	return items
}

func (s *Store) UpdateItem(ctx context.Context, item *domain.AuctionItem) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.updateLocked(item)
}

func (s *Store) updateLocked(item *domain.AuctionItem) error {
	stored, ok := s.items[item.ID]
	if !ok {
		return fmt.Errorf("%w: item %s", domain.ErrNotFound, item.ID)
	}
	if stored.Version != item.Version {
		return fmt.Errorf("%w: item %s at version %d, have %d", domain.ErrVersionConflict, item.ID, stored.Version, item.Version)
	}

	item.Version++
	s.items[item.ID] = item.Clone()
	return nil
}

func (s *Store) CountBids(ctx context.Context, itemID string) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.bids[itemID]), nil
}

func (s *Store) ListBids(ctx context.Context, itemID string) ([]*domain.Bid, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	bids := make([]*domain.Bid, 0, len(s.bids[itemID]))
	for _, bid := range s.bids[itemID] {
		b := *bid
		bids = append(bids, &b)
	}
	return bids, nil
}

func (s *Store) GetReceiptByItem(ctx context.Context, itemID string) (*domain.Receipt, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	receipt, ok := s.receipts[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: receipt for item %s", domain.ErrNotFound, itemID)
	}
	r := *receipt
	return &r, nil
}

func (s *Store) CommitBid(ctx context.Context, item *domain.AuctionItem, bid *domain.Bid) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.updateLocked(item); err != nil {
		return err
	}
	b := *bid
	s.bids[bid.ItemID] = append(s.bids[bid.ItemID], &b)
	return nil
}

func (s *Store) CommitPayment(ctx context.Context, item *domain.AuctionItem, receipt *domain.Receipt) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.receipts[receipt.ItemID]; exists {
		return fmt.Errorf("%w: receipt for item %s", domain.ErrConflict, receipt.ItemID)
	}
	if err := s.updateLocked(item); err != nil {
		return err
	}
	r := *receipt
	s.receipts[receipt.ItemID] = &r
	return nil
}
