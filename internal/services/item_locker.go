package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"
	"auction-marketplace/pkg/logger"
)

// ItemLocker hands out one mutex per item id. Entries are dropped once no
// goroutine holds or waits on them.
type ItemLocker struct {
	mutex sync.Mutex
	locks map[string]*itemLock
}

type itemLock struct {
	mu   sync.Mutex
	refs int
}

func NewItemLocker() *ItemLocker {
	return &ItemLocker{locks: make(map[string]*itemLock)}
}

func (l *ItemLocker) Lock(itemID string) (unlock func()) {
	l.mutex.Lock()
	lock, exists := l.locks[itemID]
	if !exists {
		lock = &itemLock{}
		l.locks[itemID] = lock
	}
	lock.refs++
	l.mutex.Unlock()

	lock.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			lock.mu.Unlock()

			l.mutex.Lock()
			lock.refs--
			if lock.refs == 0 {
				delete(l.locks, itemID)
			}
			l.mutex.Unlock()
		})
	}
}

func (l *ItemLocker) size() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.locks)
}

const maxCommitAttempts = 3

// errSkip aborts a mutation without error; the item is left untouched.
var errSkip = errors.New("skip")

type mutateFunc func(ctx context.Context, item *domain.AuctionItem) error
type commitFunc func(ctx context.Context, item *domain.AuctionItem) error

// itemMutator serializes read-modify-write cycles on one item. Inside a
// process the item lock orders callers; across processes the store's
// version check does, and a lost race is retried from a fresh read.
type itemMutator struct {
	store  repositories.ItemRepository
	locker *ItemLocker
	log    logger.Logger
}

func (m *itemMutator) mutate(ctx context.Context, itemID string, apply mutateFunc, commit commitFunc) (*domain.AuctionItem, error) {
	unlock := m.locker.Lock(itemID)
	defer unlock()

	for attempt := 1; ; attempt++ {
		item, err := m.store.GetItem(ctx, itemID)
		if err != nil {
			return nil, storeError("load item", err)
		}

		if err := apply(ctx, item); err != nil {
			return nil, err
		}

		err = commit(ctx, item)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, storeError("commit item", err)
		}
		if attempt == maxCommitAttempts {
			return nil, fmt.Errorf("%w: item %s kept changing after %d attempts", domain.ErrInfrastructure, itemID, attempt)
		}
		m.log.Warn("Item changed concurrently, retrying", "item_id", itemID, "attempt", attempt)
	}
}

// storeError passes domain errors through and tags everything else as an
// infrastructure failure.
func storeError(op string, err error) error {
	if domain.IsDomainError(err) || errors.Is(err, domain.ErrInfrastructure) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrInfrastructure, op, err)
}
