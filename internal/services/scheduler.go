package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"

	"github.com/robfig/cron/v3"
)

type SweepResult struct {
	Sold    int
	Expired int
	Failed  int
}

// ExpiryScheduler periodically closes forward auctions whose end time has
// passed. Dutch items are never touched here.
type ExpiryScheduler struct {
	cron       *cron.Cron
	interval   time.Duration
	store      repositories.AuctionStore
	items      *itemMutator
	notifier   *Notifier
	leader     domain.LeaderElection
	instanceID string
	clock      utils.Clock
	log        logger.Logger

	running sync.Mutex
}

func NewExpiryScheduler(
	store repositories.AuctionStore,
	locker *ItemLocker,
	notifier *Notifier,
	clock utils.Clock,
	interval time.Duration,
	log logger.Logger,
) *ExpiryScheduler {
	return &ExpiryScheduler{
		cron:     cron.New(),
		interval: interval,
		store:    store,
		items:    &itemMutator{store: store, locker: locker, log: log},
		notifier: notifier,
		clock:    clock,
		log:      log,
	}
}

// SetLeaderElection restricts sweeping to the elected instance.
func (s *ExpiryScheduler) SetLeaderElection(leader domain.LeaderElection, instanceID string) {
	s.leader = leader
	s.instanceID = instanceID
}

func (s *ExpiryScheduler) Start(ctx context.Context) error {
	s.log.Info("Starting expiry scheduler", "interval", s.interval)

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.log.Error("Expiry sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *ExpiryScheduler) Stop() error {
	s.log.Info("Stopping expiry scheduler")
	<-s.cron.Stop().Done()
	return nil
}

// Sweep runs one pass. Overlapping calls are serialized; a failure on one
// item is logged and the pass moves on.
func (s *ExpiryScheduler) Sweep(ctx context.Context) (SweepResult, error) {
	s.running.Lock()
	defer s.running.Unlock()

	var result SweepResult

	if s.leader != nil {
		isLeader, err := s.leader.IsLeader(ctx, s.instanceID)
		if err != nil {
			return result, fmt.Errorf("check leadership: %w", err)
		}
		if !isLeader {
			s.log.Debug("Skipping sweep, not leader", "instance_id", s.instanceID)
			return result, nil
		}
	}

	candidates, err := s.store.ListItemsByStatus(ctx, domain.StatusAvailable)
	if err != nil {
		return result, storeError("list available items", err)
	}

	now := s.clock.Now()
	for _, candidate := range candidates {
		if !isOverdue(candidate, now) {
			continue
		}

		item, err := s.closeItem(ctx, candidate.ID, now)
		switch {
		case errors.Is(err, errSkip):
			continue
		case err != nil:
			result.Failed++
			s.log.Error("Failed to close item", "item_id", candidate.ID, "error", err)
			continue
		}

		if item.Status == domain.StatusSold {
			result.Sold++
		} else {
			result.Expired++
		}
		s.log.Info("Closed forward auction", "item_id", item.ID, "status", item.Status, "winner_id", item.HighestBidderID)
		s.notifier.ItemUpdated(ctx, item)
	}

	if result != (SweepResult{}) {
		s.log.Info("Expiry sweep finished", "sold", result.Sold, "expired", result.Expired, "failed", result.Failed)
	}
	return result, nil
}

func isOverdue(item *domain.AuctionItem, now time.Time) bool {
	return item.Type == domain.ItemForward &&
		item.Status == domain.StatusAvailable &&
		now.After(item.EndTime)
}

func (s *ExpiryScheduler) closeItem(ctx context.Context, itemID string, now time.Time) (*domain.AuctionItem, error) {
	return s.items.mutate(ctx, itemID,
		func(ctx context.Context, item *domain.AuctionItem) error {
			// Re-checked under the lock; a bid or another sweep may have won the race.
			if !isOverdue(item, now) {
				return errSkip
			}

			bids, err := s.store.CountBids(ctx, item.ID)
			if err != nil {
				return storeError("count bids", err)
			}
			if bids > 0 {
				return item.Transition(domain.StatusSold, now)
			}
			return item.Transition(domain.StatusExpired, now)
		},
		s.store.UpdateItem,
	)
}
