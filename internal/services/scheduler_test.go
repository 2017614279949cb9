package services

import (
	"context"
	"errors"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/mocks"
	"auction-marketplace/internal/infrastructure/memory"

	"github.com/stretchr/testify/mock"
)

func (ts *serviceSuite) TestSweepClosesOverdueForwardItems() {
	withBid := ts.forwardItem("Camera", 100)
	noBid := ts.forwardItem("Lens", 50)
	dutch := ts.dutchItem("Vase", 200, 100)

	_, err := ts.bids.CreateBid(mockCtx, withBid.ID, "bidder-1", dec(120))
	ts.Require().NoError(err)

	result, err := ts.scheduler.Sweep(mockCtx)
	ts.Require().NoError(err)
	ts.Equal(SweepResult{}, result, "nothing is due yet")

	ts.clock.Advance(week + time.Minute)

	result, err = ts.scheduler.Sweep(mockCtx)
	ts.Require().NoError(err)
	ts.Equal(SweepResult{Sold: 1, Expired: 1}, result)

	sold := ts.reload(withBid.ID)
	ts.Equal(domain.StatusSold, sold.Status)
	ts.Equal("bidder-1", sold.HighestBidderID)
	ts.True(sold.CurrentPrice.Equal(dec(120)))

	ts.Equal(domain.StatusExpired, ts.reload(noBid.ID).Status)
	ts.Equal(domain.StatusAvailable, ts.reload(dutch.ID).Status)

	receipt, err := ts.payments.MakePayment(mockCtx, withBid.ID, validPayer("bidder-1"), validCard())
	ts.Require().NoError(err)
	ts.True(receipt.TotalCost.Equal(dec(120)))
}

func (ts *serviceSuite) TestSweepIsIdempotent() {
	item := ts.forwardItem("Camera", 100)
	ts.clock.Advance(2 * week)

	first, err := ts.scheduler.Sweep(mockCtx)
	ts.Require().NoError(err)
	ts.Equal(1, first.Expired)
	afterFirst := ts.reload(item.ID)

	second, err := ts.scheduler.Sweep(mockCtx)
	ts.Require().NoError(err)
	ts.Equal(SweepResult{}, second)
	ts.Equal(afterFirst.Version, ts.reload(item.ID).Version)
}

func (ts *serviceSuite) TestSweepAtEndTimeLeavesItemOpen() {
	item := ts.forwardItem("Camera", 100)
	ts.clock.Advance(week)

	result, err := ts.scheduler.Sweep(mockCtx)
	ts.Require().NoError(err)
	ts.Equal(SweepResult{}, result)
	ts.Equal(domain.StatusAvailable, ts.reload(item.ID).Status)
}

func (ts *serviceSuite) TestSweepSkipsWhenNotLeader() {
	item := ts.forwardItem("Camera", 100)
	ts.clock.Advance(2 * week)

	leader := &mocks.LeaderElection{}
	leader.On("IsLeader", mock.Anything, "node-2").Return(false, nil).Once()
	ts.scheduler.SetLeaderElection(leader, "node-2")

	result, err := ts.scheduler.Sweep(mockCtx)
	ts.Require().NoError(err)
	ts.Equal(SweepResult{}, result)
	ts.Equal(domain.StatusAvailable, ts.reload(item.ID).Status)

	leader.On("IsLeader", mock.Anything, "node-2").Return(true, nil).Once()
	result, err = ts.scheduler.Sweep(mockCtx)
	ts.Require().NoError(err)
	ts.Equal(1, result.Expired)
	leader.AssertExpectations(ts.T())
}

func (ts *serviceSuite) TestSweepLeaderCheckError() {
	leader := &mocks.LeaderElection{}
	leader.On("IsLeader", mock.Anything, "node-1").Return(false, errors.New("redis down"))
	ts.scheduler.SetLeaderElection(leader, "node-1")

	_, err := ts.scheduler.Sweep(mockCtx)
	ts.Error(err)
}

// brokenItemStore fails every write to one item.
type brokenItemStore struct {
	*memory.Store
	itemID string
}

func (s *brokenItemStore) UpdateItem(ctx context.Context, item *domain.AuctionItem) error {
	if item.ID == s.itemID {
		return errDiskFull
	}
	return s.Store.UpdateItem(ctx, item)
}

func (ts *serviceSuite) TestSweepContinuesPastFailures() {
	store := &brokenItemStore{Store: memory.NewStore()}
	ts.build(store, ts.publisher)

	first := ts.forwardItem("Camera", 100)
	second := ts.forwardItem("Lens", 100)
	store.itemID = first.ID
	ts.clock.Advance(2 * week)

	result, err := ts.scheduler.Sweep(mockCtx)
	ts.Require().NoError(err)
	ts.Equal(SweepResult{Expired: 1, Failed: 1}, result)
	ts.Equal(domain.StatusAvailable, ts.reload(first.ID).Status)
	ts.Equal(domain.StatusExpired, ts.reload(second.ID).Status)
}

func (ts *serviceSuite) TestSweepSkipsItemsClosedMeanwhile() {
	item := ts.forwardItem("Camera", 100)
	ts.clock.Advance(2 * week)

	closed, err := ts.scheduler.closeItem(mockCtx, item.ID, ts.clock.Now())
	ts.Require().NoError(err)
	ts.Equal(domain.StatusExpired, closed.Status)

	_, err = ts.scheduler.closeItem(mockCtx, item.ID, ts.clock.Now())
	ts.ErrorIs(err, errSkip)
}

func (ts *serviceSuite) TestSchedulerStartStop() {
	ts.scheduler.interval = time.Second
	item := ts.forwardItem("Camera", 100)
	ts.clock.Advance(2 * week)

	ts.Require().NoError(ts.scheduler.Start(mockCtx))
	ts.Eventually(func() bool {
		got, err := ts.store.GetItem(mockCtx, item.ID)
		return err == nil && got.Status == domain.StatusExpired
	}, 5*time.Second, 20*time.Millisecond)
	ts.NoError(ts.scheduler.Stop())
}
