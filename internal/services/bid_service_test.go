package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/mocks"
	"auction-marketplace/internal/infrastructure/memory"

	"github.com/stretchr/testify/mock"
)

func (ts *serviceSuite) TestForwardBidding() {
	item := ts.forwardItem("Camera", 100)

	placed, err := ts.bids.CreateBid(mockCtx, item.ID, "bidder-1", dec(120))
	ts.Require().NoError(err)
	ts.True(placed.Item.CurrentPrice.Equal(dec(120)))
	ts.Equal("bidder-1", placed.Item.HighestBidderID)
	ts.True(placed.Bid.Amount.Equal(dec(120)))

	_, err = ts.bids.CreateBid(mockCtx, item.ID, "bidder-2", dec(110))
	ts.ErrorIs(err, domain.ErrInvalidBid)

	_, err = ts.bids.CreateBid(mockCtx, item.ID, "bidder-2", dec(120))
	ts.ErrorIs(err, domain.ErrInvalidBid)

	_, err = ts.bids.CreateBid(mockCtx, item.ID, "bidder-2", dec(150))
	ts.Require().NoError(err)

	stored := ts.reload(item.ID)
	ts.True(stored.CurrentPrice.Equal(dec(150)))
	ts.Equal("bidder-2", stored.HighestBidderID)
	ts.Equal(domain.StatusAvailable, stored.Status)

	bids, err := ts.bids.GetBidsForItem(mockCtx, item.ID)
	ts.Require().NoError(err)
	ts.Len(bids, 2)

	ts.publisher.AssertNumberOfCalls(ts.T(), "BroadcastNewBid", 2)
}

func (ts *serviceSuite) TestForwardBidAfterEndTimeExpired() {
	item := ts.forwardItem("Camera", 100)
	ts.clock.Advance(week + time.Second)

	_, err := ts.bids.CreateBid(mockCtx, item.ID, "bidder-1", dec(120))
	ts.ErrorIs(err, domain.ErrExpired)

	stored := ts.reload(item.ID)
	ts.True(stored.CurrentPrice.Equal(dec(100)))
	ts.False(stored.HasBidder())
}

func (ts *serviceSuite) TestBidInputValidation() {
	item := ts.forwardItem("Camera", 100)

	_, err := ts.bids.CreateBid(mockCtx, item.ID, "", dec(120))
	ts.ErrorIs(err, domain.ErrValidation)

	_, err = ts.bids.CreateBid(mockCtx, item.ID, "bidder-1", dec(0))
	ts.ErrorIs(err, domain.ErrInvalidBid)

	_, err = ts.bids.CreateBid(mockCtx, "item-missing", "bidder-1", dec(120))
	ts.ErrorIs(err, domain.ErrNotFound)

	_, err = ts.bids.CreateBid(mockCtx, "item-missing", "bidder-1", dec(0))
	ts.ErrorIs(err, domain.ErrNotFound)

	sold := ts.dutchItem("Clock", 50, 10)
	_, err = ts.bids.CreateBid(mockCtx, sold.ID, "bidder-2", dec(50))
	ts.Require().NoError(err)
	_, err = ts.bids.CreateBid(mockCtx, sold.ID, "bidder-3", dec(0))
	ts.ErrorIs(err, domain.ErrInvalidState)

	_, err = ts.bids.GetBidsForItem(mockCtx, "item-missing")
	ts.ErrorIs(err, domain.ErrNotFound)
}

func (ts *serviceSuite) TestDutchBidSellsImmediately() {
	item := ts.dutchItem("Vase", 200, 100)

	_, err := ts.bids.CreateBid(mockCtx, item.ID, "bidder-1", dec(150))
	ts.ErrorIs(err, domain.ErrInvalidBid)

	placed, err := ts.bids.CreateBid(mockCtx, item.ID, "bidder-1", dec(200))
	ts.Require().NoError(err)
	ts.Equal(domain.StatusSold, placed.Item.Status)

	_, err = ts.bids.CreateBid(mockCtx, item.ID, "bidder-2", dec(200))
	ts.ErrorIs(err, domain.ErrInvalidState)
}

func (ts *serviceSuite) TestOutstandingPaymentBlocksBidding() {
	won := ts.dutchItem("Vase", 200, 100)
	other := ts.forwardItem("Camera", 100)

	_, err := ts.bids.CreateBid(mockCtx, won.ID, "bidder-1", dec(200))
	ts.Require().NoError(err)

	_, err = ts.bids.CreateBid(mockCtx, other.ID, "bidder-1", dec(120))
	ts.ErrorIs(err, domain.ErrOutstandingPayment)
	ts.False(ts.reload(other.ID).HasBidder())

	_, err = ts.payments.MakePayment(mockCtx, won.ID, validPayer("bidder-1"), validCard())
	ts.Require().NoError(err)

	_, err = ts.bids.CreateBid(mockCtx, other.ID, "bidder-1", dec(120))
	ts.NoError(err)
}

func (ts *serviceSuite) TestConcurrentDutchBidsSellOnce() {
	item := ts.dutchItem("Vase", 200, 100)

	const bidders = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  []string
		rejected int
	)
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(bidderID string) {
			defer wg.Done()
			_, err := ts.bids.CreateBid(mockCtx, item.ID, bidderID, dec(200))

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners = append(winners, bidderID)
			} else if errors.Is(err, domain.ErrInvalidState) {
				rejected++
			}
		}(fmt.Sprintf("bidder-%d", i))
	}
	wg.Wait()

	ts.Require().Len(winners, 1)
	ts.Equal(bidders-1, rejected)

	stored := ts.reload(item.ID)
	ts.Equal(domain.StatusSold, stored.Status)
	ts.Equal(winners[0], stored.HighestBidderID)

	bids, err := ts.bids.GetBidsForItem(mockCtx, item.ID)
	ts.Require().NoError(err)
	ts.Len(bids, 1)
	ts.Zero(ts.locker.size())
}

func (ts *serviceSuite) TestConcurrentForwardBidsKeepHighest() {
	item := ts.forwardItem("Camera", 100)

	var wg sync.WaitGroup
	for amount := int64(101); amount <= 120; amount++ {
		wg.Add(1)
		go func(amount int64) {
			defer wg.Done()
			_, err := ts.bids.CreateBid(mockCtx, item.ID, fmt.Sprintf("bidder-%d", amount), dec(amount))
			if err != nil {
				ts.ErrorIs(err, domain.ErrInvalidBid)
			}
		}(amount)
	}
	wg.Wait()

	stored := ts.reload(item.ID)
	ts.True(stored.CurrentPrice.Equal(dec(120)))
	ts.Equal("bidder-120", stored.HighestBidderID)

	bids, err := ts.bids.GetBidsForItem(mockCtx, item.ID)
	ts.Require().NoError(err)
	ts.NotEmpty(bids)
	for i := 1; i < len(bids); i++ {
		ts.True(bids[i].Amount.GreaterThan(bids[i-1].Amount), "bid %d not above its predecessor", i)
	}
}

func (ts *serviceSuite) TestPublishFailureKeepsBid() {
	broken := &mocks.UpdatePublisher{}
	broken.On("BroadcastItemUpdate", mock.Anything, mock.Anything).Return(errors.New("bus down"))
	broken.On("BroadcastNewBid", mock.Anything, mock.Anything).Return(errors.New("bus down"))
	ts.build(ts.store, broken)

	item := ts.forwardItem("Camera", 100)
	placed, err := ts.bids.CreateBid(mockCtx, item.ID, "bidder-1", dec(120))
	ts.Require().NoError(err)
	ts.True(placed.Item.CurrentPrice.Equal(dec(120)))
	ts.True(ts.reload(item.ID).CurrentPrice.Equal(dec(120)))
}

func (ts *serviceSuite) TestCommitFailureLeavesItemUnchanged() {
	store := &failingStore{Store: memory.NewStore(), err: errDiskFull}
	ts.build(store, ts.publisher)

	item := ts.forwardItem("Camera", 100)
	_, err := ts.bids.CreateBid(mockCtx, item.ID, "bidder-1", dec(120))
	ts.ErrorIs(err, domain.ErrInfrastructure)
	ts.ErrorIs(err, errDiskFull)

	stored := ts.reload(item.ID)
	ts.True(stored.CurrentPrice.Equal(dec(100)))
	ts.False(stored.HasBidder())

	count, err := store.CountBids(mockCtx, item.ID)
	ts.NoError(err)
	ts.Zero(count)
	ts.publisher.AssertNotCalled(ts.T(), "BroadcastNewBid", mock.Anything, mock.Anything)
}

func (ts *serviceSuite) TestVersionConflictIsRetried() {
	store := &racingStore{Store: memory.NewStore(), conflicts: 1}
	ts.build(store, ts.publisher)

	item := ts.forwardItem("Camera", 100)
	_, err := ts.bids.CreateBid(mockCtx, item.ID, "bidder-1", dec(120))
	ts.Require().NoError(err)
	ts.Equal(2, store.attempts)
	ts.True(ts.reload(item.ID).CurrentPrice.Equal(dec(120)))
}

func (ts *serviceSuite) TestVersionConflictGivesUp() {
	store := &racingStore{Store: memory.NewStore(), conflicts: maxCommitAttempts}
	ts.build(store, ts.publisher)

	item := ts.forwardItem("Camera", 100)
	_, err := ts.bids.CreateBid(mockCtx, item.ID, "bidder-1", dec(120))
	ts.ErrorIs(err, domain.ErrInfrastructure)
	ts.Equal(maxCommitAttempts, store.attempts)
	ts.False(ts.reload(item.ID).HasBidder())
}
