package services

import (
	"errors"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/mocks"

	"github.com/stretchr/testify/mock"
)

func (ts *serviceSuite) TestCreateItems() {
	fwd := ts.forwardItem("Camera", 100)
	ts.Equal(domain.ItemForward, fwd.Type)
	ts.Equal(domain.StatusAvailable, fwd.Status)

	dutch := ts.dutchItem("Vase", 200, 100)
	ts.Equal(domain.ItemDutch, dutch.Type)

	ts.publisher.AssertNumberOfCalls(ts.T(), "BroadcastItemUpdate", 2)
}

func (ts *serviceSuite) TestCreateItemRejectsDuplicateName() {
	ts.forwardItem("Camera", 100)

	_, err := ts.auctions.CreateDutchItem(mockCtx, domain.NewDutchItemParams{
		Name:         "Camera",
		StartPrice:   dec(50),
		ReservePrice: dec(10),
		ShippingTime: 1,
		SellerID:     "seller-2",
	})
	ts.ErrorIs(err, domain.ErrConflict)
}

func (ts *serviceSuite) TestCreateItemValidation() {
	_, err := ts.auctions.CreateForwardItem(mockCtx, domain.NewForwardItemParams{
		Name:         "Late",
		StartPrice:   dec(10),
		ShippingTime: 1,
		SellerID:     "seller-1",
		EndTime:      t0.Add(-week),
	})
	ts.ErrorIs(err, domain.ErrValidation)

	_, err = ts.auctions.CreateDutchItem(mockCtx, domain.NewDutchItemParams{
		Name:         "Negative",
		StartPrice:   dec(10),
		ReservePrice: dec(-1),
		ShippingTime: 1,
		SellerID:     "seller-1",
	})
	ts.ErrorIs(err, domain.ErrValidation)

	items, err := ts.auctions.GetAllItems(mockCtx)
	ts.NoError(err)
	ts.Empty(items)
}

func (ts *serviceSuite) TestDecreasePriceScenario() {
	item := ts.dutchItem("Vase", 200, 100)

	got, err := ts.auctions.DecreasePrice(mockCtx, item.ID, "seller-1", dec(60))
	ts.Require().NoError(err)
	ts.True(got.CurrentPrice.Equal(dec(140)))
	ts.Equal(domain.StatusAvailable, got.Status)

	got, err = ts.auctions.DecreasePrice(mockCtx, item.ID, "seller-1", dec(50))
	ts.Require().NoError(err)
	ts.True(got.CurrentPrice.Equal(dec(90)), "price may fall below the reserve")
	ts.Equal(domain.StatusExpired, got.Status)

	_, err = ts.bids.CreateBid(mockCtx, item.ID, "bidder-1", dec(90))
	ts.ErrorIs(err, domain.ErrInvalidState)

	_, err = ts.auctions.DecreasePrice(mockCtx, item.ID, "seller-1", dec(10))
	ts.ErrorIs(err, domain.ErrInvalidState)

	stored := ts.reload(item.ID)
	ts.Equal(domain.StatusExpired, stored.Status)
	ts.True(stored.CurrentPrice.Equal(dec(90)))
}

func (ts *serviceSuite) TestDecreasePriceToReserveExpires() {
	item := ts.dutchItem("Clock", 150, 100)

	got, err := ts.auctions.DecreasePrice(mockCtx, item.ID, "seller-1", dec(50))
	ts.Require().NoError(err)
	ts.True(got.CurrentPrice.Equal(dec(100)))
	ts.Equal(domain.StatusExpired, got.Status)
}

func (ts *serviceSuite) TestDecreasePriceGuards() {
	dutch := ts.dutchItem("Vase", 200, 100)
	fwd := ts.forwardItem("Camera", 100)

	_, err := ts.auctions.DecreasePrice(mockCtx, dutch.ID, "someone-else", dec(10))
	ts.ErrorIs(err, domain.ErrNotSeller)

	_, err = ts.auctions.DecreasePrice(mockCtx, dutch.ID, "seller-1", dec(0))
	ts.ErrorIs(err, domain.ErrValidation)

	_, err = ts.auctions.DecreasePrice(mockCtx, fwd.ID, "seller-1", dec(10))
	ts.ErrorIs(err, domain.ErrInvalidState)

	_, err = ts.auctions.DecreasePrice(mockCtx, "item-missing", "seller-1", dec(10))
	ts.ErrorIs(err, domain.ErrNotFound)

	ts.True(ts.reload(dutch.ID).CurrentPrice.Equal(dec(200)))
}

func (ts *serviceSuite) TestCancelItem() {
	fresh := ts.forwardItem("Camera", 100)
	bidOn := ts.forwardItem("Lens", 100)

	_, err := ts.bids.CreateBid(mockCtx, bidOn.ID, "bidder-1", dec(110))
	ts.Require().NoError(err)

	_, err = ts.auctions.CancelItem(mockCtx, fresh.ID, "intruder")
	ts.ErrorIs(err, domain.ErrNotSeller)

	got, err := ts.auctions.CancelItem(mockCtx, fresh.ID, "seller-1")
	ts.Require().NoError(err)
	ts.Equal(domain.StatusCancelled, got.Status)

	_, err = ts.auctions.CancelItem(mockCtx, bidOn.ID, "seller-1")
	ts.ErrorIs(err, domain.ErrInvalidState)

	_, err = ts.bids.CreateBid(mockCtx, fresh.ID, "bidder-1", dec(200))
	ts.ErrorIs(err, domain.ErrInvalidState)
}

func (ts *serviceSuite) TestReadAccessors() {
	camera := ts.forwardItem("Vintage Camera", 100)
	ts.dutchItem("Camera Bag", 50, 10)
	ts.dutchItem("Vase", 200, 100)

	all, err := ts.auctions.GetAllItems(mockCtx)
	ts.NoError(err)
	ts.Len(all, 3)

	byName, err := ts.auctions.GetByName(mockCtx, "Vintage Camera")
	ts.NoError(err)
	ts.Equal(camera.ID, byName.ID)

	_, err = ts.auctions.GetByName(mockCtx, "Nothing")
	ts.ErrorIs(err, domain.ErrNotFound)

	_, err = ts.auctions.GetByID(mockCtx, "item-missing")
	ts.ErrorIs(err, domain.ErrNotFound)

	found, err := ts.auctions.SearchByKeyword(mockCtx, "CAMERA")
	ts.NoError(err)
	ts.Len(found, 2)

	available, err := ts.auctions.GetItemsByStatus(mockCtx, domain.StatusAvailable)
	ts.NoError(err)
	ts.Len(available, 3)
}

func (ts *serviceSuite) TestPublishFailureDoesNotUndoCreate() {
	broken := &mocks.UpdatePublisher{}
	broken.On("BroadcastItemUpdate", mock.Anything, mock.Anything).Return(errors.New("bus down")).Once()
	ts.build(ts.store, broken)

	item := ts.forwardItem("Camera", 100)
	ts.Equal(item.ID, ts.reload(item.ID).ID)
	broken.AssertExpectations(ts.T())
}
