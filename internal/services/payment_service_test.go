package services

import (
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/infrastructure/memory"
)

func (ts *serviceSuite) soldItem(winner string) *domain.AuctionItem {
	item := ts.dutchItem("Vase", 200, 100)
	_, err := ts.bids.CreateBid(mockCtx, item.ID, winner, dec(200))
	ts.Require().NoError(err)
	return item
}

func (ts *serviceSuite) TestMakePayment() {
	item := ts.soldItem("bidder-1")

	receipt, err := ts.payments.MakePayment(mockCtx, item.ID, validPayer("bidder-1"), validCard())
	ts.Require().NoError(err)
	ts.Equal(item.ID, receipt.ItemID)
	ts.Equal("bidder-1", receipt.BuyerID)
	ts.True(receipt.TotalCost.Equal(dec(200)))
	ts.Equal(5, receipt.ShippingTime)
	ts.Equal("Toronto", receipt.ShippingAddress.City)
	ts.Equal("************1111", receipt.PaymentCard.Number)
	ts.Empty(receipt.PaymentCard.CVV)

	ts.Equal(domain.StatusPaid, ts.reload(item.ID).Status)

	stored, err := ts.payments.GetReceipt(mockCtx, item.ID)
	ts.Require().NoError(err)
	ts.Equal(receipt.ID, stored.ID)

	ts.publisher.AssertNumberOfCalls(ts.T(), "BroadcastPayment", 1)
}

func (ts *serviceSuite) TestPayTwiceRejected() {
	item := ts.soldItem("bidder-1")

	_, err := ts.payments.MakePayment(mockCtx, item.ID, validPayer("bidder-1"), validCard())
	ts.Require().NoError(err)

	_, err = ts.payments.MakePayment(mockCtx, item.ID, validPayer("bidder-1"), validCard())
	ts.ErrorIs(err, domain.ErrInvalidState)
}

func (ts *serviceSuite) TestPaymentByNonWinner() {
	item := ts.soldItem("bidder-1")

	_, err := ts.payments.MakePayment(mockCtx, item.ID, validPayer("bidder-2"), validCard())
	ts.ErrorIs(err, domain.ErrInvalidPayer)
	ts.Equal(domain.StatusSold, ts.reload(item.ID).Status)

	_, err = ts.payments.GetReceipt(mockCtx, item.ID)
	ts.ErrorIs(err, domain.ErrNotFound)
}

func (ts *serviceSuite) TestPaymentOnOpenItem() {
	item := ts.forwardItem("Camera", 100)
	_, err := ts.bids.CreateBid(mockCtx, item.ID, "bidder-1", dec(120))
	ts.Require().NoError(err)

	_, err = ts.payments.MakePayment(mockCtx, item.ID, validPayer("bidder-1"), validCard())
	ts.ErrorIs(err, domain.ErrInvalidState)

	_, err = ts.payments.MakePayment(mockCtx, "item-missing", validPayer("bidder-1"), validCard())
	ts.ErrorIs(err, domain.ErrNotFound)
}

func (ts *serviceSuite) TestPaymentInputValidation() {
	item := ts.soldItem("bidder-1")

	badNumber := validCard()
	badNumber.Number = "4111111111111112"
	_, err := ts.payments.MakePayment(mockCtx, item.ID, validPayer("bidder-1"), badNumber)
	ts.ErrorIs(err, domain.ErrValidation)

	expired := validCard()
	expired.ExpiryYear, expired.ExpiryMonth = 2026, 2
	_, err = ts.payments.MakePayment(mockCtx, item.ID, validPayer("bidder-1"), expired)
	ts.ErrorIs(err, domain.ErrValidation)

	badCVV := validCard()
	badCVV.CVV = "12a"
	_, err = ts.payments.MakePayment(mockCtx, item.ID, validPayer("bidder-1"), badCVV)
	ts.ErrorIs(err, domain.ErrValidation)

	noAddress := validPayer("bidder-1")
	noAddress.Address.City = ""
	_, err = ts.payments.MakePayment(mockCtx, item.ID, noAddress, validCard())
	ts.ErrorIs(err, domain.ErrValidation)

	_, err = ts.payments.MakePayment(mockCtx, item.ID, validPayer(""), validCard())
	ts.ErrorIs(err, domain.ErrValidation)

	ts.Equal(domain.StatusSold, ts.reload(item.ID).Status)
}

func (ts *serviceSuite) TestPaymentCommitFailure() {
	store := &failingStore{Store: memory.NewStore(), err: errDiskFull}
	ts.build(store, ts.publisher)

	item := ts.dutchItem("Vase", 200, 100)
	sold := ts.reload(item.ID)
	sold.HighestBidderID = "bidder-1"
	ts.Require().NoError(sold.Transition(domain.StatusSold, t0))
	ts.Require().NoError(store.UpdateItem(mockCtx, sold))

	_, err := ts.payments.MakePayment(mockCtx, item.ID, validPayer("bidder-1"), validCard())
	ts.ErrorIs(err, domain.ErrInfrastructure)
	ts.Equal(domain.StatusSold, ts.reload(item.ID).Status)
}
