package handlers

import (
	"context"
	"net/http"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type BidHandler struct {
	bids       *services.BidService
	payments   *services.PaymentService
	dispatcher *services.Dispatcher
	log        logger.Logger
}

type CreateBidRequest struct {
	BidderID string          `json:"bidder_id" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
}

type MakePaymentRequest struct {
	PayerID string             `json:"payer_id" validate:"required"`
	Address domain.Address     `json:"shipping_address"`
	Card    domain.PaymentCard `json:"payment_card"`
}

func NewBidHandler(bids *services.BidService, payments *services.PaymentService, dispatcher *services.Dispatcher, log logger.Logger) *BidHandler {
	return &BidHandler{
		bids:       bids,
		payments:   payments,
		dispatcher: dispatcher,
		log:        log,
	}
}

func (h *BidHandler) Register(g *echo.Group) {
	g.POST("/items/:id/bids", h.CreateBid)
	g.GET("/items/:id/bids", h.ListBids)
	g.POST("/items/:id/payment", h.MakePayment)
	g.GET("/items/:id/receipt", h.GetReceipt)
}

func (h *BidHandler) CreateBid(c echo.Context) error {
	var req CreateBidRequest
	if err := bind(c, &req); err != nil {
		return MakeJsonResp(c, http.StatusBadRequest, err)
	}

	itemID := c.Param("id")
	var placed *services.BidPlacement
	err := h.dispatcher.Submit(c.Request().Context(), func(ctx context.Context) (err error) {
		placed, err = h.bids.CreateBid(ctx, itemID, req.BidderID, req.Amount)
		return err
	})
	if err != nil {
		return h.fail(c, "create bid", err)
	}
	return MakeJsonResp(c, http.StatusCreated, placed)
}

func (h *BidHandler) ListBids(c echo.Context) error {
	bids, err := h.bids.GetBidsForItem(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, "list bids", err)
	}
	return MakeJsonResp(c, http.StatusOK, bids)
}

// MakePayment leaves card and address checks to the payment service so the
// rules live in one place.
func (h *BidHandler) MakePayment(c echo.Context) error {
	var req MakePaymentRequest
	if err := c.Bind(&req); err != nil {
		return MakeJsonResp(c, http.StatusBadRequest, err)
	}

	itemID := c.Param("id")
	payer := domain.Payer{ID: req.PayerID, Address: req.Address}
	var receipt *domain.Receipt
	err := h.dispatcher.Submit(c.Request().Context(), func(ctx context.Context) (err error) {
		receipt, err = h.payments.MakePayment(ctx, itemID, payer, req.Card)
		return err
	})
	if err != nil {
		return h.fail(c, "make payment", err)
	}
	return MakeJsonResp(c, http.StatusCreated, receipt)
}

func (h *BidHandler) GetReceipt(c echo.Context) error {
	receipt, err := h.payments.GetReceipt(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, "get receipt", err)
	}
	return MakeJsonResp(c, http.StatusOK, receipt)
}

func (h *BidHandler) fail(c echo.Context, op string, err error) error {
	if StatusFor(err) == http.StatusInternalServerError {
		h.log.Error("Request failed", "op", op, "path", c.Path(), "error", err)
	}
	return MakeJsonResp(c, http.StatusInternalServerError, err)
}
