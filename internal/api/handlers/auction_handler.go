package handlers

import (
	"context"
	"net/http"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type AuctionHandler struct {
	auctions   *services.AuctionService
	dispatcher *services.Dispatcher
	log        logger.Logger
}

type CreateForwardItemRequest struct {
	Name         string          `json:"name" validate:"required"`
	Description  string          `json:"description"`
	StartPrice   decimal.Decimal `json:"start_price"`
	ShippingTime int             `json:"shipping_time_days" validate:"gt=0"`
	SellerID     string          `json:"seller_id" validate:"required"`
	EndTime      time.Time       `json:"end_time"`
}

type CreateDutchItemRequest struct {
	Name         string          `json:"name" validate:"required"`
	Description  string          `json:"description"`
	StartPrice   decimal.Decimal `json:"start_price"`
	ReservePrice decimal.Decimal `json:"reserve_price"`
	ShippingTime int             `json:"shipping_time_days" validate:"gt=0"`
	SellerID     string          `json:"seller_id" validate:"required"`
}

type DecreasePriceRequest struct {
	SellerID string          `json:"seller_id" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
}

type CancelItemRequest struct {
	SellerID string `json:"seller_id" validate:"required"`
}

func NewAuctionHandler(auctions *services.AuctionService, dispatcher *services.Dispatcher, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		auctions:   auctions,
		dispatcher: dispatcher,
		log:        log,
	}
}

func (h *AuctionHandler) Register(g *echo.Group) {
	g.POST("/items/forward", h.CreateForwardItem)
	g.POST("/items/dutch", h.CreateDutchItem)
	g.GET("/items", h.ListItems)
	g.GET("/items/search", h.SearchItems)
	g.GET("/items/name/:name", h.GetItemByName)
	g.GET("/items/:id", h.GetItem)
	g.POST("/items/:id/decrease", h.DecreasePrice)
	g.POST("/items/:id/cancel", h.CancelItem)
}

func (h *AuctionHandler) CreateForwardItem(c echo.Context) error {
	var req CreateForwardItemRequest
	if err := bind(c, &req); err != nil {
		return MakeJsonResp(c, http.StatusBadRequest, err)
	}

	var item *domain.AuctionItem
	err := h.dispatcher.Submit(c.Request().Context(), func(ctx context.Context) (err error) {
		item, err = h.auctions.CreateForwardItem(ctx, domain.NewForwardItemParams{
			Name:         req.Name,
			Description:  req.Description,
			StartPrice:   req.StartPrice,
			ShippingTime: req.ShippingTime,
			SellerID:     req.SellerID,
			EndTime:      req.EndTime,
		})
		return err
	})
	if err != nil {
		return h.fail(c, "create forward item", err)
	}
	return MakeJsonResp(c, http.StatusCreated, item)
}

func (h *AuctionHandler) CreateDutchItem(c echo.Context) error {
	var req CreateDutchItemRequest
	if err := bind(c, &req); err != nil {
		return MakeJsonResp(c, http.StatusBadRequest, err)
	}

	var item *domain.AuctionItem
	err := h.dispatcher.Submit(c.Request().Context(), func(ctx context.Context) (err error) {
		item, err = h.auctions.CreateDutchItem(ctx, domain.NewDutchItemParams{
			Name:         req.Name,
			Description:  req.Description,
			StartPrice:   req.StartPrice,
			ReservePrice: req.ReservePrice,
			ShippingTime: req.ShippingTime,
			SellerID:     req.SellerID,
		})
		return err
	})
	if err != nil {
		return h.fail(c, "create dutch item", err)
	}
	return MakeJsonResp(c, http.StatusCreated, item)
}

// ListItems returns every item, or only those in ?status= when given.
func (h *AuctionHandler) ListItems(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		items []*domain.AuctionItem
		err   error
	)
	if status := c.QueryParam("status"); status != "" {
		items, err = h.auctions.GetItemsByStatus(ctx, domain.ItemStatus(status))
	} else {
		items, err = h.auctions.GetAllItems(ctx)
	}
	if err != nil {
		return h.fail(c, "list items", err)
	}
	return MakeJsonResp(c, http.StatusOK, items)
}

func (h *AuctionHandler) SearchItems(c echo.Context) error {
	items, err := h.auctions.SearchByKeyword(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return h.fail(c, "search items", err)
	}
	return MakeJsonResp(c, http.StatusOK, items)
}

func (h *AuctionHandler) GetItem(c echo.Context) error {
	item, err := h.auctions.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, "get item", err)
	}
	return MakeJsonResp(c, http.StatusOK, item)
}

func (h *AuctionHandler) GetItemByName(c echo.Context) error {
	item, err := h.auctions.GetByName(c.Request().Context(), c.Param("name"))
	if err != nil {
		return h.fail(c, "get item by name", err)
	}
	return MakeJsonResp(c, http.StatusOK, item)
}

func (h *AuctionHandler) DecreasePrice(c echo.Context) error {
	var req DecreasePriceRequest
	if err := bind(c, &req); err != nil {
		return MakeJsonResp(c, http.StatusBadRequest, err)
	}

	itemID := c.Param("id")
	var item *domain.AuctionItem
	err := h.dispatcher.Submit(c.Request().Context(), func(ctx context.Context) (err error) {
		item, err = h.auctions.DecreasePrice(ctx, itemID, req.SellerID, req.Amount)
		return err
	})
	if err != nil {
		return h.fail(c, "decrease price", err)
	}
	return MakeJsonResp(c, http.StatusOK, item)
}

func (h *AuctionHandler) CancelItem(c echo.Context) error {
	var req CancelItemRequest
	if err := bind(c, &req); err != nil {
		return MakeJsonResp(c, http.StatusBadRequest, err)
	}

	itemID := c.Param("id")
	var item *domain.AuctionItem
	err := h.dispatcher.Submit(c.Request().Context(), func(ctx context.Context) (err error) {
		item, err = h.auctions.CancelItem(ctx, itemID, req.SellerID)
		return err
	})
	if err != nil {
		return h.fail(c, "cancel item", err)
	}
	return MakeJsonResp(c, http.StatusOK, item)
}

func (h *AuctionHandler) fail(c echo.Context, op string, err error) error {
	if StatusFor(err) == http.StatusInternalServerError {
		h.log.Error("Request failed", "op", op, "path", c.Path(), "error", err)
	}
	return MakeJsonResp(c, http.StatusInternalServerError, err)
}
