package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ItemType string

const (
	ItemForward ItemType = "FORWARD"
	ItemDutch   ItemType = "DUTCH"
)

func (t ItemType) Valid() bool {
	return t == ItemForward || t == ItemDutch
}

type ItemStatus string

const (
	StatusAvailable ItemStatus = "AVAILABLE"
	StatusSold      ItemStatus = "SOLD"
	StatusExpired   ItemStatus = "EXPIRED"
	StatusCancelled ItemStatus = "CANCELLED"
	StatusPaid      ItemStatus = "PAID"
)

var itemTransitions = map[ItemStatus][]ItemStatus{
	StatusAvailable: {StatusSold, StatusExpired, StatusCancelled},
	StatusSold:      {StatusPaid},
}

func (s ItemStatus) String() string {
	return string(s)
}

func (s ItemStatus) Terminal() bool {
	return len(itemTransitions[s]) == 0
}

func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	for _, allowed := range itemTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AuctionItem is a tagged variant: EndTime is only meaningful for FORWARD
// items and ReservePrice only for DUTCH items.
type AuctionItem struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	ShippingTime    int             `json:"shipping_time_days"`
	Type            ItemType        `json:"type"`
	Status          ItemStatus      `json:"status"`
	SellerID        string          `json:"seller_id"`
	HighestBidderID string          `json:"highest_bidder_id,omitempty"`
	EndTime         time.Time       `json:"end_time,omitempty"`
	ReservePrice    decimal.Decimal `json:"reserve_price"`
	Version         int64           `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (i *AuctionItem) Clone() *AuctionItem {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

func (i *AuctionItem) HasBidder() bool {
	return i.HighestBidderID != ""
}

// Transition moves the item to next, failing with ErrInvalidState when the
// state machine does not allow it.
func (i *AuctionItem) Transition(next ItemStatus, now time.Time) error {
	if !i.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: cannot move item %s from %s to %s", ErrInvalidState, i.ID, i.Status, next)
	}
	i.Status = next
	i.UpdatedAt = now
	return nil
}

// Matches reports whether keyword occurs in the name or description, ignoring case.
func (i *AuctionItem) Matches(keyword string) bool {
	k := strings.ToLower(strings.TrimSpace(keyword))
	if k == "" {
		return true
	}
	return strings.Contains(strings.ToLower(i.Name), k) ||
		strings.Contains(strings.ToLower(i.Description), k)
}

type NewForwardItemParams struct {
	Name         string
	Description  string
	StartPrice   decimal.Decimal
	ShippingTime int
	SellerID     string
	EndTime      time.Time
}

type NewDutchItemParams struct {
	Name         string
	Description  string
	StartPrice   decimal.Decimal
	ReservePrice decimal.Decimal
	ShippingTime int
	SellerID     string
}

func validateCommon(name string, price decimal.Decimal, shippingTime int, sellerID string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if shippingTime <= 0 {
		return fmt.Errorf("%w: shipping time must be positive", ErrValidation)
	}
	if sellerID == "" {
		return fmt.Errorf("%w: seller is required", ErrValidation)
	}
	return nil
}

func NewForwardItem(id string, p NewForwardItemParams, now time.Time) (*AuctionItem, error) {
	if err := validateCommon(p.Name, p.StartPrice, p.ShippingTime, p.SellerID); err != nil {
		return nil, err
	}
	if !p.EndTime.After(now) {
		return nil, fmt.Errorf("%w: end time must be in the future", ErrValidation)
	}

	return &AuctionItem{
		ID:           id,
		Name:         strings.TrimSpace(p.Name),
		Description:  p.Description,
		CurrentPrice: p.StartPrice,
		ShippingTime: p.ShippingTime,
		Type:         ItemForward,
		Status:       StatusAvailable,
		SellerID:     p.SellerID,
		EndTime:      p.EndTime.UTC(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func NewDutchItem(id string, p NewDutchItemParams, now time.Time) (*AuctionItem, error) {
	if err := validateCommon(p.Name, p.StartPrice, p.ShippingTime, p.SellerID); err != nil {
		return nil, err
	}
	if p.ReservePrice.IsNegative() {
		return nil, fmt.Errorf("%w: reserve price must not be negative", ErrValidation)
	}
	if !p.ReservePrice.LessThan(p.StartPrice) {
		return nil, fmt.Errorf("%w: reserve price must be below the start price", ErrValidation)
	}

	return &AuctionItem{
		ID:           id,
		Name:         strings.TrimSpace(p.Name),
		Description:  p.Description,
		CurrentPrice: p.StartPrice,
		ShippingTime: p.ShippingTime,
		Type:         ItemDutch,
		Status:       StatusAvailable,
		SellerID:     p.SellerID,
		ReservePrice: p.ReservePrice,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

type Bid struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"item_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

type Receipt struct {
	ID              string          `json:"id"`
	ItemID          string          `json:"item_id"`
	BuyerID         string          `json:"buyer_id"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	ShippingTime    int             `json:"shipping_time_days"`
	ShippingAddress Address         `json:"shipping_address"`
	PaymentCard     PaymentCard     `json:"payment_card"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Payer is the account-side view of whoever settles a won item.
type Payer struct {
	ID      string
	Address Address
}
