package domain

import "time"

type AuctionEventType string

const (
	EventItemUpdated AuctionEventType = "item_updated"
	EventNewBid      AuctionEventType = "new_bid"
	EventPayment     AuctionEventType = "payment"
)

// AuctionEvent is the wire form of every published update.
type AuctionEvent struct {
	Type      AuctionEventType `json:"type"`
	ItemID    string           `json:"item_id"`
	Item      *AuctionItem     `json:"item,omitempty"`
	Bid       *Bid             `json:"bid,omitempty"`
	Receipt   *Receipt         `json:"receipt,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

func NewItemUpdatedEvent(item *AuctionItem, at time.Time) *AuctionEvent {
	return &AuctionEvent{Type: EventItemUpdated, ItemID: item.ID, Item: item, Timestamp: at}
}

func NewBidEvent(bid *Bid, at time.Time) *AuctionEvent {
	return &AuctionEvent{Type: EventNewBid, ItemID: bid.ItemID, Bid: bid, Timestamp: at}
}

func NewPaymentEvent(receipt *Receipt, at time.Time) *AuctionEvent {
	return &AuctionEvent{Type: EventPayment, ItemID: receipt.ItemID, Receipt: receipt, Timestamp: at}
}

// Closing reports whether the event leaves the item in a terminal state.
func (e *AuctionEvent) Closing() bool {
	if e.Item == nil {
		return false
	}
	return e.Item.Status.Terminal()
}
