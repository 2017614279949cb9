package domain

import (
	"context"
)

// UpdatePublisher notifies listeners after a mutation has been committed.
// Delivery is at-most-once; callers never wait for acknowledgment.
type UpdatePublisher interface {
	BroadcastItemUpdate(ctx context.Context, item *AuctionItem) error
	BroadcastNewBid(ctx context.Context, bid *Bid) error
	BroadcastPayment(ctx context.Context, receipt *Receipt) error
}

type EventSubscriber interface {
	SubscribeToAuctionEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(event *AuctionEvent) error

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

// WebSocket interfaces
type WebSocketConnection interface {
	Send(message interface{}) error
	Close() error
	UserID() string
	ItemID() string
}

type ConnectionManager interface {
	RegisterConnection(userID, itemID string, conn WebSocketConnection) error
	UnregisterConnection(conn WebSocketConnection) error
	GetConnectionsForItem(itemID string) []WebSocketConnection
	BroadcastToItem(itemID string, message interface{}) error
	CloseAndUnregisterConnections(itemID string) error
}
