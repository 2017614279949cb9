package repositories

import (
	"context"

	"auction-marketplace/internal/domain"
)

type ItemRepository interface {
	CreateItem(ctx context.Context, item *domain.AuctionItem) error
	GetItem(ctx context.Context, itemID string) (*domain.AuctionItem, error)
	GetItemByName(ctx context.Context, name string) (*domain.AuctionItem, error)
	ListItems(ctx context.Context) ([]*domain.AuctionItem, error)
	ListItemsByStatus(ctx context.Context, status domain.ItemStatus) ([]*domain.AuctionItem, error)
	// ListWonItems returns items in status SOLD whose highest bidder is bidderID.
	ListWonItems(ctx context.Context, bidderID string) ([]*domain.AuctionItem, error)
	SearchItems(ctx context.Context, keyword string) ([]*domain.AuctionItem, error)
	// UpdateItem persists item if the stored version still equals item.Version,
	// then bumps item.Version. Fails with domain.ErrVersionConflict otherwise.
	UpdateItem(ctx context.Context, item *domain.AuctionItem) error
}

type BidRepository interface {
	CountBids(ctx context.Context, itemID string) (int, error)
	ListBids(ctx context.Context, itemID string) ([]*domain.Bid, error)
}

type ReceiptRepository interface {
	GetReceiptByItem(ctx context.Context, itemID string) (*domain.Receipt, error)
}

// AuctionStore groups the repositories with the atomic units the services
// need. CommitBid and CommitPayment either persist everything or nothing.
type AuctionStore interface {
	ItemRepository
	BidRepository
	ReceiptRepository

	CommitBid(ctx context.Context, item *domain.AuctionItem, bid *domain.Bid) error
	CommitPayment(ctx context.Context, item *domain.AuctionItem, receipt *domain.Receipt) error
}
