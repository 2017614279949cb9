package mysql

import (
	"context"
	"database/sql"

	"auction-marketplace/internal/domain"
)

func (r *AuctionStore) CountBids(ctx context.Context, itemID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bids WHERE item_id = ?`, itemID).Scan(&count)
	return count, err
}

func (r *AuctionStore) ListBids(ctx context.Context, itemID string) ([]*domain.Bid, error) {
	query := `
        SELECT id, item_id, bidder_id, amount, created_at
        FROM bids
        WHERE item_id = ?
        ORDER BY seq ASC
    `

	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bids := []*domain.Bid{}
	for rows.Next() {
		var bid domain.Bid
		if err := rows.Scan(&bid.ID, &bid.ItemID, &bid.BidderID, &bid.Amount, &bid.CreatedAt); err != nil {
			return nil, err
		}
		bids = append(bids, &bid)
	}
	return bids, rows.Err()
}

// CommitBid writes the item and its new bid in one transaction.
func (r *AuctionStore) CommitBid(ctx context.Context, item *domain.AuctionItem, bid *domain.Bid) error {
	return r.inTx(ctx, item, func(tx *sql.Tx) error {
		query := `
            INSERT INTO bids (id, item_id, bidder_id, amount, created_at)
            VALUES (?, ?, ?, ?, ?)
        `
		_, err := tx.ExecContext(ctx, query, bid.ID, bid.ItemID, bid.BidderID, bid.Amount, bid.CreatedAt)
		return err
	})
}

// inTx updates item and runs write in the same transaction. On any failure
// the item keeps the version it came in with.
func (r *AuctionStore) inTx(ctx context.Context, item *domain.AuctionItem, write func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	version := item.Version
	if err := updateItem(ctx, tx, item); err != nil {
		tx.Rollback()
		return err
	}
	if err := write(tx); err != nil {
		item.Version = version
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		item.Version = version
		return err
	}
	return nil
}
