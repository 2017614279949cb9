package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"auction-marketplace/internal/domain"
)

// AuctionStore persists items, bids and receipts in MySQL. Item writes are
// guarded by the version column; a stale write reports ErrVersionConflict.
type AuctionStore struct {
	db *sql.DB
}

func NewAuctionStore(db *sql.DB) *AuctionStore {
	return &AuctionStore{db: db}
}

const itemColumns = `id, name, description, current_price, shipping_time, item_type, status,
        seller_id, highest_bidder_id, end_time, reserve_price, version, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*domain.AuctionItem, error) {
	var (
		item    domain.AuctionItem
		endTime sql.NullTime
	)
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.CurrentPrice, &item.ShippingTime,
		&item.Type, &item.Status, &item.SellerID, &item.HighestBidderID, &endTime,
		&item.ReservePrice, &item.Version, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		item.EndTime = endTime.Time
	}
	return &item, nil
}

func nullTime(item *domain.AuctionItem) sql.NullTime {
	return sql.NullTime{Time: item.EndTime, Valid: !item.EndTime.IsZero()}
}

func (r *AuctionStore) CreateItem(ctx context.Context, item *domain.AuctionItem) error {
	query := `
        INSERT INTO items (` + itemColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.Name, item.Description, item.CurrentPrice, item.ShippingTime,
		string(item.Type), string(item.Status), item.SellerID, item.HighestBidderID, nullTime(item),
		item.ReservePrice, 1, item.CreatedAt, item.UpdatedAt)
	if isDuplicate(err) {
		return fmt.Errorf("%w: item named %q", domain.ErrConflict, item.Name)
	}
	if err != nil {
		return err
	}
	item.Version = 1
	return nil
}

func (r *AuctionStore) GetItem(ctx context.Context, itemID string) (*domain.AuctionItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ?`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, itemID))
	if err != nil {
		return nil, notFound(err, "item %s", itemID)
	}
	return item, nil
}

func (r *AuctionStore) GetItemByName(ctx context.Context, name string) (*domain.AuctionItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE name = ?`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		return nil, notFound(err, "item named %q", name)
	}
	return item, nil
}

func (r *AuctionStore) ListItems(ctx context.Context) ([]*domain.AuctionItem, error) {
	return r.queryItems(ctx, `SELECT `+itemColumns+` FROM items ORDER BY created_at, id`)
}

func (r *AuctionStore) ListItemsByStatus(ctx context.Context, status domain.ItemStatus) ([]*domain.AuctionItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE status = ? ORDER BY created_at, id`
	return r.queryItems(ctx, query, string(status))
}

func (r *AuctionStore) ListWonItems(ctx context.Context, bidderID string) ([]*domain.AuctionItem, error) {
	query := `
        SELECT ` + itemColumns + `
        FROM items
        WHERE status = ? AND highest_bidder_id = ?
        ORDER BY created_at, id
    `
	return r.queryItems(ctx, query, string(domain.StatusSold), bidderID)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *AuctionStore) SearchItems(ctx context.Context, keyword string) ([]*domain.AuctionItem, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(keyword))) + "%"
	query := `
        SELECT ` + itemColumns + `
        FROM items
        WHERE LOWER(name) LIKE ? OR LOWER(description) LIKE ?
        ORDER BY created_at, id
    `
	return r.queryItems(ctx, query, pattern, pattern)
}

func (r *AuctionStore) queryItems(ctx context.Context, query string, args ...any) ([]*domain.AuctionItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*domain.AuctionItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *AuctionStore) UpdateItem(ctx context.Context, item *domain.AuctionItem) error {
	return updateItem(ctx, r.db, item)
}

func updateItem(ctx context.Context, db execer, item *domain.AuctionItem) error {
	query := `
        UPDATE items
        SET current_price = ?, status = ?, highest_bidder_id = ?, version = version + 1, updated_at = ?
        WHERE id = ? AND version = ?
    `
	res, err := db.ExecContext(ctx, query,
		item.CurrentPrice, string(item.Status), item.HighestBidderID, item.UpdatedAt,
		item.ID, item.Version)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: item %s at version %d", domain.ErrVersionConflict, item.ID, item.Version)
	}
	item.Version++
	return nil
}
