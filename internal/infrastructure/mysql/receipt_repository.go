package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"auction-marketplace/internal/domain"
)

func (r *AuctionStore) GetReceiptByItem(ctx context.Context, itemID string) (*domain.Receipt, error) {
	query := `
        SELECT id, item_id, buyer_id, total_cost, shipping_time,
               street, city, province, postal_code, country,
               card_holder, card_number, card_expiry_month, card_expiry_year, created_at
        FROM receipts WHERE item_id = ?
    `

	var (
		rc   domain.Receipt
		addr = &rc.ShippingAddress
		card = &rc.PaymentCard
	)
	err := r.db.QueryRowContext(ctx, query, itemID).Scan(
		&rc.ID, &rc.ItemID, &rc.BuyerID, &rc.TotalCost, &rc.ShippingTime,
		&addr.Street, &addr.City, &addr.Province, &addr.PostalCode, &addr.Country,
		&card.HolderName, &card.Number, &card.ExpiryMonth, &card.ExpiryYear, &rc.CreatedAt)
	if err != nil {
		return nil, notFound(err, "receipt for item %s", itemID)
	}
	return &rc, nil
}

// CommitPayment marks the item paid and stores its receipt atomically. The
// card is expected to be masked already.
func (r *AuctionStore) CommitPayment(ctx context.Context, item *domain.AuctionItem, receipt *domain.Receipt) error {
	err := r.inTx(ctx, item, func(tx *sql.Tx) error {
		query := `
            INSERT INTO receipts (id, item_id, buyer_id, total_cost, shipping_time,
                street, city, province, postal_code, country,
                card_holder, card_number, card_expiry_month, card_expiry_year, created_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        `
		addr, card := receipt.ShippingAddress, receipt.PaymentCard
		_, err := tx.ExecContext(ctx, query,
			receipt.ID, receipt.ItemID, receipt.BuyerID, receipt.TotalCost, receipt.ShippingTime,
			addr.Street, addr.City, addr.Province, addr.PostalCode, addr.Country,
			card.HolderName, card.Number, card.ExpiryMonth, card.ExpiryYear, receipt.CreatedAt)
		return err
	})
	if isDuplicate(err) {
		return fmt.Errorf("%w: receipt for item %s", domain.ErrConflict, receipt.ItemID)
	}
	return err
}
