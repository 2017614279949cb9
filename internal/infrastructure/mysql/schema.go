package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"auction-marketplace/internal/domain"

	"github.com/go-sql-driver/mysql"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS items (
        id                VARCHAR(64)    NOT NULL PRIMARY KEY,
        name              VARCHAR(255)   NOT NULL,
        description       TEXT           NOT NULL,
        current_price     DECIMAL(19,4)  NOT NULL,
        shipping_time     INT            NOT NULL,
        item_type         VARCHAR(16)    NOT NULL,
        status            VARCHAR(16)    NOT NULL,
        seller_id         VARCHAR(64)    NOT NULL,
        highest_bidder_id VARCHAR(64)    NOT NULL DEFAULT '',
        end_time          DATETIME(6)    NULL,
        reserve_price     DECIMAL(19,4)  NOT NULL DEFAULT 0,
        version           BIGINT         NOT NULL,
        created_at        DATETIME(6)    NOT NULL,
        updated_at        DATETIME(6)    NOT NULL,
        UNIQUE KEY uq_items_name (name),
        KEY idx_items_status (status),
        KEY idx_items_winner (status, highest_bidder_id)
    )`,
	`CREATE TABLE IF NOT EXISTS bids (
        id         VARCHAR(64)   NOT NULL PRIMARY KEY,
        item_id    VARCHAR(64)   NOT NULL,
        bidder_id  VARCHAR(64)   NOT NULL,
        amount     DECIMAL(19,4) NOT NULL,
        created_at DATETIME(6)   NOT NULL,
        seq        BIGINT        NOT NULL AUTO_INCREMENT UNIQUE,
        KEY idx_bids_item (item_id, seq)
    )`,
	`CREATE TABLE IF NOT EXISTS receipts (
        id                VARCHAR(64)   NOT NULL PRIMARY KEY,
        item_id           VARCHAR(64)   NOT NULL,
        buyer_id          VARCHAR(64)   NOT NULL,
        total_cost        DECIMAL(19,4) NOT NULL,
        shipping_time     INT           NOT NULL,
        street            VARCHAR(255)  NOT NULL,
        city              VARCHAR(128)  NOT NULL,
        province          VARCHAR(128)  NOT NULL,
        postal_code       VARCHAR(32)   NOT NULL,
        country           VARCHAR(64)   NOT NULL,
        card_holder       VARCHAR(255)  NOT NULL,
        card_number       VARCHAR(32)   NOT NULL,
        card_expiry_month INT           NOT NULL,
        card_expiry_year  INT           NOT NULL,
        created_at        DATETIME(6)   NOT NULL,
        UNIQUE KEY uq_receipts_item (item_id)
    )`,
}

// InitSchema creates the tables the store needs if they are missing.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

const errDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == errDuplicateEntry
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}
