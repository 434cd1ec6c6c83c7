package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tkaya/folio/internal/contracts"
)

// TransactionRepo manages transaction history rows.
type TransactionRepo struct {
	pool *pgxpool.Pool
}

// NewTransactionRepo creates a transaction repository.
func NewTransactionRepo(pool *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// UpsertByExternalID writes a transaction keyed on
// (portfolio_id, external_id). Re-importing the same file is a no-op
// apart from refreshed fields.
func (r *TransactionRepo) UpsertByExternalID(ctx context.Context, tx *contracts.StoredTransaction) error {
	query := `
		INSERT INTO import.transactions (
			portfolio_id, symbol, name, type, quantity, price, currency,
			date, exchange, platform, external_id, fee, isin
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (portfolio_id, external_id) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			quantity = EXCLUDED.quantity,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			date = EXCLUDED.date
	`

	_, err := r.pool.Exec(ctx, query,
		tx.PortfolioID, tx.Symbol, tx.Name, tx.Type, tx.Quantity, tx.Price, tx.Currency,
		tx.Date, tx.Exchange, tx.Platform, tx.ExternalID, tx.Fee, tx.ISIN,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert transaction: %w", err)
	}
	return nil
}

// ExistsFuzzy checks for an equivalent history row. Used for exports
// without stable identifiers so repeated imports do not duplicate
// history.
func (r *TransactionRepo) ExistsFuzzy(ctx context.Context, portfolioID, symbol string, date time.Time, quantity, price float64, txType contracts.TxType) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM import.transactions
			WHERE portfolio_id = $1 AND symbol = $2 AND date = $3
			  AND quantity = $4 AND price = $5 AND type = $6
		)
	`, portfolioID, symbol, date, quantity, price, txType).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate transaction: %w", err)
	}
	return exists, nil
}

// Create inserts a transaction without conflict handling.
func (r *TransactionRepo) Create(ctx context.Context, tx *contracts.StoredTransaction) error {
	query := `
		INSERT INTO import.transactions (
			portfolio_id, symbol, name, type, quantity, price, currency,
			date, exchange, platform, external_id, fee, isin
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12, $13)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		tx.PortfolioID, tx.Symbol, tx.Name, tx.Type, tx.Quantity, tx.Price, tx.Currency,
		tx.Date, tx.Exchange, tx.Platform, tx.ExternalID, tx.Fee, tx.ISIN,
	).Scan(&tx.ID)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}
