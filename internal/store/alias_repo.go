package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tkaya/folio/internal/contracts"
)

// AliasRepo persists per-user resolution memory.
type AliasRepo struct {
	pool *pgxpool.Pool
}

// NewAliasRepo creates an alias repository.
func NewAliasRepo(pool *pgxpool.Pool) *AliasRepo {
	return &AliasRepo{pool: pool}
}

// FindByUser loads all alias records for one user.
func (r *AliasRepo) FindByUser(ctx context.Context, userID string) ([]contracts.AliasRecord, error) {
	query := `
		SELECT user_id, source_string, platform, resolved_symbol, is_verified
		FROM import.asset_aliases
		WHERE user_id = $1
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query aliases: %w", err)
	}
	defer rows.Close()

	aliases := make([]contracts.AliasRecord, 0)
	for rows.Next() {
		var rec contracts.AliasRecord
		if err := rows.Scan(&rec.UserID, &rec.SourceString, &rec.Platform, &rec.ResolvedSymbol, &rec.IsVerified); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		aliases = append(aliases, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating aliases: %w", err)
	}

	return aliases, nil
}

// Upsert writes an alias, replacing the resolution target on conflict.
// Last write wins across concurrent imports.
func (r *AliasRepo) Upsert(ctx context.Context, rec contracts.AliasRecord) error {
	query := `
		INSERT INTO import.asset_aliases (
			user_id, source_string, platform, resolved_symbol, is_verified, updated_at
		) VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, source_string, platform) DO UPDATE SET
			resolved_symbol = EXCLUDED.resolved_symbol,
			is_verified = EXCLUDED.is_verified,
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query,
		rec.UserID, rec.SourceString, rec.Platform, rec.ResolvedSymbol, rec.IsVerified,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert alias: %w", err)
	}
	return nil
}
