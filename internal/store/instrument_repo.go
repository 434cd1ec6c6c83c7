package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tkaya/folio/internal/contracts"
)

// InstrumentRepo manages portfolio asset records.
type InstrumentRepo struct {
	pool *pgxpool.Pool
}

// NewInstrumentRepo creates an instrument repository.
func NewInstrumentRepo(pool *pgxpool.Pool) *InstrumentRepo {
	return &InstrumentRepo{pool: pool}
}

const instrumentColumns = `
	id, portfolio_id, symbol, COALESCE(isin, ''), name, COALESCE(original_name, ''),
	type, category, quantity, buy_price, currency, COALESCE(exchange, ''),
	COALESCE(country, ''), COALESCE(sector, ''), COALESCE(platform, ''),
	COALESCE(custom_group, ''), sort_order, COALESCE(logo_url, ''),
	COALESCE(current_price, 0), updated_at
`

// FindByPortfolio loads the full instrument snapshot for one
// portfolio, including closed positions.
func (r *InstrumentRepo) FindByPortfolio(ctx context.Context, portfolioID string) ([]contracts.StoredInstrument, error) {
	query := `
		SELECT ` + instrumentColumns + `
		FROM import.instruments
		WHERE portfolio_id = $1
		ORDER BY sort_order ASC
	`

	rows, err := r.pool.Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query instruments: %w", err)
	}
	defer rows.Close()

	instruments := make([]contracts.StoredInstrument, 0)
	for rows.Next() {
		var inst contracts.StoredInstrument
		err := rows.Scan(
			&inst.ID, &inst.PortfolioID, &inst.Symbol, &inst.ISIN, &inst.Name, &inst.OriginalName,
			&inst.Type, &inst.Category, &inst.Quantity, &inst.BuyPrice, &inst.Currency, &inst.Exchange,
			&inst.Country, &inst.Sector, &inst.Platform,
			&inst.CustomGroup, &inst.SortOrder, &inst.LogoURL,
			&inst.CurrentPrice, &inst.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}
		instruments = append(instruments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instruments: %w", err)
	}

	return instruments, nil
}

// ListActive returns every open position across all portfolios,
// used by the price refresh job. Closed positions keep their last
// known price.
func (r *InstrumentRepo) ListActive(ctx context.Context) ([]contracts.StoredInstrument, error) {
	query := `
		SELECT ` + instrumentColumns + `
		FROM import.instruments
		WHERE quantity > 0
		ORDER BY symbol ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active instruments: %w", err)
	}
	defer rows.Close()

	instruments := make([]contracts.StoredInstrument, 0)
	for rows.Next() {
		var inst contracts.StoredInstrument
		err := rows.Scan(
			&inst.ID, &inst.PortfolioID, &inst.Symbol, &inst.ISIN, &inst.Name, &inst.OriginalName,
			&inst.Type, &inst.Category, &inst.Quantity, &inst.BuyPrice, &inst.Currency, &inst.Exchange,
			&inst.Country, &inst.Sector, &inst.Platform,
			&inst.CustomGroup, &inst.SortOrder, &inst.LogoURL,
			&inst.CurrentPrice, &inst.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}
		instruments = append(instruments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instruments: %w", err)
	}

	return instruments, nil
}

// Create inserts a new instrument and fills in the generated id.
func (r *InstrumentRepo) Create(ctx context.Context, inst *contracts.StoredInstrument) error {
	query := `
		INSERT INTO import.instruments (
			portfolio_id, symbol, isin, name, original_name, type, category,
			quantity, buy_price, currency, exchange, country, sector,
			platform, custom_group, sort_order, logo_url, current_price, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW())
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		inst.PortfolioID, inst.Symbol, inst.ISIN, inst.Name, inst.OriginalName, inst.Type, inst.Category,
		inst.Quantity, inst.BuyPrice, inst.Currency, inst.Exchange, inst.Country, inst.Sector,
		inst.Platform, inst.CustomGroup, inst.SortOrder, inst.LogoURL, inst.CurrentPrice,
	).Scan(&inst.ID)
	if err != nil {
		return fmt.Errorf("failed to insert instrument: %w", err)
	}
	return nil
}

// Update overwrites a stored instrument by id.
func (r *InstrumentRepo) Update(ctx context.Context, inst *contracts.StoredInstrument) error {
	query := `
		UPDATE import.instruments SET
			symbol = $2, isin = $3, name = $4, original_name = $5, type = $6, category = $7,
			quantity = $8, buy_price = $9, currency = $10, exchange = $11, country = $12,
			sector = $13, platform = $14, custom_group = $15, sort_order = $16,
			logo_url = $17, current_price = $18, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		inst.ID,
		inst.Symbol, inst.ISIN, inst.Name, inst.OriginalName, inst.Type, inst.Category,
		inst.Quantity, inst.BuyPrice, inst.Currency, inst.Exchange, inst.Country,
		inst.Sector, inst.Platform, inst.CustomGroup, inst.SortOrder,
		inst.LogoURL, inst.CurrentPrice,
	)
	if err != nil {
		return fmt.Errorf("failed to update instrument: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("instrument %s not found", inst.ID)
	}
	return nil
}

// MinSortOrder returns the lowest sort order in the portfolio. The
// second value is false when the portfolio has no instruments.
func (r *InstrumentRepo) MinSortOrder(ctx context.Context, portfolioID string) (int, bool, error) {
	var min *int
	err := r.pool.QueryRow(ctx,
		`SELECT MIN(sort_order) FROM import.instruments WHERE portfolio_id = $1`,
		portfolioID,
	).Scan(&min)
	if err != nil {
		return 0, false, fmt.Errorf("failed to query min sort order: %w", err)
	}
	if min == nil {
		return 0, false, nil
	}
	return *min, true, nil
}

// UpdatePrice refreshes the cached market price of one instrument.
func (r *InstrumentRepo) UpdatePrice(ctx context.Context, id string, price float64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE import.instruments SET current_price = $2, updated_at = NOW() WHERE id = $1`,
		id, price,
	)
	if err != nil {
		return fmt.Errorf("failed to update price: %w", err)
	}
	return nil
}
