package contracts

import (
	"context"
	"time"
)

// StoredInstrument is the durable asset record. A close sets quantity
// to 0 but never deletes the row.
type StoredInstrument struct {
	ID           string
	PortfolioID  string
	Symbol       string
	ISIN         string
	Name         string
	OriginalName string
	Type         AssetType
	Category     AssetCategory
	Quantity     float64
	BuyPrice     float64
	Currency     string
	Exchange     string
	Country      string
	Sector       string
	Platform     string
	CustomGroup  string
	SortOrder    int
	LogoURL      string
	CurrentPrice float64
	UpdatedAt    time.Time
}

// TxType classifies a transaction history row.
type TxType string

const (
	TxBuy        TxType = "BUY"
	TxSell       TxType = "SELL"
	TxDeposit    TxType = "DEPOSIT"
	TxWithdrawal TxType = "WITHDRAWAL"
	TxDividend   TxType = "DIVIDEND"
	TxCoupon     TxType = "COUPON"
	TxInterest   TxType = "INTEREST"
	TxFee        TxType = "FEE"
	TxFX         TxType = "FX"
	TxStaking    TxType = "STAKING"
)

// StoredTransaction is one history row. Rows with an ExternalID are
// unique per (portfolio, externalId); rows without one are deduplicated
// by a fuzzy match before insert.
type StoredTransaction struct {
	ID          string
	PortfolioID string
	Symbol      string
	Name        string
	Type        TxType
	Quantity    float64
	Price       float64
	Currency    string
	Date        time.Time
	Exchange    string
	Platform    string
	ExternalID  string
	Fee         float64
	ISIN        string
}

// AliasRepository persists per-user resolution memory.
type AliasRepository interface {
	FindByUser(ctx context.Context, userID string) ([]AliasRecord, error)
	Upsert(ctx context.Context, rec AliasRecord) error
}

// InstrumentRepository manages portfolio asset records.
type InstrumentRepository interface {
	FindByPortfolio(ctx context.Context, portfolioID string) ([]StoredInstrument, error)
	Create(ctx context.Context, inst *StoredInstrument) error
	Update(ctx context.Context, inst *StoredInstrument) error
	MinSortOrder(ctx context.Context, portfolioID string) (int, bool, error)
	UpdatePrice(ctx context.Context, id string, price float64) error
}

// TransactionRepository manages transaction history rows.
type TransactionRepository interface {
	UpsertByExternalID(ctx context.Context, tx *StoredTransaction) error
	ExistsFuzzy(ctx context.Context, portfolioID, symbol string, date time.Time, quantity, price float64, txType TxType) (bool, error)
	Create(ctx context.Context, tx *StoredTransaction) error
}
