package contracts

// MatchSource records which tier produced a resolution.
type MatchSource string

const (
	SourceMemory MatchSource = "MEMORY" // canonical registry or alias memory
	SourceISIN   MatchSource = "ISIN"   // identifier-based search match
	SourceSearch MatchSource = "SEARCH" // name/symbol search match
	SourceNone   MatchSource = "NONE"   // nothing matched
)

// RowAction is the merge decision attached to each resolved row.
type RowAction string

const (
	ActionAdd    RowAction = "add"
	ActionUpdate RowAction = "update"
	ActionSkip   RowAction = "skip"
	ActionClose  RowAction = "close"
)

// ImportRow is one raw position row extracted from a broker export.
// Quantity at or below the closed-position threshold marks an exited
// position.
type ImportRow struct {
	Symbol   string  `json:"symbol"`
	ISIN     string  `json:"isin,omitempty"`
	Name     string  `json:"name,omitempty"`
	Quantity float64 `json:"quantity"`
	BuyPrice float64 `json:"buyPrice"`
	Currency string  `json:"currency"`
	Type     string  `json:"type,omitempty"`
	Platform string  `json:"platform,omitempty"`
	Exchange string  `json:"exchange,omitempty"`
}

// ExistingRef points at a stored instrument the resolver believes the
// row reconciles against. It is advisory only: the merger re-resolves
// the target against a fresh snapshot.
type ExistingRef struct {
	ID       string  `json:"id"`
	Quantity float64 `json:"quantity"`
	BuyPrice float64 `json:"buyPrice"`
}

// ResolvedAsset is the output of the resolution pipeline for one row.
type ResolvedAsset struct {
	ImportRow

	ResolvedSymbol   string        `json:"resolvedSymbol"`
	ResolvedName     string        `json:"resolvedName"`
	ResolvedType     AssetType     `json:"resolvedType"`
	ResolvedCurrency string        `json:"resolvedCurrency"`
	ResolvedExchange string        `json:"exchange,omitempty"`
	Country          string        `json:"country,omitempty"`
	Sector           string        `json:"sector,omitempty"`
	Category         AssetCategory `json:"category,omitempty"`
	CurrentPrice     float64       `json:"currentPrice,omitempty"`
	Confidence       int           `json:"confidence"`
	MatchSource      MatchSource   `json:"matchSource"`
	ExistingAsset    *ExistingRef  `json:"existingAsset,omitempty"`
	Action           RowAction     `json:"action"`
	Warnings         []string      `json:"warnings"`
}

// ResolvedMatch is a tier's opinion about a row. Tiers that cannot
// decide return nil and the orchestrator moves to the next tier.
type ResolvedMatch struct {
	Symbol     string
	Name       string
	Type       AssetType
	Currency   string
	Exchange   string
	Price      float64
	Confidence int
	Source     MatchSource
	Warnings   []string
}

// AliasRecord maps a previously seen source string to a resolved
// symbol for one user. Keys are upper-cased before storage and lookup.
type AliasRecord struct {
	UserID         string `json:"userId"`
	SourceString   string `json:"sourceString"`
	Platform       string `json:"platform"`
	ResolvedSymbol string `json:"resolvedSymbol"`
	IsVerified     bool   `json:"isVerified"`
}

// ResolveResult is the response of the resolution phase.
type ResolveResult struct {
	Success  bool            `json:"success"`
	Resolved []ResolvedAsset `json:"resolved"`
	Errors   []string        `json:"errors"`
}

// ImportResult summarizes a merge run. Success means no per-row errors
// were recorded.
type ImportResult struct {
	Success bool     `json:"success"`
	Added   int      `json:"added"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Closed  int      `json:"closed"`
	TxAdded int      `json:"txAdded"`
	Errors  []string `json:"errors"`
}
