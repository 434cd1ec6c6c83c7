package contracts

import "context"

// Quote is a live price snapshot for one ticker.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Currency      string  `json:"currency"`
	Price         float64 `json:"regularMarketPrice"`
	PreviousClose float64 `json:"regularMarketPreviousClose"`
	Exchange      string  `json:"exchange,omitempty"`
	ShortName     string  `json:"shortname,omitempty"`
	LongName      string  `json:"longname,omitempty"`
	QuoteType     string  `json:"quoteType,omitempty"`
}

// DisplayName prefers the short name, then the long name.
func (q *Quote) DisplayName() string {
	if q.ShortName != "" {
		return q.ShortName
	}
	return q.LongName
}

// SearchResult is one hit from a text or ISIN search.
type SearchResult struct {
	Symbol    string `json:"symbol"`
	ShortName string `json:"shortname,omitempty"`
	LongName  string `json:"longname,omitempty"`
	Exchange  string `json:"exchange,omitempty"`
	QuoteType string `json:"quoteType,omitempty"`
}

// DisplayName prefers the short name, then the long name.
func (s *SearchResult) DisplayName() string {
	if s.ShortName != "" {
		return s.ShortName
	}
	return s.LongName
}

// FundInfo is a specialized-market fund registry record.
type FundInfo struct {
	Code  string  `json:"code"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

// CompanyProfile carries sector/country metadata for enrichment.
type CompanyProfile struct {
	Country  string `json:"country,omitempty"`
	Sector   string `json:"sector,omitempty"`
	Industry string `json:"industry,omitempty"`
	Exchange string `json:"exchange,omitempty"`
}

// QuoteProvider fetches a live quote. A nil quote with nil error means
// the provider has no data for the ticker.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (*Quote, error)
}

// SearchProvider searches by free text or ISIN.
type SearchProvider interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// FundProvider looks up a fund registry by code.
type FundProvider interface {
	FundInfo(ctx context.Context, code string) (*FundInfo, error)
}

// ProfileProvider fetches company metadata.
type ProfileProvider interface {
	Profile(ctx context.Context, symbol string) (*CompanyProfile, error)
}

// MarketData is the full lookup facade consumed by the resolver.
type MarketData interface {
	QuoteProvider
	SearchProvider
	FundProvider
	ProfileProvider
}
