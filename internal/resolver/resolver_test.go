package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkaya/folio/internal/contracts"
	"github.com/tkaya/folio/pkg/logger"
)

// fakeMarket is an in-memory MarketData facade keyed by exact symbol
// and query strings. Unknown keys behave like provider misses.
type fakeMarket struct {
	quotes     map[string]*contracts.Quote
	searches   map[string][]contracts.SearchResult
	funds      map[string]*contracts.FundInfo
	profiles   map[string]*contracts.CompanyProfile
	searchErrs map[string]error
}

func (f *fakeMarket) Quote(_ context.Context, symbol string) (*contracts.Quote, error) {
	return f.quotes[symbol], nil
}

func (f *fakeMarket) Search(_ context.Context, query string) ([]contracts.SearchResult, error) {
	if err := f.searchErrs[query]; err != nil {
		return nil, err
	}
	return f.searches[query], nil
}

func (f *fakeMarket) FundInfo(_ context.Context, code string) (*contracts.FundInfo, error) {
	return f.funds[code], nil
}

func (f *fakeMarket) Profile(_ context.Context, symbol string) (*contracts.CompanyProfile, error) {
	return f.profiles[symbol], nil
}

func newTestResolver(market contracts.MarketData) *Resolver {
	return New(market, DefaultPolicy(), 5, 0, logger.NewNop())
}

func resolveOne(t *testing.T, r *Resolver, row contracts.ImportRow, aliases *AliasSnapshot, existing []contracts.StoredInstrument) contracts.ResolvedAsset {
	t.Helper()
	out := r.ResolveAll(context.Background(), []contracts.ImportRow{row}, aliases, existing)
	require.Len(t, out, 1)
	return out[0]
}

func emptyAliases() *AliasSnapshot {
	return NewAliasSnapshot(nil)
}

func TestResolveCanonicalOverridesGarbageName(t *testing.T) {
	market := &fakeMarket{
		quotes: map[string]*contracts.Quote{
			"BTC-EUR": {Symbol: "BTC-EUR", Currency: "EUR", Price: 65000, Exchange: "CCC"},
		},
	}
	r := newTestResolver(market)

	row := contracts.ImportRow{Symbol: "BTC", Name: "Bosch Thermotechnik GmbH", Quantity: 0.5, Currency: "EUR"}
	got := resolveOne(t, r, row, emptyAliases(), nil)

	assert.Equal(t, "BTC-EUR", got.ResolvedSymbol)
	assert.Equal(t, "Bitcoin", got.ResolvedName)
	assert.Equal(t, contracts.TypeCrypto, got.ResolvedType)
	assert.Equal(t, "EUR", got.ResolvedCurrency)
	assert.Equal(t, 100, got.Confidence)
	assert.Equal(t, contracts.SourceMemory, got.MatchSource)
	assert.Equal(t, 65000.0, got.CurrentPrice)
	assert.Equal(t, contracts.ActionAdd, got.Action)
}

func TestResolveCanonicalSurvivesQuoteMiss(t *testing.T) {
	r := newTestResolver(&fakeMarket{})

	row := contracts.ImportRow{Symbol: "ETH-USD", Quantity: 1, Currency: "EUR"}
	got := resolveOne(t, r, row, emptyAliases(), nil)

	// row currency replaces the existing pair suffix
	assert.Equal(t, "ETH-EUR", got.ResolvedSymbol)
	assert.Equal(t, "Ethereum", got.ResolvedName)
	assert.Equal(t, 100, got.Confidence)
	assert.Zero(t, got.CurrentPrice)
}

func TestResolveAliasHit(t *testing.T) {
	market := &fakeMarket{
		quotes: map[string]*contracts.Quote{
			"ACME.IS": {Symbol: "ACME.IS", Currency: "TRY", Price: 52.4, Exchange: "IST", ShortName: "Acme Teknoloji A.S."},
		},
	}
	r := newTestResolver(market)

	aliases := NewAliasSnapshot([]contracts.AliasRecord{
		{UserID: "u1", SourceString: "ACME TEKNOLOJI", Platform: "midas", ResolvedSymbol: "ACME.IS", IsVerified: true},
	})
	row := contracts.ImportRow{Symbol: "ACM", Name: "Acme Teknoloji", Quantity: 10, Currency: "TRY"}
	got := resolveOne(t, r, row, aliases, nil)

	assert.Equal(t, "ACME.IS", got.ResolvedSymbol)
	assert.Equal(t, 100, got.Confidence)
	assert.Equal(t, contracts.SourceMemory, got.MatchSource)
	assert.Equal(t, 52.4, got.CurrentPrice)
	assert.Equal(t, "TRY", got.ResolvedCurrency)
}

func TestResolveTefasHit(t *testing.T) {
	market := &fakeMarket{
		funds: map[string]*contracts.FundInfo{
			"YAC": {Code: "YAC", Title: "Yapi Kredi Teknoloji Fonu", Price: 37.076155},
		},
	}
	r := newTestResolver(market)

	row := contracts.ImportRow{Symbol: "yac", Type: "FON", Quantity: 120}
	got := resolveOne(t, r, row, emptyAliases(), nil)

	assert.Equal(t, "YAC", got.ResolvedSymbol)
	assert.Equal(t, "Yapi Kredi Teknoloji Fonu", got.ResolvedName)
	assert.Equal(t, contracts.TypeTefas, got.ResolvedType)
	assert.Equal(t, "TRY", got.ResolvedCurrency)
	assert.Equal(t, "TEFAS", got.ResolvedExchange)
	assert.Equal(t, 100, got.Confidence)
	assert.Equal(t, contracts.SourceSearch, got.MatchSource)
}

func TestResolveTefasDegraded(t *testing.T) {
	r := newTestResolver(&fakeMarket{})

	row := contracts.ImportRow{Symbol: "ZZT", Type: "FON", Quantity: 50}
	got := resolveOne(t, r, row, emptyAliases(), nil)

	// the classification commits even though the registry had nothing
	assert.Equal(t, "ZZT", got.ResolvedSymbol)
	assert.Equal(t, contracts.TypeTefas, got.ResolvedType)
	assert.Equal(t, "TRY", got.ResolvedCurrency)
	assert.Equal(t, 70, got.Confidence)
	assert.NotEmpty(t, got.Warnings)
}

func TestResolveCryptoDirectQuote(t *testing.T) {
	market := &fakeMarket{
		quotes: map[string]*contracts.Quote{
			"PEPE-EUR": {Symbol: "PEPE-EUR", Currency: "EUR", Price: 0.00001, Exchange: "CCC", ShortName: "Pepe EUR"},
		},
	}
	r := newTestResolver(market)

	row := contracts.ImportRow{Symbol: "PEPE", Type: "CRYPTO", Quantity: 1e6, Currency: "EUR"}
	got := resolveOne(t, r, row, emptyAliases(), nil)

	assert.Equal(t, "PEPE-EUR", got.ResolvedSymbol)
	assert.Equal(t, 99, got.Confidence)
	assert.Equal(t, contracts.SourceSearch, got.MatchSource)
}

func TestResolveCryptoSearchCurrencyMatch(t *testing.T) {
	market := &fakeMarket{
		searches: map[string][]contracts.SearchResult{
			"RNDR": {
				{Symbol: "RNDR-EUR", ShortName: "Render EUR", QuoteType: "CRYPTOCURRENCY"},
			},
		},
	}
	r := newTestResolver(market)

	row := contracts.ImportRow{Symbol: "RNDR", Type: "CRYPTO", Quantity: 3, Currency: "EUR"}
	got := resolveOne(t, r, row, emptyAliases(), nil)

	assert.Equal(t, "RNDR-EUR", got.ResolvedSymbol)
	assert.Equal(t, 98, got.Confidence)
}

func TestResolveCryptoVerifiedRebuild(t *testing.T) {
	market := &fakeMarket{
		quotes: map[string]*contracts.Quote{
			"RNDR-EUR": {Symbol: "RNDR-EUR", Currency: "EUR", Price: 6.1},
		},
		searches: map[string][]contracts.SearchResult{
			"RENDER": {
				{Symbol: "RNDR-USD", ShortName: "Render USD", QuoteType: "CRYPTOCURRENCY"},
			},
		},
	}
	r := newTestResolver(market)

	row := contracts.ImportRow{Symbol: "RENDER", Type: "CRYPTO", Quantity: 3, Currency: "EUR"}
	got := resolveOne(t, r, row, emptyAliases(), nil)

	assert.Equal(t, "RNDR-EUR", got.ResolvedSymbol)
	assert.Equal(t, 95, got.Confidence)
	assert.Equal(t, 6.1, got.CurrentPrice)
}

func TestResolveCryptoWrongCurrencyFallback(t *testing.T) {
	market := &fakeMarket{
		searches: map[string][]contracts.SearchResult{
			"INJ": {
				{Symbol: "INJ-USD", ShortName: "Injective USD", QuoteType: "CRYPTOCURRENCY"},
			},
		},
	}
	r := newTestResolver(market)

	row := contracts.ImportRow{Symbol: "INJ", Type: "CRYPTO", Quantity: 12, Currency: "EUR"}
	got := resolveOne(t, r, row, emptyAliases(), nil)

	assert.Equal(t, "INJ-USD", got.ResolvedSymbol)
	assert.Equal(t, 80, got.Confidence)
	assert.NotEmpty(t, got.Warnings)
}

func TestResolveCryptoUnverified(t *testing.T) {
	r := newTestResolver(&fakeMarket{})

	row := contracts.ImportRow{Symbol: "OBSCURE", Type: "CRYPTO", Quantity: 1, Currency: "EUR"}
	got := resolveOne(t, r, row, emptyAliases(), nil)

	assert.Equal(t, "OBSCURE-EUR", got.ResolvedSymbol)
	assert.Equal(t, 75, got.Confidence)
	assert.NotEmpty(t, got.Warnings)
}

func TestResolveGenericISINElevation(t *testing.T) {
	market := &fakeMarket{
		searches: map[string][]contracts.SearchResult{
			"NL0010273215": {
				{Symbol: "ASML.AS", ShortName: "ASML Holding N.V.", Exchange: "AMS", QuoteType: "EQUITY"},
			},
		},
		quotes: map[string]*contracts.Quote{
			"ASML.AS": {Symbol: "ASML.AS", Currency: "EUR", Price: 680.2},
		},
	}
	r := newTestResolver(market)

	row := contracts.ImportRow{Symbol: "ASML", ISIN: "NL0010273215", Name: "ASML Holding NV", Quantity: 2, Currency: "EUR"}
	got := resolveOne(t, r, row, emptyAliases(), nil)

	assert.Equal(t, "ASML.AS", got.ResolvedSymbol)
	assert.Equal(t, 97, got.Confidence)
	assert.Equal(t, contracts.SourceISIN, got.MatchSource)
	assert.Equal(t, "Netherlands", got.Country)
	assert.Equal(t, "Technology", got.Sector)
	assert.Equal(t, contracts.CategoryEUMarkets, got.Category)
}

func TestResolveGenericExactFromNameSearch(t *testing.T) {
	market := &fakeMarket{
		searches: map[string][]contracts.SearchResult{
			"Vanguard FTSE All-World": {
				{Symbol: "VWCE", ShortName: "Vanguard FTSE All-World UCITS ETF", Exchange: "GER", QuoteType: "ETF"},
			},
		},
	}
	r := newTestResolver(market)

	row := contracts.ImportRow{Symbol: "VWCE", Name: "Vanguard FTSE All-World", Quantity: 40, Currency: "EUR"}
	got := resolveOne(t, r, row, emptyAliases(), nil)

	assert.Equal(t, "VWCE", got.ResolvedSymbol)
	assert.Equal(t, 95, got.Confidence)
	assert.Equal(t, contracts.SourceSearch, got.MatchSource)
	assert.Equal(t, contracts.TypeFund, got.ResolvedType)
}

func TestResolveGenericNameSimilarityAccept(t *testing.T) {
	market := &fakeMarket{
		searches: map[string][]contracts.SearchResult{
			"VEST": {
				{Symbol: "VWS.CO", ShortName: "Vestas Wind Systems A/S", Exchange: "CPH", QuoteType: "EQUITY"},
			},
		},
	}
	r := newTestResolver(market)

	row := contracts.ImportRow{Symbol: "VEST", Name: "Vestas Wind Systems", Quantity: 5, Currency: "EUR"}
	got := resolveOne(t, r, row, emptyAliases(), nil)

	assert.Equal(t, "VWS.CO", got.ResolvedSymbol)
	assert.Equal(t, 85, got.Confidence)
	assert.Equal(t, contracts.SourceSearch, got.MatchSource)
}

func TestResolveGenericPoisonSymbolGuard(t *testing.T) {
	market := &fakeMarket{
		searches: map[string][]contracts.SearchResult{
			"XAU": {
				{Symbol: "XAU", ShortName: "Xauen Mining Corp", QuoteType: "EQUITY"},
			},
		},
	}
	r := newTestResolver(market)

	existing := []contracts.StoredInstrument{
		{ID: "a1", Symbol: "XAU", Name: "Old Corp", Quantity: 5},
	}
	row := contracts.ImportRow{Symbol: "XAU", Name: "Gold Physical", ISIN: "XC0009655157", Quantity: 3}
	got := resolveOne(t, r, row, emptyAliases(), existing)

	// the reused ticker cannot be trusted; the ISIN takes over
	assert.Equal(t, "XC0009655157", got.ResolvedSymbol)
	assert.Equal(t, 10, got.Confidence)
	assert.Equal(t, contracts.SourceNone, got.MatchSource)
	assert.Nil(t, got.ExistingAsset)
	assert.Len(t, got.Warnings, 2)
}

func TestResolveGenericNoResults(t *testing.T) {
	r := newTestResolver(&fakeMarket{})

	row := contracts.ImportRow{Symbol: "NOPE", Name: "Whatever Things", Quantity: 1}
	got := resolveOne(t, r, row, emptyAliases(), nil)

	assert.Equal(t, "NOPE", got.ResolvedSymbol)
	assert.Equal(t, 0, got.Confidence)
	assert.Equal(t, contracts.SourceNone, got.MatchSource)
	assert.NotEmpty(t, got.Warnings)
}

func TestResolveSearchErrorDegradesRow(t *testing.T) {
	market := &fakeMarket{
		searchErrs: map[string]error{"ERR": assert.AnError},
	}
	r := newTestResolver(market)

	row := contracts.ImportRow{Symbol: "ERR", Name: "Error Prone", Quantity: 1}
	got := resolveOne(t, r, row, emptyAliases(), nil)

	assert.Equal(t, 0, got.Confidence)
	assert.Equal(t, contracts.SourceNone, got.MatchSource)
	assert.Contains(t, got.Warnings, "resolution failed")
}

func TestPoisonLinkDetectorDiscardsUnrelatedExisting(t *testing.T) {
	market := &fakeMarket{
		searches: map[string][]contracts.SearchResult{
			"ABC": {
				{Symbol: "ABC.DE", ShortName: "Alphabet Brick Company AG", Exchange: "GER", QuoteType: "EQUITY"},
			},
		},
	}
	r := newTestResolver(market)

	existing := []contracts.StoredInstrument{
		{ID: "x9", Symbol: "ABC.DE", Name: "Arctic Beverage", Quantity: 10},
	}
	row := contracts.ImportRow{Symbol: "ABC", Name: "Alphabet Brick Company", Quantity: 4, Currency: "EUR"}
	got := resolveOne(t, r, row, emptyAliases(), existing)

	assert.Equal(t, "ABC.DE", got.ResolvedSymbol)
	assert.Nil(t, got.ExistingAsset)
	assert.Equal(t, contracts.ActionAdd, got.Action)
	assert.NotEmpty(t, got.Warnings)
}

func TestLinkExistingAndUpdateAction(t *testing.T) {
	market := &fakeMarket{
		searches: map[string][]contracts.SearchResult{
			"VEST": {
				{Symbol: "VWS.CO", ShortName: "Vestas Wind Systems A/S", Exchange: "CPH", QuoteType: "EQUITY"},
			},
		},
	}
	r := newTestResolver(market)

	existing := []contracts.StoredInstrument{
		{ID: "v1", Symbol: "VWS.CO", Name: "Vestas Wind Systems", Quantity: 8, BuyPrice: 180},
	}
	row := contracts.ImportRow{Symbol: "VEST", Name: "Vestas Wind Systems", Quantity: 12, Currency: "EUR"}
	got := resolveOne(t, r, row, emptyAliases(), existing)

	require.NotNil(t, got.ExistingAsset)
	assert.Equal(t, "v1", got.ExistingAsset.ID)
	assert.Equal(t, 8.0, got.ExistingAsset.Quantity)
	assert.Equal(t, contracts.ActionUpdate, got.Action)
}

func TestClosedPositionAction(t *testing.T) {
	r := newTestResolver(&fakeMarket{})

	for _, qty := range []float64{0, -3, 1e-9} {
		row := contracts.ImportRow{Symbol: "NOPE", Name: "Whatever", Quantity: qty}
		got := resolveOne(t, r, row, emptyAliases(), nil)
		assert.Equal(t, contracts.ActionClose, got.Action, "quantity %v", qty)
	}
}

func TestResolveAllPreservesOrderAcrossChunks(t *testing.T) {
	market := &fakeMarket{
		quotes: map[string]*contracts.Quote{
			"BTC-USD": {Symbol: "BTC-USD", Currency: "USD", Price: 70000},
		},
	}
	r := newTestResolver(market)

	rows := make([]contracts.ImportRow, 0, 7)
	rows = append(rows, contracts.ImportRow{Symbol: "BTC", Quantity: 1})
	for _, sym := range []string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF"} {
		rows = append(rows, contracts.ImportRow{Symbol: sym, Name: sym + " Industries", Quantity: 1})
	}

	got := r.ResolveAll(context.Background(), rows, emptyAliases(), nil)
	require.Len(t, got, 7)
	assert.Equal(t, "BTC-USD", got[0].ResolvedSymbol)
	for i := 1; i < 7; i++ {
		assert.Equal(t, rows[i].Symbol, got[i].Symbol)
		assert.Equal(t, 0, got[i].Confidence)
	}
}

func TestEnrichProfileCascade(t *testing.T) {
	aliasFor := func(source, symbol string) *AliasSnapshot {
		return NewAliasSnapshot([]contracts.AliasRecord{
			{UserID: "u1", SourceString: source, ResolvedSymbol: symbol},
		})
	}

	t.Run("curated profile beats the provider", func(t *testing.T) {
		market := &fakeMarket{
			quotes: map[string]*contracts.Quote{
				"ADYEN.AS": {Symbol: "ADYEN.AS", Currency: "EUR", Price: 1400, Exchange: "AMS", QuoteType: "EQUITY", ShortName: "Adyen N.V."},
			},
			profiles: map[string]*contracts.CompanyProfile{
				"ADYEN.AS": {Country: "Luxembourg", Sector: "Financial Services"},
			},
		}
		r := newTestResolver(market)

		row := contracts.ImportRow{Symbol: "ADYEN", Quantity: 2, Currency: "EUR"}
		got := resolveOne(t, r, row, aliasFor("ADYEN", "ADYEN.AS"), nil)

		assert.Equal(t, contracts.CategoryEUMarkets, got.Category)
		assert.Equal(t, "Netherlands", got.Country)
		assert.Equal(t, "Technology", got.Sector)
	})

	t.Run("provider beats the exchange table", func(t *testing.T) {
		market := &fakeMarket{
			quotes: map[string]*contracts.Quote{
				"RAND.AS": {Symbol: "RAND.AS", Currency: "EUR", Price: 44, Exchange: "AMS", QuoteType: "EQUITY"},
			},
			profiles: map[string]*contracts.CompanyProfile{
				"RAND.AS": {Country: "Ireland", Sector: "Industrials"},
			},
		}
		r := newTestResolver(market)

		row := contracts.ImportRow{Symbol: "RAND", Quantity: 5, Currency: "EUR"}
		got := resolveOne(t, r, row, aliasFor("RAND", "RAND.AS"), nil)

		assert.Equal(t, "Ireland", got.Country)
		assert.Equal(t, "Industrials", got.Sector)
	})

	t.Run("exchange table fills a provider miss", func(t *testing.T) {
		market := &fakeMarket{
			quotes: map[string]*contracts.Quote{
				"HEIA.AS": {Symbol: "HEIA.AS", Currency: "EUR", Price: 90, Exchange: "AMS", QuoteType: "EQUITY"},
			},
		}
		r := newTestResolver(market)

		row := contracts.ImportRow{Symbol: "HEIA", Quantity: 3, Currency: "EUR"}
		got := resolveOne(t, r, row, aliasFor("HEIA", "HEIA.AS"), nil)

		assert.Equal(t, "Netherlands", got.Country)
		assert.Equal(t, "Unknown", got.Sector)
	})
}
