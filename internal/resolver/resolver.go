package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tkaya/folio/internal/contracts"
	"github.com/tkaya/folio/pkg/logger"
)

// ClosedPositionThreshold marks a quantity as a fully exited position.
const ClosedPositionThreshold = 1e-6

// ConfidencePolicy holds the tuned confidence constants. Only the
// ordering is contractual: deeper fallback rungs score strictly lower.
type ConfidencePolicy struct {
	Canonical int
	Alias     int

	TefasHit      int
	TefasDegraded int

	CryptoDirectQuote    int // direct pair quote succeeded
	CryptoSearchCurrency int // search hit with target-currency suffix
	CryptoVerifiedBuild  int // constructed ticker verified by quote
	CryptoSearchOther    int // search hit without currency match
	CryptoUnverified     int // constructed ticker, nothing verified

	GenericExact      int // exact symbol/ISIN among search results
	GenericISINAccept int // ISIN-search match accepted
	GenericNameAccept int // name-similarity match accepted
	GenericRejected   int // best candidate below threshold
	GenericNoResults  int

	SimilarityThreshold float64 // acceptance and poison-link cutoff, inclusive
	AliasLearnThreshold int     // minimum confidence to persist aliases
}

// DefaultPolicy returns the production confidence ladder.
func DefaultPolicy() ConfidencePolicy {
	return ConfidencePolicy{
		Canonical:            100,
		Alias:                100,
		TefasHit:             100,
		TefasDegraded:        70,
		CryptoDirectQuote:    99,
		CryptoSearchCurrency: 98,
		CryptoVerifiedBuild:  95,
		CryptoSearchOther:    80,
		CryptoUnverified:     75,
		GenericExact:         95,
		GenericISINAccept:    97,
		GenericNameAccept:    85,
		GenericRejected:      10,
		GenericNoResults:     0,
		SimilarityThreshold:  0.4,
		AliasLearnThreshold:  80,
	}
}

// AliasSnapshot is a read-only view of one user's alias memory, loaded
// once per import and shared by all rows.
type AliasSnapshot struct {
	byKey map[string]contracts.AliasRecord
}

// NewAliasSnapshot indexes alias records by upper-cased source string.
func NewAliasSnapshot(records []contracts.AliasRecord) *AliasSnapshot {
	byKey := make(map[string]contracts.AliasRecord, len(records))
	for _, rec := range records {
		byKey[strings.ToUpper(strings.TrimSpace(rec.SourceString))] = rec
	}
	return &AliasSnapshot{byKey: byKey}
}

// Lookup finds an alias by source string, case-insensitively.
func (s *AliasSnapshot) Lookup(source string) (contracts.AliasRecord, bool) {
	if s == nil || source == "" {
		return contracts.AliasRecord{}, false
	}
	rec, ok := s.byKey[strings.ToUpper(strings.TrimSpace(source))]
	return rec, ok
}

// Resolver maps import rows to canonical instrument identities through
// the tier pipeline: canonical registry, alias memory, TEFAS registry,
// crypto discovery, generic search.
type Resolver struct {
	market     contracts.MarketData
	policy     ConfidencePolicy
	logger     *logger.Logger
	chunkSize  int
	chunkDelay time.Duration
}

// New creates a resolver over the given lookup facade.
func New(market contracts.MarketData, policy ConfidencePolicy, chunkSize int, chunkDelay time.Duration, log *logger.Logger) *Resolver {
	if chunkSize < 1 {
		chunkSize = 5
	}
	return &Resolver{
		market:     market,
		policy:     policy,
		logger:     log,
		chunkSize:  chunkSize,
		chunkDelay: chunkDelay,
	}
}

// Policy exposes the active confidence policy.
func (r *Resolver) Policy() ConfidencePolicy {
	return r.policy
}

// ResolveAll resolves a batch of rows in fixed-size chunks with full
// parallelism inside a chunk and a politeness delay between chunks.
// Rows are independent; a row failure never aborts the batch.
func (r *Resolver) ResolveAll(ctx context.Context, rows []contracts.ImportRow, aliases *AliasSnapshot, existing []contracts.StoredInstrument) []contracts.ResolvedAsset {
	bySymbol := indexInstruments(existing)
	resolved := make([]contracts.ResolvedAsset, len(rows))

	for start := 0; start < len(rows); start += r.chunkSize {
		end := start + r.chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				resolved[i] = r.resolveRow(ctx, rows[i], aliases, bySymbol)
			}(i)
		}
		wg.Wait()

		if end < len(rows) && r.chunkDelay > 0 {
			select {
			case <-ctx.Done():
				for i := end; i < len(rows); i++ {
					resolved[i] = failedRow(rows[i], "resolution cancelled")
				}
				return resolved
			case <-time.After(r.chunkDelay):
			}
		}
	}

	return resolved
}

func indexInstruments(existing []contracts.StoredInstrument) map[string]contracts.StoredInstrument {
	bySymbol := make(map[string]contracts.StoredInstrument, len(existing))
	for _, inst := range existing {
		bySymbol[strings.ToUpper(inst.Symbol)] = inst
	}
	return bySymbol
}

// resolveRow runs the tier chain for one row and post-processes the
// match into a full ResolvedAsset.
func (r *Resolver) resolveRow(ctx context.Context, row contracts.ImportRow, aliases *AliasSnapshot, existing map[string]contracts.StoredInstrument) (asset contracts.ResolvedAsset) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithField("symbol", row.Symbol).Errorf("resolution panic: %v", rec)
			asset = failedRow(row, "resolution failed")
		}
	}()

	match := r.resolveTiers(ctx, row, aliases)

	asset = contracts.ResolvedAsset{
		ImportRow:        row,
		ResolvedSymbol:   match.Symbol,
		ResolvedName:     match.Name,
		ResolvedType:     match.Type,
		ResolvedCurrency: match.Currency,
		ResolvedExchange: match.Exchange,
		CurrentPrice:     match.Price,
		Confidence:       match.Confidence,
		MatchSource:      match.Source,
		Warnings:         match.Warnings,
	}
	if asset.Warnings == nil {
		asset.Warnings = []string{}
	}
	if asset.ResolvedName == "" {
		if row.Name != "" {
			asset.ResolvedName = row.Name
		} else {
			asset.ResolvedName = row.Symbol
		}
	}

	r.enrich(ctx, &asset)
	r.linkExisting(&asset, existing)
	asset.Action = decideAction(&asset)

	return asset
}

// resolveTiers walks the tier chain, short-circuiting on the first
// tier with an opinion. Tier errors degrade the row instead of
// aborting the batch.
func (r *Resolver) resolveTiers(ctx context.Context, row contracts.ImportRow, aliases *AliasSnapshot) contracts.ResolvedMatch {
	tiers := []func(context.Context, contracts.ImportRow, *AliasSnapshot) (*contracts.ResolvedMatch, error){
		r.resolveCanonical,
		r.resolveAlias,
		r.resolveTefas,
		r.resolveCrypto,
		r.resolveGeneric,
	}

	for _, tier := range tiers {
		match, err := tier(ctx, row, aliases)
		if err != nil {
			r.logger.WithError(err).WithField("symbol", row.Symbol).Warn("resolution tier failed")
			return failedMatch(row)
		}
		if match != nil {
			return *match
		}
	}

	return failedMatch(row)
}

// resolveCanonical handles symbols whose base is in the canonical
// registry. The registry always wins at maximum confidence; a quote is
// fetched for pricing only and its failure changes nothing.
func (r *Resolver) resolveCanonical(ctx context.Context, row contracts.ImportRow, _ *AliasSnapshot) (*contracts.ResolvedMatch, error) {
	name, ok := CanonicalName(row.Symbol)
	if !ok {
		return nil, nil
	}

	ticker := BuildCryptoTicker(row.Symbol, row.Currency)
	match := &contracts.ResolvedMatch{
		Symbol:     ticker,
		Name:       name,
		Type:       contracts.TypeCrypto,
		Currency:   strings.ToUpper(row.Currency),
		Confidence: r.policy.Canonical,
		Source:     contracts.SourceMemory,
	}

	if quote, err := r.market.Quote(ctx, ticker); err == nil && quote != nil {
		match.Price = quote.Price
		match.Exchange = quote.Exchange
	}
	return match, nil
}

// resolveAlias consults the per-user alias memory, keyed by name, then
// symbol, then ISIN. A hit is authoritative; the quote only refreshes
// display data.
func (r *Resolver) resolveAlias(ctx context.Context, row contracts.ImportRow, aliases *AliasSnapshot) (*contracts.ResolvedMatch, error) {
	var rec contracts.AliasRecord
	var ok bool
	for _, key := range []string{row.Name, row.Symbol, row.ISIN} {
		if key == "" {
			continue
		}
		if rec, ok = aliases.Lookup(key); ok {
			break
		}
	}
	if !ok {
		return nil, nil
	}

	match := &contracts.ResolvedMatch{
		Symbol:     rec.ResolvedSymbol,
		Currency:   strings.ToUpper(row.Currency),
		Type:       contracts.ParseAssetType(row.Type),
		Confidence: r.policy.Alias,
		Source:     contracts.SourceMemory,
	}

	if quote, err := r.market.Quote(ctx, rec.ResolvedSymbol); err == nil && quote != nil {
		match.Price = quote.Price
		match.Exchange = quote.Exchange
		if quote.Currency != "" {
			match.Currency = quote.Currency
		}
		if name := quote.DisplayName(); name != "" {
			match.Name = CleanAssetName(name)
		}
		if quote.QuoteType != "" {
			match.Type = typeFromQuoteType(quote.QuoteType, match.Type)
		}
	}
	return match, nil
}

// resolveTefas handles Turkish mutual funds. The market classification
// is trusted even when the registry call fails: a failed lookup
// degrades confidence but still commits to TEFAS type and currency.
func (r *Resolver) resolveTefas(ctx context.Context, row contracts.ImportRow, _ *AliasSnapshot) (*contracts.ResolvedMatch, error) {
	if !isTefasRow(row) {
		return nil, nil
	}

	code := strings.ToUpper(strings.TrimSpace(row.Symbol))
	fund, err := r.market.FundInfo(ctx, code)
	if err != nil {
		r.logger.WithError(err).WithField("code", code).Debug("tefas lookup failed")
	}

	if fund != nil {
		return &contracts.ResolvedMatch{
			Symbol:     fund.Code,
			Name:       fund.Title,
			Type:       contracts.TypeTefas,
			Currency:   "TRY",
			Exchange:   "TEFAS",
			Price:      fund.Price,
			Confidence: r.policy.TefasHit,
			Source:     contracts.SourceSearch,
		}, nil
	}

	return &contracts.ResolvedMatch{
		Symbol:     code,
		Name:       firstNonEmpty(row.Name, code),
		Type:       contracts.TypeTefas,
		Currency:   "TRY",
		Exchange:   "TEFAS",
		Confidence: r.policy.TefasDegraded,
		Source:     contracts.SourceSearch,
		Warnings:   []string{fmt.Sprintf("TEFAS lookup failed for %s, classification kept", code)},
	}, nil
}

// isTefasRow detects the Turkish fund market from explicit markers or
// the TR ISIN prefix combined with a fund type hint.
func isTefasRow(row contracts.ImportRow) bool {
	t := contracts.ParseAssetType(row.Type)
	if t == contracts.TypeTefas || strings.EqualFold(row.Exchange, "TEFAS") {
		return true
	}
	if strings.HasPrefix(strings.ToUpper(row.ISIN), "TR") && t == contracts.TypeFund {
		return true
	}
	return false
}

// resolveCrypto discovers the tradable pair ticker for crypto rows,
// descending a confidence ladder as each step fails.
func (r *Resolver) resolveCrypto(ctx context.Context, row contracts.ImportRow, _ *AliasSnapshot) (*contracts.ResolvedMatch, error) {
	if !IsCryptoRow(row) {
		return nil, nil
	}

	base := BaseSymbol(row.Symbol)
	currency := strings.ToUpper(firstNonEmpty(row.Currency, "USD"))
	ticker := BuildCryptoTicker(row.Symbol, currency)
	displayName := cryptoDisplayName(row)

	// (a) direct quote for the constructed pair
	if quote, err := r.market.Quote(ctx, ticker); err == nil && quote != nil {
		return &contracts.ResolvedMatch{
			Symbol:     ticker,
			Name:       firstNonEmpty(displayName, CleanAssetName(quote.DisplayName())),
			Type:       contracts.TypeCrypto,
			Currency:   currency,
			Exchange:   quote.Exchange,
			Price:      quote.Price,
			Confidence: r.policy.CryptoDirectQuote,
			Source:     contracts.SourceSearch,
		}, nil
	}

	// (b) search by base symbol, filtered to crypto hits
	results, err := r.market.Search(ctx, base)
	if err != nil {
		r.logger.WithError(err).WithField("symbol", base).Debug("crypto search failed")
	}

	var cryptoHits []contracts.SearchResult
	for _, res := range results {
		if strings.EqualFold(res.QuoteType, "CRYPTOCURRENCY") {
			cryptoHits = append(cryptoHits, res)
		}
	}

	for _, hit := range cryptoHits {
		if strings.HasSuffix(strings.ToUpper(hit.Symbol), "-"+currency) {
			return &contracts.ResolvedMatch{
				Symbol:     strings.ToUpper(hit.Symbol),
				Name:       firstNonEmpty(displayName, CleanAssetName(hit.DisplayName())),
				Type:       contracts.TypeCrypto,
				Currency:   currency,
				Exchange:   hit.Exchange,
				Confidence: r.policy.CryptoSearchCurrency,
				Source:     contracts.SourceSearch,
			}, nil
		}
	}

	// (c) rebuild the ticker from the best hit's base and verify
	if len(cryptoHits) > 0 {
		rebuilt := BuildCryptoTicker(cryptoHits[0].Symbol, currency)
		if quote, qErr := r.market.Quote(ctx, rebuilt); qErr == nil && quote != nil {
			return &contracts.ResolvedMatch{
				Symbol:     rebuilt,
				Name:       firstNonEmpty(displayName, CleanAssetName(cryptoHits[0].DisplayName())),
				Type:       contracts.TypeCrypto,
				Currency:   currency,
				Exchange:   quote.Exchange,
				Price:      quote.Price,
				Confidence: r.policy.CryptoVerifiedBuild,
				Source:     contracts.SourceSearch,
			}, nil
		}

		// (d) a crypto hit exists but not in the target currency
		hit := cryptoHits[0]
		return &contracts.ResolvedMatch{
			Symbol:     strings.ToUpper(hit.Symbol),
			Name:       firstNonEmpty(displayName, CleanAssetName(hit.DisplayName())),
			Type:       contracts.TypeCrypto,
			Currency:   currency,
			Exchange:   hit.Exchange,
			Confidence: r.policy.CryptoSearchOther,
			Source:     contracts.SourceSearch,
			Warnings:   []string{fmt.Sprintf("no %s pair found for %s, kept %s", currency, base, hit.Symbol)},
		}, nil
	}

	// (e) classification already decided this is crypto; commit to the
	// constructed ticker unverified
	return &contracts.ResolvedMatch{
		Symbol:     ticker,
		Name:       firstNonEmpty(displayName, base),
		Type:       contracts.TypeCrypto,
		Currency:   currency,
		Confidence: r.policy.CryptoUnverified,
		Source:     contracts.SourceSearch,
		Warnings:   []string{fmt.Sprintf("could not verify crypto ticker %s", ticker)},
	}, nil
}

func cryptoDisplayName(row contracts.ImportRow) string {
	if name, ok := CanonicalName(row.Symbol); ok {
		return name
	}
	if row.Name != "" {
		return CleanAssetName(row.Name)
	}
	return ""
}

// resolveGeneric is the last tier: search by ISIN, then symbol, then
// cleaned name, and validate the best candidate by name similarity.
func (r *Resolver) resolveGeneric(ctx context.Context, row contracts.ImportRow, _ *AliasSnapshot) (*contracts.ResolvedMatch, error) {
	var results []contracts.SearchResult
	isinSearch := false
	symbolSearch := false

	if len(row.ISIN) > 5 {
		found, err := r.market.Search(ctx, row.ISIN)
		if err != nil {
			return nil, fmt.Errorf("isin search: %w", err)
		}
		if len(found) > 0 {
			results = found
			isinSearch = true
		}
	}

	if len(results) == 0 && row.Symbol != "" {
		found, err := r.market.Search(ctx, row.Symbol)
		if err != nil {
			return nil, fmt.Errorf("symbol search: %w", err)
		}
		results = found
		symbolSearch = len(found) > 0
	}
	if len(results) == 0 && row.Name != "" {
		found, err := r.market.Search(ctx, CleanAssetName(row.Name))
		if err != nil {
			return nil, fmt.Errorf("name search: %w", err)
		}
		results = found
	}

	if len(results) == 0 {
		return &contracts.ResolvedMatch{
			Symbol:     row.Symbol,
			Name:       firstNonEmpty(row.Name, row.Symbol),
			Type:       contracts.ParseAssetType(row.Type),
			Currency:   strings.ToUpper(row.Currency),
			Confidence: r.policy.GenericNoResults,
			Source:     contracts.SourceNone,
			Warnings:   []string{fmt.Sprintf("no match found for %s", firstNonEmpty(row.Symbol, row.Name))},
		}, nil
	}

	// precision pass: exact symbol or ISIN among the results. A symbol
	// search echoing the query symbol back proves nothing, so exact
	// symbol matches only count from ISIN- or name-keyed searches.
	upperSymbol := strings.ToUpper(row.Symbol)
	upperISIN := strings.ToUpper(row.ISIN)
	for _, res := range results {
		resSymbol := strings.ToUpper(res.Symbol)
		if upperISIN != "" && resSymbol == upperISIN {
			return r.acceptGeneric(ctx, row, res, isinSearch, r.policy.GenericExact), nil
		}
		if !symbolSearch && resSymbol == upperSymbol && upperSymbol != "" {
			return r.acceptGeneric(ctx, row, res, isinSearch, r.policy.GenericExact), nil
		}
	}

	// similarity pass against the top result
	best := results[0]
	inputName := firstNonEmpty(row.Name, row.Symbol)
	score := Similarity(inputName, best.DisplayName())

	if score >= r.policy.SimilarityThreshold {
		return r.acceptGeneric(ctx, row, best, isinSearch, r.policy.GenericNameAccept), nil
	}

	// rejection: keep the row unresolved at floor confidence
	match := &contracts.ResolvedMatch{
		Symbol:     row.Symbol,
		Name:       firstNonEmpty(row.Name, row.Symbol),
		Type:       contracts.ParseAssetType(row.Type),
		Currency:   strings.ToUpper(row.Currency),
		Confidence: r.policy.GenericRejected,
		Source:     contracts.SourceNone,
		Warnings: []string{fmt.Sprintf("rejected candidate %s (%s), similarity %.2f below %.2f",
			best.Symbol, best.DisplayName(), score, r.policy.SimilarityThreshold)},
	}

	// poison-symbol guard: the rejected candidate carries the row's own
	// ticker, so the ticker itself cannot be trusted; fall back to ISIN
	if strings.EqualFold(best.Symbol, row.Symbol) && row.ISIN != "" {
		match.Symbol = row.ISIN
		match.Warnings = append(match.Warnings,
			fmt.Sprintf("symbol %s appears reused by an unrelated instrument, using ISIN %s", row.Symbol, row.ISIN))
	}
	return match, nil
}

// acceptGeneric builds the match for an accepted search result. An
// ISIN-based search elevates the match source and confidence:
// identifier matches are trusted above name matches.
func (r *Resolver) acceptGeneric(ctx context.Context, row contracts.ImportRow, res contracts.SearchResult, isinSearch bool, confidence int) *contracts.ResolvedMatch {
	source := contracts.SourceSearch
	if isinSearch {
		source = contracts.SourceISIN
		confidence = r.policy.GenericISINAccept
	}

	match := &contracts.ResolvedMatch{
		Symbol:     res.Symbol,
		Name:       CleanAssetName(firstNonEmpty(res.DisplayName(), row.Name, row.Symbol)),
		Type:       typeFromQuoteType(res.QuoteType, contracts.ParseAssetType(row.Type)),
		Currency:   strings.ToUpper(row.Currency),
		Exchange:   res.Exchange,
		Confidence: confidence,
		Source:     source,
	}

	if quote, err := r.market.Quote(ctx, res.Symbol); err == nil && quote != nil {
		match.Price = quote.Price
		if quote.Currency != "" {
			match.Currency = quote.Currency
		}
	}
	return match
}

// typeFromQuoteType maps provider quote types onto the closed set,
// falling back to the row's own hint.
func typeFromQuoteType(quoteType string, fallback contracts.AssetType) contracts.AssetType {
	switch strings.ToUpper(quoteType) {
	case "CRYPTOCURRENCY":
		return contracts.TypeCrypto
	case "ETF", "MUTUALFUND":
		return contracts.TypeFund
	case "EQUITY":
		return contracts.TypeStock
	case "CURRENCY":
		return contracts.TypeCurrency
	case "FUTURE", "COMMODITY":
		return contracts.TypeCommodity
	default:
		return fallback
	}
}

// linkExisting attaches the stored instrument matching the resolved
// symbol, unless the stored name no longer plausibly corresponds to
// the input (poison link).
func (r *Resolver) linkExisting(asset *contracts.ResolvedAsset, existing map[string]contracts.StoredInstrument) {
	inst, ok := existing[strings.ToUpper(asset.ResolvedSymbol)]
	if !ok {
		return
	}

	inputName := firstNonEmpty(asset.Name, asset.Symbol)
	score := Similarity(inst.Name, inputName)
	if score < r.policy.SimilarityThreshold && inst.Name != "" && !strings.EqualFold(inst.Name, inst.Symbol) {
		asset.Warnings = append(asset.Warnings,
			fmt.Sprintf("existing %s (%s) looks unrelated to %q (similarity %.2f), not linking",
				inst.Symbol, inst.Name, inputName, score))
		return
	}

	asset.ExistingAsset = &contracts.ExistingRef{
		ID:       inst.ID,
		Quantity: inst.Quantity,
		BuyPrice: inst.BuyPrice,
	}
}

// decideAction picks the advisory merge action. The merger re-validates
// against a fresh snapshot.
func decideAction(asset *contracts.ResolvedAsset) contracts.RowAction {
	if asset.Quantity <= ClosedPositionThreshold {
		return contracts.ActionClose
	}
	if asset.ExistingAsset != nil {
		return contracts.ActionUpdate
	}
	return contracts.ActionAdd
}

func failedMatch(row contracts.ImportRow) contracts.ResolvedMatch {
	return contracts.ResolvedMatch{
		Symbol:     row.Symbol,
		Name:       firstNonEmpty(row.Name, row.Symbol),
		Type:       contracts.ParseAssetType(row.Type),
		Currency:   strings.ToUpper(row.Currency),
		Confidence: 0,
		Source:     contracts.SourceNone,
		Warnings:   []string{"resolution failed"},
	}
}

func failedRow(row contracts.ImportRow, warning string) contracts.ResolvedAsset {
	return contracts.ResolvedAsset{
		ImportRow:        row,
		ResolvedSymbol:   row.Symbol,
		ResolvedName:     firstNonEmpty(row.Name, row.Symbol),
		ResolvedType:     contracts.ParseAssetType(row.Type),
		ResolvedCurrency: strings.ToUpper(row.Currency),
		Confidence:       0,
		MatchSource:      contracts.SourceNone,
		Action:           contracts.ActionSkip,
		Warnings:         []string{warning},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
