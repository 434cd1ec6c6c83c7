package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/tkaya/folio/internal/contracts"
	"github.com/tkaya/folio/internal/resolver"
	"github.com/tkaya/folio/pkg/logger"
)

// Merger reconciles resolved rows and transaction history against the
// store. Re-running the same import is safe: composite keys against a
// fresh snapshot prevent duplicate positions, and transactions are
// deduplicated by external id or fuzzy match.
type Merger struct {
	instruments  contracts.InstrumentRepository
	transactions contracts.TransactionRepository
	aliases      contracts.AliasRepository
	policy       resolver.ConfidencePolicy
	logger       *logger.Logger
}

// NewMerger wires the merge phase to its repositories.
func NewMerger(instruments contracts.InstrumentRepository, transactions contracts.TransactionRepository, aliases contracts.AliasRepository, policy resolver.ConfidencePolicy, log *logger.Logger) *Merger {
	return &Merger{
		instruments:  instruments,
		transactions: transactions,
		aliases:      aliases,
		policy:       policy,
		logger:       log,
	}
}

// MergeRequest is one import execution: the reviewed resolution batch
// plus its transaction history, targeted at a portfolio and an
// optional custom group.
type MergeRequest struct {
	UserID      string
	PortfolioID string
	CustomGroup string
	Platform    string
	Assets      []contracts.ResolvedAsset
	Txs         []contracts.StoredTransaction
}

// snapshotIndex is the in-memory view of the portfolio's instruments,
// updated as the batch commits so intra-batch duplicates are caught
// without re-querying the store.
type snapshotIndex struct {
	byComposite map[string]*contracts.StoredInstrument
	byISIN      map[string]*contracts.StoredInstrument
}

func compositeKey(symbol, group, platform string) string {
	return strings.ToUpper(symbol) + "|" + strings.ToUpper(group) + "|" + strings.ToUpper(platform)
}

func newSnapshotIndex(instruments []contracts.StoredInstrument) *snapshotIndex {
	idx := &snapshotIndex{
		byComposite: make(map[string]*contracts.StoredInstrument, len(instruments)),
		byISIN:      make(map[string]*contracts.StoredInstrument),
	}
	for i := range instruments {
		idx.register(&instruments[i])
	}
	return idx
}

func (idx *snapshotIndex) register(inst *contracts.StoredInstrument) {
	idx.byComposite[compositeKey(inst.Symbol, inst.CustomGroup, inst.Platform)] = inst
	if inst.ISIN != "" {
		idx.byISIN[compositeKey(inst.ISIN, inst.CustomGroup, inst.Platform)] = inst
	}
}

func (idx *snapshotIndex) find(symbol, isin, group, platform string) *contracts.StoredInstrument {
	if inst, ok := idx.byComposite[compositeKey(symbol, group, platform)]; ok {
		return inst
	}
	if isin != "" {
		if inst, ok := idx.byISIN[compositeKey(isin, group, platform)]; ok {
			return inst
		}
	}
	return nil
}

// Merge applies the batch. Per-row failures are collected as error
// strings; only the initial snapshot read aborts the whole call.
func (m *Merger) Merge(ctx context.Context, req MergeRequest) (*contracts.ImportResult, error) {
	fresh, err := m.instruments.FindByPortfolio(ctx, req.PortfolioID)
	if err != nil {
		return nil, fmt.Errorf("read portfolio snapshot: %w", err)
	}
	idx := newSnapshotIndex(fresh)

	nextSort := 0
	if min, ok, err := m.instruments.MinSortOrder(ctx, req.PortfolioID); err != nil {
		m.logger.WithError(err).Warn("min sort order lookup failed, starting at 0")
	} else if ok {
		nextSort = min - 1
	}

	result := &contracts.ImportResult{Errors: []string{}}

	for i := range req.Assets {
		asset := &req.Assets[i]
		if err := m.mergeAsset(ctx, req, asset, idx, &nextSort, result); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s (%s): %v", asset.ResolvedSymbol, asset.Action, err))
			continue
		}
		// a skipped row is a hint the resolution may be wrong, so it
		// never teaches the alias memory
		if asset.Action != contracts.ActionSkip {
			m.learnAliases(ctx, req, asset)
		}
	}

	m.mergeTransactions(ctx, req, result)

	result.Success = len(result.Errors) == 0
	return result, nil
}

// mergeAsset commits one resolved row. The carried action is advisory:
// the fresh composite-key lookup decides the real outcome.
func (m *Merger) mergeAsset(ctx context.Context, req MergeRequest, asset *contracts.ResolvedAsset, idx *snapshotIndex, nextSort *int, result *contracts.ImportResult) error {
	if asset.Action == contracts.ActionSkip {
		result.Skipped++
		return nil
	}

	platform := firstNonEmptyString(asset.Platform, req.Platform)
	existing := idx.find(asset.ResolvedSymbol, asset.ISIN, req.CustomGroup, platform)

	action := asset.Action
	if action == contracts.ActionAdd && existing != nil {
		action = contracts.ActionUpdate
	}
	if action == contracts.ActionUpdate && existing == nil {
		action = contracts.ActionAdd
	}

	switch action {
	case contracts.ActionAdd:
		inst := m.buildInstrument(req, asset, platform, *nextSort)
		if err := m.instruments.Create(ctx, inst); err != nil {
			return err
		}
		*nextSort--
		idx.register(inst)
		result.Added++

	case contracts.ActionUpdate:
		m.applyUpdate(existing, asset)
		if err := m.instruments.Update(ctx, existing); err != nil {
			return err
		}
		result.Updated++

	case contracts.ActionClose:
		if existing == nil {
			// closed position with no stored record: create it at zero
			// so the history survives
			inst := m.buildInstrument(req, asset, platform, *nextSort)
			inst.Quantity = 0
			if err := m.instruments.Create(ctx, inst); err != nil {
				return err
			}
			*nextSort--
			idx.register(inst)
		} else {
			m.applyUpdate(existing, asset)
			existing.Quantity = 0
			if err := m.instruments.Update(ctx, existing); err != nil {
				return err
			}
		}
		result.Closed++
	}

	return nil
}

func (m *Merger) buildInstrument(req MergeRequest, asset *contracts.ResolvedAsset, platform string, sortOrder int) *contracts.StoredInstrument {
	return &contracts.StoredInstrument{
		PortfolioID:  req.PortfolioID,
		Symbol:       asset.ResolvedSymbol,
		ISIN:         asset.ISIN,
		Name:         asset.ResolvedName,
		OriginalName: firstNonEmptyString(asset.Name, asset.Symbol),
		Type:         asset.ResolvedType,
		Category:     asset.Category,
		Quantity:     asset.Quantity,
		BuyPrice:     asset.BuyPrice,
		Currency:     asset.ResolvedCurrency,
		Exchange:     asset.ResolvedExchange,
		Country:      asset.Country,
		Sector:       asset.Sector,
		Platform:     platform,
		CustomGroup:  req.CustomGroup,
		SortOrder:    sortOrder,
		LogoURL:      logoURL(asset.ResolvedSymbol, asset.ResolvedType, asset.ResolvedExchange),
		CurrentPrice: asset.CurrentPrice,
	}
}

// applyUpdate refreshes an existing instrument from the latest
// resolution. Classification metadata is always overwritten so
// upstream fixes reach old holdings; the display name is preserved
// unless it was a placeholder or the registry corrected it.
func (m *Merger) applyUpdate(existing *contracts.StoredInstrument, asset *contracts.ResolvedAsset) {
	existing.Quantity = asset.Quantity
	existing.BuyPrice = asset.BuyPrice
	existing.Type = asset.ResolvedType
	existing.Category = asset.Category
	existing.Currency = asset.ResolvedCurrency
	existing.Exchange = asset.ResolvedExchange
	existing.Country = asset.Country
	existing.Sector = asset.Sector
	if asset.ISIN != "" {
		existing.ISIN = asset.ISIN
	}
	if asset.CurrentPrice > 0 {
		existing.CurrentPrice = asset.CurrentPrice
	}
	if url := logoURL(asset.ResolvedSymbol, asset.ResolvedType, asset.ResolvedExchange); url != "" {
		existing.LogoURL = url
	}

	placeholder := strings.EqualFold(existing.Name, existing.Symbol)
	canonical, isCanonical := resolver.CanonicalName(asset.ResolvedSymbol)
	if placeholder || (isCanonical && canonical == asset.ResolvedName) {
		existing.Name = asset.ResolvedName
	}
}

// learnAliases persists up to three source-string mappings after a
// confident non-memory resolution, so the next import of the same file
// resolves from memory without external lookups.
func (m *Merger) learnAliases(ctx context.Context, req MergeRequest, asset *contracts.ResolvedAsset) {
	if asset.MatchSource == contracts.SourceMemory || asset.MatchSource == contracts.SourceNone {
		return
	}
	if asset.Confidence < m.policy.AliasLearnThreshold {
		return
	}

	resolved := strings.ToUpper(asset.ResolvedSymbol)
	platform := firstNonEmptyString(asset.Platform, req.Platform)
	seen := map[string]bool{resolved: true}

	for _, source := range []string{asset.Name, asset.ISIN, asset.Symbol} {
		key := strings.ToUpper(strings.TrimSpace(source))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		rec := contracts.AliasRecord{
			UserID:         req.UserID,
			SourceString:   key,
			Platform:       platform,
			ResolvedSymbol: asset.ResolvedSymbol,
			IsVerified:     asset.MatchSource == contracts.SourceISIN,
		}
		if err := m.aliases.Upsert(ctx, rec); err != nil {
			m.logger.WithError(err).WithField("source", key).Warn("alias upsert failed")
		}
	}
}

// mergeTransactions writes history rows, resolving each row's symbol
// through the asset batch and deduplicating against the store.
func (m *Merger) mergeTransactions(ctx context.Context, req MergeRequest, result *contracts.ImportResult) {
	if len(req.Txs) == 0 {
		return
	}

	bySymbol := make(map[string]string)
	byISIN := make(map[string]string)
	byName := make(map[string]string)
	for _, asset := range req.Assets {
		if asset.ResolvedSymbol == "" {
			continue
		}
		if asset.Symbol != "" {
			bySymbol[strings.ToUpper(asset.Symbol)] = asset.ResolvedSymbol
		}
		if asset.ISIN != "" {
			byISIN[strings.ToUpper(asset.ISIN)] = asset.ResolvedSymbol
		}
		if asset.Name != "" {
			byName[strings.ToUpper(asset.Name)] = asset.ResolvedSymbol
		}
	}

	for i := range req.Txs {
		tx := req.Txs[i]
		tx.PortfolioID = req.PortfolioID
		tx.Platform = firstNonEmptyString(tx.Platform, req.Platform)
		tx.Symbol = resolveTxSymbol(tx, bySymbol, byISIN, byName)

		if err := m.writeTransaction(ctx, &tx, result); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s (transaction): %v", tx.Symbol, err))
		}
	}
}

// resolveTxSymbol maps a transaction's raw identifier to the batch's
// resolved symbol: by symbol, then ISIN, then name. Rows outside the
// batch get the standalone crypto heuristic so exchange history is not
// lost.
func resolveTxSymbol(tx contracts.StoredTransaction, bySymbol, byISIN, byName map[string]string) string {
	if s, ok := bySymbol[strings.ToUpper(tx.Symbol)]; ok {
		return s
	}
	for _, isin := range []string{tx.ISIN, tx.Symbol} {
		if isin == "" {
			continue
		}
		if s, ok := byISIN[strings.ToUpper(isin)]; ok {
			return s
		}
	}
	if tx.Name != "" {
		if s, ok := byName[strings.ToUpper(tx.Name)]; ok {
			return s
		}
	}

	row := contracts.ImportRow{Symbol: tx.Symbol, Name: tx.Name, ISIN: tx.ISIN, Currency: tx.Currency}
	if resolver.IsCryptoRow(row) {
		return resolver.BuildCryptoTicker(tx.Symbol, tx.Currency)
	}
	return tx.Symbol
}

func (m *Merger) writeTransaction(ctx context.Context, tx *contracts.StoredTransaction, result *contracts.ImportResult) error {
	if tx.ExternalID != "" {
		if err := m.transactions.UpsertByExternalID(ctx, tx); err != nil {
			return err
		}
		result.TxAdded++
		return nil
	}

	exists, err := m.transactions.ExistsFuzzy(ctx, tx.PortfolioID, tx.Symbol, tx.Date, tx.Quantity, tx.Price, tx.Type)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := m.transactions.Create(ctx, tx); err != nil {
		return err
	}
	result.TxAdded++
	return nil
}

func firstNonEmptyString(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
