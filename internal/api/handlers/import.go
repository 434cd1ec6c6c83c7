package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tkaya/folio/internal/contracts"
	"github.com/tkaya/folio/internal/importer"
	"github.com/tkaya/folio/internal/resolver"
	"github.com/tkaya/folio/pkg/logger"
)

// ImportHandler exposes the two-phase import flow: resolve rows for
// review, then execute the reviewed batch.
type ImportHandler struct {
	aliases     contracts.AliasRepository
	instruments contracts.InstrumentRepository
	resolver    *resolver.Resolver
	merger      *importer.Merger
	logger      *logger.Logger
}

// NewImportHandler creates the import handler.
func NewImportHandler(
	aliases contracts.AliasRepository,
	instruments contracts.InstrumentRepository,
	res *resolver.Resolver,
	merger *importer.Merger,
	log *logger.Logger,
) *ImportHandler {
	return &ImportHandler{
		aliases:     aliases,
		instruments: instruments,
		resolver:    res,
		merger:      merger,
		logger:      log,
	}
}

// ResolveRequest carries either pre-extracted rows or raw CSV content.
type ResolveRequest struct {
	PortfolioID string                `json:"portfolioId"`
	Platform    string                `json:"platform,omitempty"`
	CSV         string                `json:"csv,omitempty"`
	Rows        []contracts.ImportRow `json:"rows,omitempty"`
}

// ResolveResponse is the resolution phase result, including any
// transaction history extracted from a CSV upload.
type ResolveResponse struct {
	contracts.ResolveResult
	Transactions []contracts.StoredTransaction `json:"transactions,omitempty"`
}

// Resolve maps raw rows to canonical instruments for user review.
// POST /api/import/resolve
func (h *ImportHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rows := req.Rows
	var txs []contracts.StoredTransaction
	var parseErrors []string
	if req.CSV != "" {
		parsed, err := importer.ParseCSV(req.CSV, req.Platform)
		if err != nil {
			respondError(w, http.StatusBadRequest, "could not parse CSV content")
			return
		}
		for _, p := range parsed.Rows {
			rows = append(rows, p.ImportRow)
		}
		txs = parsed.Transactions
		parseErrors = parsed.Errors
	}
	if len(rows) == 0 {
		respondError(w, http.StatusBadRequest, "no rows to resolve")
		return
	}

	aliasRecords, err := h.aliases.FindByUser(ctx, userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load alias memory")
		respondError(w, http.StatusInternalServerError, "failed to load alias memory")
		return
	}

	var existing []contracts.StoredInstrument
	if req.PortfolioID != "" {
		existing, err = h.instruments.FindByPortfolio(ctx, req.PortfolioID)
		if err != nil {
			h.logger.WithError(err).Error("Failed to load portfolio snapshot")
			respondError(w, http.StatusInternalServerError, "failed to load portfolio")
			return
		}
	}

	resolved := h.resolver.ResolveAll(ctx, rows, resolver.NewAliasSnapshot(aliasRecords), existing)

	respondJSON(w, http.StatusOK, ResolveResponse{
		ResolveResult: contracts.ResolveResult{
			Success:  true,
			Resolved: resolved,
			Errors:   parseErrors,
		},
		Transactions: txs,
	})
}

// ExecuteRequest is the reviewed batch to commit.
type ExecuteRequest struct {
	PortfolioID  string                        `json:"portfolioId"`
	CustomGroup  string                        `json:"customGroup,omitempty"`
	Platform     string                        `json:"platform,omitempty"`
	Resolved     []contracts.ResolvedAsset     `json:"resolved"`
	Transactions []contracts.StoredTransaction `json:"transactions,omitempty"`
}

// Execute merges a reviewed batch into the portfolio.
// POST /api/import/execute
func (h *ImportHandler) Execute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PortfolioID == "" {
		respondError(w, http.StatusBadRequest, "portfolioId is required")
		return
	}
	if len(req.Resolved) == 0 && len(req.Transactions) == 0 {
		respondError(w, http.StatusBadRequest, "nothing to import")
		return
	}

	result, err := h.merger.Merge(ctx, importer.MergeRequest{
		UserID:      userID,
		PortfolioID: req.PortfolioID,
		CustomGroup: req.CustomGroup,
		Platform:    req.Platform,
		Assets:      req.Resolved,
		Txs:         req.Transactions,
	})
	if err != nil {
		h.logger.WithError(err).Error("Import merge failed")
		respondError(w, http.StatusInternalServerError, "import failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
