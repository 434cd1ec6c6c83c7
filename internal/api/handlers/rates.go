package handlers

import (
	"net/http"

	"github.com/tkaya/folio/internal/marketdata"
	"github.com/tkaya/folio/pkg/logger"
)

// RatesHandler serves the EUR conversion table used by portfolio
// valuation on the client side.
type RatesHandler struct {
	market *marketdata.Service
	logger *logger.Logger
}

// NewRatesHandler creates the rates handler.
func NewRatesHandler(market *marketdata.Service, log *logger.Logger) *RatesHandler {
	return &RatesHandler{market: market, logger: log}
}

// Rates returns 1 EUR expressed in each supported currency.
// GET /api/rates
func (h *RatesHandler) Rates(w http.ResponseWriter, r *http.Request) {
	rates := h.market.EURRates(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"base":  "EUR",
		"rates": rates,
	})
}
