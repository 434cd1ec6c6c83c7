package jobs

import (
	"context"
	"strings"
	"time"

	"github.com/tkaya/folio/internal/contracts"
	"github.com/tkaya/folio/internal/marketdata"
	"github.com/tkaya/folio/pkg/logger"
)

// instrumentStore is the slice of the instrument repository the
// refresh job needs.
type instrumentStore interface {
	ListActive(ctx context.Context) ([]contracts.StoredInstrument, error)
	UpdatePrice(ctx context.Context, id string, price float64) error
}

// PriceRefreshJob refreshes cached market prices for all open
// positions. Each distinct symbol is quoted once per run.
type PriceRefreshJob struct {
	instruments instrumentStore
	market      *marketdata.Service
	logger      *logger.Logger
}

// NewPriceRefreshJob creates the price refresh job.
func NewPriceRefreshJob(instruments instrumentStore, market *marketdata.Service, log *logger.Logger) *PriceRefreshJob {
	return &PriceRefreshJob{
		instruments: instruments,
		market:      market,
		logger:      log,
	}
}

// Name returns the job name.
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}

// Schedule returns the cron schedule (every 15 minutes).
func (j *PriceRefreshJob) Schedule() string {
	return "0 */15 * * * *"
}

// Run quotes every distinct open symbol and writes fresh prices.
func (j *PriceRefreshJob) Run(ctx context.Context) error {
	start := time.Now()

	instruments, err := j.instruments.ListActive(ctx)
	if err != nil {
		return err
	}
	if len(instruments) == 0 {
		return nil
	}

	prices := make(map[string]float64)
	updated := 0
	failed := 0

	for _, inst := range instruments {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		symbol := strings.ToUpper(strings.TrimSpace(inst.Symbol))
		if symbol == "" {
			continue
		}

		price, seen := prices[symbol]
		if !seen {
			quote, err := j.market.Quote(ctx, symbol)
			if err != nil || quote == nil || quote.Price <= 0 {
				j.logger.WithField("symbol", symbol).Debug("No fresh price for symbol")
				prices[symbol] = 0
				failed++
				continue
			}
			price = quote.Price
			prices[symbol] = price
		}
		if price <= 0 {
			continue
		}

		if err := j.instruments.UpdatePrice(ctx, inst.ID, price); err != nil {
			j.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to store refreshed price")
			failed++
			continue
		}
		updated++
	}

	j.logger.WithFields(map[string]interface{}{
		"instruments": len(instruments),
		"updated":     updated,
		"failed":      failed,
		"duration":    time.Since(start).String(),
	}).Info("Price refresh completed")

	return nil
}
