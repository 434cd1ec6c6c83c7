package commands

import (
	"time"

	"github.com/tkaya/folio/internal/contracts"
	"github.com/tkaya/folio/internal/external/alphavantage"
	"github.com/tkaya/folio/internal/external/finnhub"
	"github.com/tkaya/folio/internal/external/tefas"
	"github.com/tkaya/folio/internal/external/yahoo"
	"github.com/tkaya/folio/internal/marketdata"
	"github.com/tkaya/folio/internal/resolver"
	"github.com/tkaya/folio/pkg/config"
	"github.com/tkaya/folio/pkg/httputil"
	"github.com/tkaya/folio/pkg/logger"
	"github.com/tkaya/folio/pkg/redis"
)

// buildMarketData assembles the provider clients and the lookup
// facade. Per-provider HTTP clients carry the provider's rate limit.
func buildMarketData(cfg *config.Config, rdb *redis.Client, log *logger.Logger) *marketdata.Service {
	yahooHTTP := httputil.New(15*time.Second, log).
		WithRetry(httputil.RetryConfig{
			MaxRetries:   2,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
		})
	finnhubHTTP := httputil.New(10*time.Second, log).
		WithRateLimiter(redis.NewRateLimiter(rdb, redis.FinnhubRateLimit))
	avHTTP := httputil.New(10*time.Second, log).
		WithRateLimiter(redis.NewRateLimiter(rdb, redis.AlphaVantageRateLimit))
	tefasHTTP := httputil.New(20*time.Second, log).
		WithRateLimiter(redis.NewRateLimiter(rdb, redis.TefasRateLimit))

	yahooClient := yahoo.NewClient(yahooHTTP, cfg.Yahoo, log)
	finnhubClient := finnhub.NewClient(finnhubHTTP, cfg.Finnhub.APIKey, log)
	avClient := alphavantage.NewClient(avHTTP, cfg.AlphaVantage.APIKey, log)
	tefasClient := tefas.NewClient(tefasHTTP, cfg.Tefas.BaseURL, log)

	cache := redis.NewCache(rdb, "folio")

	return marketdata.New(
		yahooClient,
		[]contracts.QuoteProvider{avClient, finnhubClient},
		[]contracts.ProfileProvider{finnhubClient},
		tefasClient,
		cache,
		log,
	)
}

// buildResolver creates the resolution pipeline on top of the lookup
// facade with the configured chunking.
func buildResolver(cfg *config.Config, market *marketdata.Service, log *logger.Logger) *resolver.Resolver {
	return resolver.New(market, resolver.DefaultPolicy(), cfg.Import.ChunkSize, cfg.Import.ChunkDelay, log)
}
