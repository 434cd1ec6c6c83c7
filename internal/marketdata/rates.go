package marketdata

import (
	"context"
	"time"
)

const ratesCacheTTL = time.Hour

// fallbackRates is used when the FX quotes cannot be fetched.
var fallbackRates = map[string]float64{
	"EUR": 1,
	"USD": 1.05,
	"TRY": 35,
}

// EURRates returns conversion rates from EUR to each supported
// currency (1 EUR = rate units of currency). Falls back to hard-coded
// rates when the FX quotes are unavailable.
func (s *Service) EURRates(ctx context.Context) map[string]float64 {
	cacheKey := "rates:eur"
	var cached map[string]float64
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit && len(cached) > 0 {
		return cached
	}

	rates := map[string]float64{"EUR": 1}

	pairs := map[string]string{
		"USD": "EURUSD=X",
		"TRY": "EURTRY=X",
	}
	complete := true
	for cur, pair := range pairs {
		quote, err := s.Quote(ctx, pair)
		if err != nil || quote == nil || quote.Price <= 0 {
			rates[cur] = fallbackRates[cur]
			complete = false
			continue
		}
		rates[cur] = quote.Price
	}

	if complete {
		if err := s.cache.Set(ctx, cacheKey, rates, ratesCacheTTL); err != nil {
			s.logger.WithError(err).Debug("rates cache write failed")
		}
	}
	return rates
}
