package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tkaya/folio/internal/contracts"
	"github.com/tkaya/folio/internal/external/yahoo"
	"github.com/tkaya/folio/pkg/logger"
	"github.com/tkaya/folio/pkg/redis"
)

const (
	quoteCacheTTL   = 15 * time.Minute
	searchCacheTTL  = 10 * time.Minute
	profileCacheTTL = 24 * time.Hour
	fundCacheTTL    = 5 * time.Minute
)

// Service is the external lookup facade. It fronts the provider
// clients with Redis caching and a quote fallback cascade
// (Yahoo -> Alpha Vantage -> Finnhub).
type Service struct {
	yahoo    *yahoo.Client
	quoteFbs []contracts.QuoteProvider
	profiles []contracts.ProfileProvider
	funds    contracts.FundProvider
	cache    *redis.Cache
	logger   *logger.Logger
}

// New creates the lookup facade. Fallback quote providers are tried in
// order after Yahoo; profile providers are tried in order until one
// yields usable metadata.
func New(yc *yahoo.Client, quoteFallbacks []contracts.QuoteProvider, profileProviders []contracts.ProfileProvider, funds contracts.FundProvider, cache *redis.Cache, log *logger.Logger) *Service {
	return &Service{
		yahoo:    yc,
		quoteFbs: quoteFallbacks,
		profiles: profileProviders,
		funds:    funds,
		cache:    cache,
		logger:   log,
	}
}

// Quote fetches a live quote, trying Yahoo first and falling back to
// the secondary providers. Fallback prices carry the currency implied
// by the symbol suffix. Returns nil when every source misses.
func (s *Service) Quote(ctx context.Context, symbol string) (*contracts.Quote, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, nil
	}

	cacheKey := fmt.Sprintf("quote:%s", strings.ToUpper(symbol))
	var cached contracts.Quote
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	quote, err := s.yahoo.Quote(ctx, symbol)
	if err != nil {
		s.logger.WithError(err).WithField("symbol", symbol).Debug("yahoo quote failed, trying fallbacks")
	}

	if quote == nil {
		for _, fb := range s.quoteFbs {
			q, fbErr := fb.Quote(ctx, symbol)
			if fbErr != nil || q == nil {
				continue
			}
			if q.Currency == "" {
				if forced := yahoo.DetectCurrency(symbol); forced != "" {
					q.Currency = forced
				} else {
					q.Currency = "USD"
				}
			}
			quote = q
			break
		}
	}

	if quote == nil {
		return nil, err
	}

	if cacheErr := s.cache.Set(ctx, cacheKey, quote, quoteCacheTTL); cacheErr != nil {
		s.logger.WithError(cacheErr).Debug("quote cache write failed")
	}
	return quote, nil
}

// Search queries Yahoo by free text or ISIN.
func (s *Service) Search(ctx context.Context, query string) ([]contracts.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	cacheKey := fmt.Sprintf("search:%s", strings.ToLower(query))
	var cached []contracts.SearchResult
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	results, err := s.yahoo.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if len(results) > 0 {
		if cacheErr := s.cache.Set(ctx, cacheKey, results, searchCacheTTL); cacheErr != nil {
			s.logger.WithError(cacheErr).Debug("search cache write failed")
		}
	}
	return results, nil
}

// FundInfo looks up a fund code in the TEFAS registry.
func (s *Service) FundInfo(ctx context.Context, code string) (*contracts.FundInfo, error) {
	cacheKey := fmt.Sprintf("fund:%s", strings.ToUpper(code))
	var cached contracts.FundInfo
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	fund, err := s.funds.FundInfo(ctx, code)
	if err != nil || fund == nil {
		return nil, err
	}

	if cacheErr := s.cache.Set(ctx, cacheKey, fund, fundCacheTTL); cacheErr != nil {
		s.logger.WithError(cacheErr).Debug("fund cache write failed")
	}
	return fund, nil
}

// Profile walks the profile provider cascade until one returns both a
// country and a sector that are not the "Unknown" sentinel. A partial
// profile from an earlier provider is kept and topped up by later ones.
func (s *Service) Profile(ctx context.Context, symbol string) (*contracts.CompanyProfile, error) {
	cacheKey := fmt.Sprintf("profile:%s", strings.ToUpper(symbol))
	var cached contracts.CompanyProfile
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	merged := &contracts.CompanyProfile{}
	for _, p := range s.profiles {
		profile, err := p.Profile(ctx, symbol)
		if err != nil {
			s.logger.WithError(err).WithField("symbol", symbol).Debug("profile provider failed")
			continue
		}
		if profile == nil {
			continue
		}

		if usable(merged.Country) == "" {
			merged.Country = profile.Country
		}
		if usable(merged.Sector) == "" {
			merged.Sector = profile.Sector
		}
		if merged.Industry == "" {
			merged.Industry = profile.Industry
		}
		if merged.Exchange == "" {
			merged.Exchange = profile.Exchange
		}

		if usable(merged.Country) != "" && usable(merged.Sector) != "" {
			break
		}
	}

	if merged.Country == "" && merged.Sector == "" {
		return nil, nil
	}

	if cacheErr := s.cache.Set(ctx, cacheKey, merged, profileCacheTTL); cacheErr != nil {
		s.logger.WithError(cacheErr).Debug("profile cache write failed")
	}
	return merged, nil
}

// usable treats the "Unknown" sentinel as absent.
func usable(v string) string {
	if strings.EqualFold(v, "unknown") {
		return ""
	}
	return v
}
