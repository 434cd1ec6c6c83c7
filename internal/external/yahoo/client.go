package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/tkaya/folio/pkg/config"
	"github.com/tkaya/folio/pkg/httputil"
	"github.com/tkaya/folio/pkg/logger"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// Client handles communication with the Yahoo Finance search and chart
// endpoints. All Yahoo calls go through this client.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	limiter    *rate.Limiter
	searchBase string // query1 host, search endpoint
	chartBase  string // query2 host, chart + quoteSummary endpoints
}

// NewClient creates a new Yahoo Finance client.
func NewClient(httpClient *httputil.Client, cfg config.YahooConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		searchBase: cfg.SearchBaseURL,
		chartBase:  cfg.ChartBaseURL,
	}
}

// fetchJSON performs a rate-limited GET and returns the raw body.
func (c *Client) fetchJSON(ctx context.Context, fullURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, body, err := c.httpClient.Get(ctx, fullURL, map[string]string{
		"User-Agent": userAgent,
		"Accept":     "application/json",
		"Referer":    "https://finance.yahoo.com/",
	})
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return body, nil
}

func (c *Client) searchURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("lang", "en-US")
	params.Set("region", "US")
	params.Set("quotesCount", "10")
	params.Set("newsCount", "0")
	params.Set("enableFuzzyQuery", "false")
	return fmt.Sprintf("%s/v1/finance/search?%s", c.searchBase, params.Encode())
}

func (c *Client) chartURL(symbol string) string {
	return fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", c.chartBase, url.PathEscape(symbol))
}

func (c *Client) profileURL(symbol string) string {
	return fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=assetProfile", c.chartBase, url.PathEscape(symbol))
}
