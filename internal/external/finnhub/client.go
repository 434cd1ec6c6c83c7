package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tkaya/folio/internal/contracts"
	"github.com/tkaya/folio/pkg/httputil"
	"github.com/tkaya/folio/pkg/logger"
)

// Client handles communication with the Finnhub REST API. Used as a
// quote fallback and as the primary company-profile provider. With no
// API key configured every call is a no-op returning nil.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// NewClient creates a new Finnhub client.
func NewClient(httpClient *httputil.Client, apiKey string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    "https://finnhub.io/api/v1",
		apiKey:     apiKey,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type quoteResponse struct {
	Current       float64 `json:"c"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// Quote fetches the current quote. Finnhub reports prices without a
// currency, so the caller decides the currency from the symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*contracts.Quote, error) {
	if !c.Enabled() {
		return nil, nil
	}

	var resp quoteResponse
	if err := c.getJSON(ctx, "/quote", url.Values{"symbol": {symbol}}, &resp); err != nil {
		return nil, err
	}

	if resp.Current <= 0 {
		return nil, nil
	}

	return &contracts.Quote{
		Symbol:        symbol,
		Price:         resp.Current,
		PreviousClose: resp.PreviousClose,
	}, nil
}

type profileResponse struct {
	Country         string `json:"country"`
	Currency        string `json:"currency"`
	Exchange        string `json:"exchange"`
	Name            string `json:"name"`
	FinnhubIndustry string `json:"finnhubIndustry"`
}

// Profile fetches company country and industry classification.
func (c *Client) Profile(ctx context.Context, symbol string) (*contracts.CompanyProfile, error) {
	if !c.Enabled() {
		return nil, nil
	}

	var resp profileResponse
	if err := c.getJSON(ctx, "/stock/profile2", url.Values{"symbol": {symbol}}, &resp); err != nil {
		return nil, err
	}

	if resp.Country == "" && resp.FinnhubIndustry == "" {
		return nil, nil
	}

	return &contracts.CompanyProfile{
		Country:  countryName(resp.Country),
		Sector:   resp.FinnhubIndustry,
		Industry: resp.FinnhubIndustry,
		Exchange: resp.Exchange,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dest interface{}) error {
	params.Set("token", c.apiKey)
	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	start := time.Now()
	resp, body, err := c.httpClient.Get(ctx, fullURL, nil)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	c.logger.WithFields(map[string]interface{}{
		"path":     path,
		"duration": time.Since(start).String(),
	}).Debug("finnhub request")

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode finnhub response: %w", err)
	}
	return nil
}

// Finnhub reports ISO alpha-2 country codes; map the common ones onto
// the display names the rest of the system uses.
var countryNames = map[string]string{
	"US": "United States",
	"NL": "Netherlands",
	"DE": "Germany",
	"FR": "France",
	"GB": "United Kingdom",
	"CH": "Switzerland",
	"IT": "Italy",
	"ES": "Spain",
	"TR": "Turkey",
	"CA": "Canada",
	"JP": "Japan",
	"CN": "China",
	"KR": "South Korea",
}

func countryName(code string) string {
	if name, ok := countryNames[code]; ok {
		return name
	}
	return code
}
