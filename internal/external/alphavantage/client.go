package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tkaya/folio/internal/contracts"
	"github.com/tkaya/folio/pkg/httputil"
	"github.com/tkaya/folio/pkg/logger"
)

// Client handles communication with the Alpha Vantage GLOBAL_QUOTE
// endpoint, used as the first quote fallback when Yahoo fails. With no
// API key configured every call is a no-op returning nil.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// NewClient creates a new Alpha Vantage client.
func NewClient(httpClient *httputil.Client, apiKey string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    "https://www.alphavantage.co",
		apiKey:     apiKey,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		Price         string `json:"05. price"`
		PreviousClose string `json:"08. previous close"`
	} `json:"Global Quote"`
}

// Quote fetches the latest price via GLOBAL_QUOTE. Alpha Vantage does
// not report a currency; the caller decides it from the symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*contracts.Quote, error) {
	if !c.Enabled() {
		return nil, nil
	}

	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)
	fullURL := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())

	resp, body, err := c.httpClient.Get(ctx, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return parseGlobalQuote(body, symbol)
}

func parseGlobalQuote(body []byte, symbol string) (*contracts.Quote, error) {
	var resp globalQuoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode global quote: %w", err)
	}

	if resp.GlobalQuote.Price == "" {
		return nil, nil
	}

	price, err := strconv.ParseFloat(resp.GlobalQuote.Price, 64)
	if err != nil || price <= 0 {
		return nil, nil
	}
	prevClose, _ := strconv.ParseFloat(resp.GlobalQuote.PreviousClose, 64)

	return &contracts.Quote{
		Symbol:        symbol,
		Price:         price,
		PreviousClose: prevClose,
	}, nil
}
