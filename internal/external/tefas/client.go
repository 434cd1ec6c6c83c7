package tefas

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tkaya/folio/internal/contracts"
	"github.com/tkaya/folio/pkg/httputil"
	"github.com/tkaya/folio/pkg/logger"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client scrapes fund data from the TEFAS fund analysis page. TEFAS
// has no public JSON API; the FonAnaliz page is the registry of record
// for Turkish mutual funds.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new TEFAS client.
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://www.tefas.gov.tr"
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
	}
}

var fundCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// FundInfo fetches title and latest price for a three-letter fund
// code. Returns nil for codes TEFAS does not know.
func (c *Client) FundInfo(ctx context.Context, code string) (*contracts.FundInfo, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !fundCodeRe.MatchString(code) {
		return nil, nil
	}

	fullURL := fmt.Sprintf("%s/FonAnaliz.aspx?FonKod=%s", c.baseURL, code)
	resp, body, err := c.httpClient.Get(ctx, fullURL, map[string]string{
		"User-Agent": userAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	fund, err := parseFundPage(body, code)
	if err != nil {
		return nil, err
	}
	if fund == nil {
		c.logger.WithField("code", code).Debug("tefas fund not found")
	}
	return fund, nil
}

// parseFundPage extracts the fund title and latest price from the
// FonAnaliz HTML.
func parseFundPage(html []byte, code string) (*contracts.FundInfo, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse fund page: %w", err)
	}

	title := strings.TrimSpace(doc.Find("span#MainContent_LabelFonAdi").Text())
	if title == "" {
		return nil, nil
	}

	priceText := strings.TrimSpace(doc.Find("span#MainContent_LabelSonFiyat").Text())
	price := parseTurkishNumber(priceText)
	if price <= 0 {
		return nil, nil
	}

	return &contracts.FundInfo{
		Code:  code,
		Title: title,
		Price: price,
	}, nil
}

// parseTurkishNumber parses "37,076155" or "1.234,56" (comma decimal,
// dot thousands).
func parseTurkishNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
