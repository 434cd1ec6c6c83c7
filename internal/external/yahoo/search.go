package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tkaya/folio/internal/contracts"
)

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		Exchange  string `json:"exchange"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}

// Search queries the Yahoo search endpoint, trying spacing variations
// of the query until one returns results ("BTC EUR" also matches as
// "BTC-EUR" and "BTCEUR").
func (c *Client) Search(ctx context.Context, query string) ([]contracts.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	var lastErr error
	for _, q := range queryVariations(query) {
		results, err := c.searchOnce(ctx, q)
		if err != nil {
			lastErr = err
			continue
		}
		if len(results) > 0 {
			return results, nil
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

func (c *Client) searchOnce(ctx context.Context, query string) ([]contracts.SearchResult, error) {
	body, err := c.fetchJSON(ctx, c.searchURL(query))
	if err != nil {
		return nil, err
	}
	return parseSearchResponse(body)
}

func parseSearchResponse(body []byte) ([]contracts.SearchResult, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]contracts.SearchResult, 0, len(resp.Quotes))
	for _, q := range resp.Quotes {
		if q.Symbol == "" {
			continue
		}
		short := q.ShortName
		long := q.LongName
		if short == "" {
			short = long
		}
		if long == "" {
			long = short
		}
		results = append(results, contracts.SearchResult{
			Symbol:    q.Symbol,
			ShortName: short,
			LongName:  long,
			Exchange:  q.Exchange,
			QuoteType: q.QuoteType,
		})
	}
	return results, nil
}

// queryVariations generates spacing/dash variants of a query, original
// first, duplicates removed.
func queryVariations(query string) []string {
	candidates := []string{
		query,
		strings.ReplaceAll(query, " ", "-"),
		strings.ReplaceAll(query, " ", ""),
		strings.ReplaceAll(query, "-", " "),
	}

	seen := make(map[string]bool, len(candidates))
	var out []string
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
