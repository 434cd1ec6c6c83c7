package yahoo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tkaya/folio/internal/contracts"
)

type profileResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Country  string `json:"country"`
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// Profile fetches country/sector/industry metadata for a ticker.
// Returns nil when Yahoo has no profile for the symbol.
func (c *Client) Profile(ctx context.Context, symbol string) (*contracts.CompanyProfile, error) {
	body, err := c.fetchJSON(ctx, c.profileURL(symbol))
	if err != nil {
		return nil, err
	}
	return parseProfileResponse(body)
}

func parseProfileResponse(body []byte) (*contracts.CompanyProfile, error) {
	var resp profileResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode profile response: %w", err)
	}

	if len(resp.QuoteSummary.Result) == 0 {
		return nil, nil
	}

	p := resp.QuoteSummary.Result[0].AssetProfile
	if p.Country == "" && p.Sector == "" {
		return nil, nil
	}

	return &contracts.CompanyProfile{
		Country:  p.Country,
		Sector:   p.Sector,
		Industry: p.Industry,
	}, nil
}
