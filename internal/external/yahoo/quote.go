package yahoo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tkaya/folio/internal/contracts"
)

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				ExchangeName       string  `json:"exchangeName"`
				InstrumentType     string  `json:"instrumentType"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				ShortName          string  `json:"shortName"`
				LongName           string  `json:"longName"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote fetches a live quote via the chart endpoint. Returns nil for
// unknown tickers. A currency implied by the symbol suffix overrides
// the one Yahoo reports.
func (c *Client) Quote(ctx context.Context, symbol string) (*contracts.Quote, error) {
	body, err := c.fetchJSON(ctx, c.chartURL(symbol))
	if err != nil {
		return nil, err
	}

	quote, err := parseChartResponse(body)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		c.logger.WithField("symbol", symbol).Debug("yahoo chart returned no data")
		return nil, nil
	}

	if forced := DetectCurrency(quote.Symbol); forced != "" {
		quote.Currency = forced
	}
	return quote, nil
}

func parseChartResponse(body []byte) (*contracts.Quote, error) {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode chart response: %w", err)
	}

	if resp.Chart.Error != nil {
		// "Not Found" for unknown tickers is a miss, not a failure.
		return nil, nil
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}

	meta := resp.Chart.Result[0].Meta
	if meta.Symbol == "" || meta.RegularMarketPrice == 0 {
		return nil, nil
	}

	return &contracts.Quote{
		Symbol:        meta.Symbol,
		Currency:      meta.Currency,
		Price:         meta.RegularMarketPrice,
		PreviousClose: meta.ChartPreviousClose,
		Exchange:      meta.ExchangeName,
		ShortName:     meta.ShortName,
		LongName:      meta.LongName,
		QuoteType:     meta.InstrumentType,
	}, nil
}
