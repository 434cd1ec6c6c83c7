package yahoo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSearchResponse(t *testing.T) {
	body := []byte(`{
		"quotes": [
			{"symbol": "BTC-EUR", "shortname": "Bitcoin EUR", "exchange": "CCC", "quoteType": "CRYPTOCURRENCY"},
			{"symbol": "AAPL", "shortname": "Apple Inc.", "longname": "Apple Inc.", "exchange": "NMS", "quoteType": "EQUITY"},
			{"symbol": "", "shortname": "broken row"}
		]
	}`)

	results, err := parseSearchResponse(body)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "BTC-EUR", results[0].Symbol)
	assert.Equal(t, "Bitcoin EUR", results[0].ShortName)
	assert.Equal(t, "Bitcoin EUR", results[0].LongName) // backfilled from shortname
	assert.Equal(t, "CRYPTOCURRENCY", results[0].QuoteType)
	assert.Equal(t, "AAPL", results[1].Symbol)
}

func TestParseSearchResponseEmpty(t *testing.T) {
	results, err := parseSearchResponse([]byte(`{"quotes": []}`))
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = parseSearchResponse([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseChartResponse(t *testing.T) {
	body := []byte(`{
		"chart": {
			"result": [{
				"meta": {
					"symbol": "ETH-EUR",
					"currency": "EUR",
					"exchangeName": "CCC",
					"instrumentType": "CRYPTOCURRENCY",
					"regularMarketPrice": 2841.17,
					"chartPreviousClose": 2810.02
				}
			}],
			"error": null
		}
	}`)

	quote, err := parseChartResponse(body)
	require.NoError(t, err)
	require.NotNil(t, quote)

	assert.Equal(t, "ETH-EUR", quote.Symbol)
	assert.Equal(t, "EUR", quote.Currency)
	assert.InDelta(t, 2841.17, quote.Price, 0.001)
	assert.InDelta(t, 2810.02, quote.PreviousClose, 0.001)
	assert.Equal(t, "CRYPTOCURRENCY", quote.QuoteType)
}

func TestParseChartResponseNotFound(t *testing.T) {
	body := []byte(`{
		"chart": {
			"result": null,
			"error": {"code": "Not Found", "description": "No data found"}
		}
	}`)

	quote, err := parseChartResponse(body)
	require.NoError(t, err)
	assert.Nil(t, quote)
}

func TestParseProfileResponse(t *testing.T) {
	body := []byte(`{
		"quoteSummary": {
			"result": [{
				"assetProfile": {
					"country": "Netherlands",
					"sector": "Technology",
					"industry": "Semiconductor Equipment & Materials"
				}
			}]
		}
	}`)

	profile, err := parseProfileResponse(body)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Netherlands", profile.Country)
	assert.Equal(t, "Technology", profile.Sector)
}

func TestDetectCurrency(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"BTC-EUR", "EUR"},
		{"ETH-USD", "USD"},
		{"THYAO.IS", "TRY"},
		{"ASML.AS", "EUR"},
		{"DGE.L", "GBP"},
		{"NESN.SW", "CHF"},
		{"GAUTRY", "TRY"},
		{"AAPL", "USD"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectCurrency(tt.symbol))
		})
	}
}

func TestQueryVariations(t *testing.T) {
	got := queryVariations("BTC EUR")
	assert.Equal(t, []string{"BTC EUR", "BTC-EUR", "BTCEUR"}, got)

	got = queryVariations("BTC-EUR")
	assert.Equal(t, []string{"BTC-EUR", "BTC EUR"}, got)

	got = queryVariations("AAPL")
	assert.Equal(t, []string{"AAPL"}, got)
}
