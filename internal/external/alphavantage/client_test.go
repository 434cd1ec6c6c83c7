package alphavantage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGlobalQuote(t *testing.T) {
	body := []byte(`{
		"Global Quote": {
			"01. symbol": "IBM",
			"05. price": "186.4100",
			"08. previous close": "185.7900"
		}
	}`)

	quote, err := parseGlobalQuote(body, "IBM")
	require.NoError(t, err)
	require.NotNil(t, quote)
	assert.Equal(t, "IBM", quote.Symbol)
	assert.InDelta(t, 186.41, quote.Price, 0.001)
	assert.InDelta(t, 185.79, quote.PreviousClose, 0.001)
}

func TestParseGlobalQuoteEmpty(t *testing.T) {
	// Rate-limited responses come back as a note object with no quote.
	quote, err := parseGlobalQuote([]byte(`{"Note": "please slow down"}`), "IBM")
	require.NoError(t, err)
	assert.Nil(t, quote)
}
