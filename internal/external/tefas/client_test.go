package tefas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fundPageHTML = `
<html><body>
<span id="MainContent_LabelFonAdi">TACİRLER PORTFÖY DEĞİŞKEN FON</span>
<ul class="top-list">
	<li><span>Son Fiyat (TL)</span><span id="MainContent_LabelSonFiyat">37,076155</span></li>
</ul>
</body></html>`

func TestParseFundPage(t *testing.T) {
	fund, err := parseFundPage([]byte(fundPageHTML), "TCD")
	require.NoError(t, err)
	require.NotNil(t, fund)

	assert.Equal(t, "TCD", fund.Code)
	assert.Equal(t, "TACİRLER PORTFÖY DEĞİŞKEN FON", fund.Title)
	assert.InDelta(t, 37.076155, fund.Price, 0.000001)
}

func TestParseFundPageUnknownFund(t *testing.T) {
	fund, err := parseFundPage([]byte(`<html><body>Fon bulunamadı</body></html>`), "ZZZ")
	require.NoError(t, err)
	assert.Nil(t, fund)
}

func TestParseTurkishNumber(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"37,076155", 37.076155},
		{"1.234,56", 1234.56},
		{"0,25", 0.25},
		{"", 0},
		{"abc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.InDelta(t, tt.want, parseTurkishNumber(tt.input), 0.000001)
		})
	}
}
