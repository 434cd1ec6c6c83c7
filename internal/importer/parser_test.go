package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkaya/folio/internal/contracts"
)

func TestParseEuropeanNumber(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"1.234,56", 1234.56},
		{"1234,56", 1234.56},
		// comma is always decimal, dot always thousands
		{"1,234.56", 1.23456},
		{"1234.56", 1234.56},
		{"-1.500,00", -1500},
		{`"150,00"`, 150},
		{"€ 42,10", 42.1},
		{"", 0},
		{"n/a", 0},
	}
	for _, tt := range tests {
		if got := parseEuropeanNumber(tt.input); got != tt.want {
			t.Errorf("parseEuropeanNumber(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	d := parseDate("30-12-2022")
	assert.Equal(t, time.Date(2022, 12, 30, 0, 0, 0, 0, time.UTC), d)

	d = parseDate("2022-12-30")
	assert.Equal(t, time.Date(2022, 12, 30, 0, 0, 0, 0, time.UTC), d)

	d = parseDate("30.12.2022")
	assert.Equal(t, time.Date(2022, 12, 30, 0, 0, 0, 0, time.UTC), d)
}

func TestNormalizeKeyTurkishFolding(t *testing.T) {
	assert.Equal(t, "parabirimi", normalizeKey("Para Birimi"))
	assert.Equal(t, "sirket", normalizeKey("Şirket"))
	assert.Equal(t, "isim", normalizeKey("İsim"))
	assert.Equal(t, "doviz", normalizeKey("Döviz"))
}

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		raw, symbol string
		want        string
	}{
		{"USD", "", "USD"},
		{"TL", "", "TRY"},
		{"₺", "", "TRY"},
		{"€", "", "EUR"},
		{"$", "", "USD"},
		{"", "THYAO.IS", "TRY"},
		{"", "AAPL", ""},
	}
	for _, tt := range tests {
		if got := normalizeCurrency(tt.raw, tt.symbol); got != tt.want {
			t.Errorf("normalizeCurrency(%q, %q) = %q, want %q", tt.raw, tt.symbol, got, tt.want)
		}
	}
}

func TestParseCSVGenericTurkishHeaders(t *testing.T) {
	content := "Sembol,Adet,Maliyet,Para Birimi,İsim\n" +
		"THYAO,100,\"1.234,56\",TL,Türk Hava Yolları\n" +
		"GARAN,50,\"45,20\",TL,Garanti Bankası\n"

	result, err := ParseCSV(content, "midas")
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "generic", result.Format)
	require.Len(t, result.Rows, 2)

	row := result.Rows[0]
	assert.Equal(t, "THYAO", row.Symbol)
	assert.Equal(t, 100.0, row.Quantity)
	assert.Equal(t, 1234.56, row.BuyPrice)
	assert.Equal(t, "TRY", row.Currency)
	assert.Equal(t, "Türk Hava Yolları", row.Name)
	assert.Equal(t, "midas", row.Platform)
	assert.Equal(t, 100, row.Confidence)
}

func TestParseCSVStripsByteOrderMark(t *testing.T) {
	// Excel exports prefix the first header with a UTF-8 BOM
	content := "\ufeffSymbol,Quantity,Price,Currency\n" +
		"AAPL,10,150.5,USD\n"

	result, err := ParseCSV(content, "")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	assert.Equal(t, "AAPL", result.Rows[0].Symbol)
	assert.Contains(t, result.DetectedColumns, "symbol")
}

func TestParseCSVGenericISINTakesOverSymbol(t *testing.T) {
	content := "Symbol,ISIN,Quantity,Price,Currency,Name\n" +
		"AAPL,US0378331005,10,150.5,USD,Apple Inc\n"

	result, err := ParseCSV(content, "")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	assert.Equal(t, "US0378331005", row.Symbol)
	assert.Equal(t, "US0378331005", row.ISIN)
	assert.Equal(t, 80, row.Confidence)
}

func TestParseCSVGenericSkipsEmptySymbol(t *testing.T) {
	content := "Symbol,Quantity,Price\n" +
		",10,5\n" +
		"AAPL,10,150\n"

	result, err := ParseCSV(content, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.SkippedRows)
	require.Len(t, result.Rows, 1)
}

func TestParseCSVSemicolonDelimiter(t *testing.T) {
	content := "Symbol;Quantity;Price;Currency\n" +
		"ASML;5;620,40;EUR\n"

	result, err := ParseCSV(content, "")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, 620.4, result.Rows[0].BuyPrice)
	assert.Equal(t, "EUR", result.Rows[0].Currency)
}

const degiroFixture = "Date,Product,ISIN,Reference Exchange,Venue,Quantity,Price,Currency,Local value,Order ID\n" +
	"15-03-2023,APPLE INC,US0378331005,NDQ,XNAS,10,\"150,00\",USD,\"-1.500,00\",ord1234567\n" +
	"15-03-2023,APPLE INC,US0378331005,NDQ,XNAS,5,\"151,00\",USD,\"-755,00\",ord1234567\n" +
	"20-03-2023,APPLE INC,US0378331005,NDQ,XNAS,-5,\"160,00\",USD,\"800,00\",ord7654321\n" +
	"01-04-2023,SOME CERTIFICATE,XS1234567890,EPA,XPAR,10000,\"98,50\",EUR,\"-9.850,00\",ord9999999\n"

func TestParseCSVDeGiroDetection(t *testing.T) {
	result, err := ParseCSV(degiroFixture, "")
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "degiro", result.Format)
}

func TestParseCSVDeGiroAggregation(t *testing.T) {
	result, err := ParseCSV(degiroFixture, "")
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)

	apple := result.Rows[0]
	assert.Equal(t, "US0378331005", apple.Symbol)
	assert.Equal(t, "APPLE INC", apple.Name)
	// 10 + 5 bought, 5 sold
	assert.InDelta(t, 10.0, apple.Quantity, 1e-9)
	// (10*150 + 5*151) / 15
	assert.InDelta(t, 150.33333, apple.BuyPrice, 1e-4)
	assert.Equal(t, "USD", apple.Currency)
	assert.Equal(t, "DeGiro", apple.Platform)
	assert.Equal(t, "NDQ", apple.Exchange)
	assert.NotEmpty(t, apple.Warnings) // sold units noted

	bond := result.Rows[1]
	// XS-prefixed ISINs are reported in nominal value
	assert.InDelta(t, 100.0, bond.Quantity, 1e-9)
}

func TestParseCSVDeGiroTransactions(t *testing.T) {
	result, err := ParseCSV(degiroFixture, "")
	require.NoError(t, err)
	require.Len(t, result.Transactions, 4)

	// sorted oldest first
	first := result.Transactions[0]
	assert.Equal(t, contracts.TxBuy, first.Type)
	assert.Equal(t, "ord1234567", first.ExternalID)

	// partial fill on the same order id gets a unique suffix
	second := result.Transactions[1]
	assert.Equal(t, "ord1234567-1", second.ExternalID)

	// positive local value means money in: a sell
	third := result.Transactions[2]
	assert.Equal(t, contracts.TxSell, third.Type)
}
