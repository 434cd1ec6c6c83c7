package resolver

import (
	"testing"

	"github.com/tkaya/folio/internal/contracts"
)

func TestBaseSymbol(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"BTC", "BTC"},
		{"btc-eur", "BTC"},
		{"ETH-USD", "ETH"},
		{" sol ", "SOL"},
		{"-USD", "-USD"}, // no base before the dash
	}
	for _, tt := range tests {
		if got := BaseSymbol(tt.input); got != tt.want {
			t.Errorf("BaseSymbol(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBuildCryptoTicker(t *testing.T) {
	tests := []struct {
		name     string
		symbol   string
		currency string
		want     string
	}{
		{"bare symbol", "BTC", "EUR", "BTC-EUR"},
		{"currency replaces existing suffix", "ETH-USD", "EUR", "ETH-EUR"},
		{"lowercase currency", "SOL", "try", "SOL-TRY"},
		{"empty currency defaults to USD", "ADA", "", "ADA-USD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildCryptoTicker(tt.symbol, tt.currency); got != tt.want {
				t.Errorf("BuildCryptoTicker(%q, %q) = %q, want %q", tt.symbol, tt.currency, got, tt.want)
			}
		})
	}
}

func TestCanonicalName(t *testing.T) {
	if name, ok := CanonicalName("BTC-EUR"); !ok || name != "Bitcoin" {
		t.Errorf("CanonicalName(BTC-EUR) = %q, %v", name, ok)
	}
	if _, ok := CanonicalName("AAPL"); ok {
		t.Error("AAPL must not be canonical")
	}
}

func TestIsCryptoRow(t *testing.T) {
	tests := []struct {
		name string
		row  contracts.ImportRow
		want bool
	}{
		{"explicit type", contracts.ImportRow{Symbol: "WEIRD", Type: "crypto"}, true},
		{"canonical base", contracts.ImportRow{Symbol: "DOGE"}, true},
		{"pair suffix", contracts.ImportRow{Symbol: "PEPE-USD"}, true},
		{"name keyword", contracts.ImportRow{Symbol: "VB1C", Name: "CoinShares Physical Bitcoin"}, true},
		{"pseudo isin prefix", contracts.ImportRow{Symbol: "ZZZ", ISIN: "XF000BTC0017"}, true},
		{"regular isin not crypto", contracts.ImportRow{Symbol: "XAU", Name: "Gold Physical", ISIN: "XC0009655157"}, false},
		{"plain equity", contracts.ImportRow{Symbol: "AAPL", Name: "Apple Inc"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCryptoRow(tt.row); got != tt.want {
				t.Errorf("IsCryptoRow(%+v) = %v, want %v", tt.row, got, tt.want)
			}
		})
	}
}
