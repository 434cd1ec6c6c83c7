package resolver

import (
	"testing"

	"github.com/tkaya/folio/internal/contracts"
)

func TestClassifyCategory(t *testing.T) {
	tests := []struct {
		name     string
		typ      contracts.AssetType
		exchange string
		symbol   string
		want     contracts.AssetCategory
	}{
		{"tefas type", contracts.TypeTefas, "", "YAC", contracts.CategoryTefas},
		{"tefas exchange wins over type", contracts.TypeFund, "TEFAS", "TGE", contracts.CategoryTefas},
		{"cash", contracts.TypeCash, "", "EUR", contracts.CategoryCash},
		{"fx by symbol", contracts.TypeStock, "", "EURUSD=X", contracts.CategoryFX},
		{"crypto", contracts.TypeCrypto, "CCC", "BTC-EUR", contracts.CategoryCrypto},
		{"commodity type", contracts.TypeCommodity, "", "GC=F", contracts.CategoryCommodities},
		{"gram gold account", contracts.TypeStock, "", "GAUTRY", contracts.CategoryCommodities},
		{"bist exchange", contracts.TypeStock, "Istanbul", "THYAO.IS", contracts.CategoryBIST},
		{"eu exchange", contracts.TypeStock, "AMS", "ASML.AS", contracts.CategoryEUMarkets},
		{"us default", contracts.TypeStock, "NMS", "AAPL", contracts.CategoryUSMarkets},
		{"unknown exchange defaults us", contracts.TypeStock, "", "AAPL", contracts.CategoryUSMarkets},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyCategory(tt.typ, tt.exchange, tt.symbol); got != tt.want {
				t.Errorf("ClassifyCategory(%v, %q, %q) = %v, want %v", tt.typ, tt.exchange, tt.symbol, got, tt.want)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	tests := []struct {
		name     string
		category contracts.AssetCategory
		symbol   string
		want     contracts.CategoryDefaults
	}{
		{"bist", contracts.CategoryBIST, "THYAO.IS", contracts.CategoryDefaults{Sector: "Unknown", Country: "Turkey", Currency: "TRY"}},
		{"crypto pair currency", contracts.CategoryCrypto, "BTC-EUR", contracts.CategoryDefaults{Sector: "Crypto", Country: "Global", Currency: "EUR"}},
		{"crypto bare symbol", contracts.CategoryCrypto, "BTC", contracts.CategoryDefaults{Sector: "Crypto", Country: "Global", Currency: "USD"}},
		{"gram gold in lira", contracts.CategoryCommodities, "GAUTRY", contracts.CategoryDefaults{Sector: "Commodity", Country: "Global", Currency: "TRY"}},
		{"cash euro", contracts.CategoryCash, "EUR", contracts.CategoryDefaults{Sector: "Cash", Country: "Europe", Currency: "EUR"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Defaults(tt.category, tt.symbol); got != tt.want {
				t.Errorf("Defaults(%v, %q) = %+v, want %+v", tt.category, tt.symbol, got, tt.want)
			}
		})
	}
}

func TestCountryFromExchange(t *testing.T) {
	tests := []struct {
		exchange string
		symbol   string
		want     string
	}{
		{"AMS", "ASML.AS", "Netherlands"},
		{"", "ASML.AS", "Netherlands"},
		{"NYQ", "AAPL", "United States"},
		{"", "7203.T", "Japan"},
		{"", "AAPL", ""},
	}
	for _, tt := range tests {
		if got := CountryFromExchange(tt.exchange, tt.symbol); got != tt.want {
			t.Errorf("CountryFromExchange(%q, %q) = %q, want %q", tt.exchange, tt.symbol, got, tt.want)
		}
	}
}

func TestManualProfile(t *testing.T) {
	if p, ok := manualProfile("thyao"); !ok || p.Country != "Turkey" {
		t.Errorf("bare BIST symbol must resolve via .IS retry, got %+v, %v", p, ok)
	}
	if _, ok := manualProfile("AAPL"); ok {
		t.Error("AAPL must not have a manual profile")
	}
}
