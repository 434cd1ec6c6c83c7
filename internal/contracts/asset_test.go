package contracts

import "testing"

func TestParseAssetType(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  AssetType
	}{
		{"crypto keyword", "Cryptocurrency", TypeCrypto},
		{"tefas code", "FON", TypeTefas},
		{"etf maps to fund", "ETF", TypeFund},
		{"turkish bond", "TAHVIL", TypeBond},
		{"gold maps to commodity", "GOLD", TypeCommodity},
		{"turkish cash", "nakit", TypeCash},
		{"fx pair", "FX", TypeCurrency},
		{"unknown defaults to stock", "whatever", TypeStock},
		{"empty defaults to stock", "", TypeStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseAssetType(tt.input); got != tt.want {
				t.Errorf("ParseAssetType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestQuoteDisplayName(t *testing.T) {
	q := &Quote{ShortName: "Apple", LongName: "Apple Inc."}
	if got := q.DisplayName(); got != "Apple" {
		t.Errorf("DisplayName() = %q, want short name", got)
	}

	q = &Quote{LongName: "Apple Inc."}
	if got := q.DisplayName(); got != "Apple Inc." {
		t.Errorf("DisplayName() = %q, want long name fallback", got)
	}
}
