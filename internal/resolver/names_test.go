package resolver

import "testing"

func TestCleanAssetName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"inc suffix", "Apple Inc.", "Apple"},
		{"nv and holding stripped", "ASML Holding N.V.", "ASML"},
		{"plc with nominal value", "DIAGEO PLC ORD 28 101/108P", "DIAGEO"},
		{"ordinary shares", "Barclays PLC Ordinary Shares", "Barclays"},
		{"class marker", "Alphabet Inc. Class A", "Alphabet"},
		{"adr", "Taiwan Semiconductor ADR", "Taiwan Semiconductor"},
		{"turkish legal chain", "Aselsan Elektronik Sanayi ve Ticaret A.Ş.", "Aselsan Elektronik"},
		{"currency tail", "Bitcoin EUR", "Bitcoin"},
		{"chained suffixes", "Vestas Wind Systems A/S EUR", "Vestas Wind Systems"},
		{"trailing ampersand", "Procter & Gamble Co.", "Procter & Gamble"},
		{"nothing to strip", "Vestas Wind Systems", "Vestas Wind Systems"},
		{"whitespace trimmed", "  Novo Nordisk A/S  ", "Novo Nordisk"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanAssetName(tt.input); got != tt.want {
				t.Errorf("CleanAssetName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
