package resolver

import "strings"

// stopwords are tokens that carry no product identity: legal-entity
// suffixes, asset-type words, currency codes, share classes, and
// generic corporate filler. Descriptive words that distinguish
// products ("Physical", "Futures") are deliberately not filtered.
var stopwords = map[string]bool{
	// legal entity suffixes
	"INC": true, "CORP": true, "CORPORATION": true, "LTD": true,
	"LIMITED": true, "PLC": true, "AG": true, "NV": true, "SA": true,
	"SE": true, "SPA": true, "GMBH": true, "ASA": true, "AB": true,
	"OY": true, "OYJ": true, "ABP": true,
	// generic corporate words
	"HOLDING": true, "HOLDINGS": true, "GROUP": true, "COMPANY": true,
	"CO": true, "THE": true, "AND": true, "VE": true, "GLOBAL": true,
	"INTERNATIONAL": true,
	// asset-type words
	"ETF": true, "ETC": true, "ETN": true, "FUND": true, "TRUST": true,
	"INDEX": true, "UCITS": true, "ACC": true, "DIST": true,
	// share-class words
	"SHARES": true, "SHS": true, "CLASS": true, "ORD": true,
	"ORDINARY": true, "ADR": true, "ADS": true, "COM": true,
	"COMMON": true, "REIT": true,
	// currency codes
	"USD": true, "EUR": true, "TRY": true, "GBP": true, "CHF": true,
	"CAD": true, "AUD": true, "JPY": true,
}

// tokenize uppercases, replaces non-alphanumeric runs with spaces, and
// drops single-character tokens and stopwords.
func tokenize(name string) map[string]bool {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(b.String()) {
		if len(tok) <= 1 || stopwords[tok] {
			continue
		}
		tokens[tok] = true
	}
	return tokens
}

// Similarity scores two free-text names in [0,1] using the Jaccard
// index over filtered token sets. Deterministic and symmetric; zero
// when either name tokenizes to nothing.
func Similarity(a, b string) float64 {
	ta := tokenize(a)
	tb := tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	intersection := 0
	for tok := range ta {
		if tb[tok] {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection

	return float64(intersection) / float64(union)
}
