package yahoo

import "strings"

// crypto pair suffixes, checked before exchange suffixes
var pairSuffixes = map[string]string{
	"-EUR": "EUR",
	"-USD": "USD",
	"-TRY": "TRY",
	"-GBP": "GBP",
	"-CAD": "CAD",
	"-AUD": "AUD",
	"-JPY": "JPY",
	"-CHF": "CHF",
}

var exchangeSuffixes = map[string]string{
	".AS": "EUR", ".DE": "EUR", ".PA": "EUR", ".MI": "EUR", ".MC": "EUR",
	".BR": "EUR", ".VI": "EUR", ".IR": "EUR", ".LS": "EUR", ".F": "EUR",
	".L":  "GBP",
	".TO": "CAD", ".V": "CAD", ".NE": "CAD",
	".AX": "AUD",
	".HK": "HKD",
	".T":  "JPY",
	".SI": "SGD",
	".SW": "CHF",
	".JO": "ZAR",
	".IS": "TRY",
}

// DetectCurrency derives the trading currency from a ticker's suffix.
// Returns "" when the symbol carries no currency hint.
func DetectCurrency(symbol string) string {
	if symbol == "" {
		return ""
	}
	s := strings.ToUpper(symbol)

	for suffix, cur := range pairSuffixes {
		if strings.HasSuffix(s, suffix) {
			return cur
		}
	}
	for suffix, cur := range exchangeSuffixes {
		if strings.HasSuffix(s, suffix) {
			return cur
		}
	}

	// GAUTRY, XAGTRY and friends trade in lira.
	if strings.HasSuffix(s, "TRY") {
		return "TRY"
	}

	// Dotless tickers that are not pairs default to USD.
	if !strings.Contains(s, ".") {
		return "USD"
	}
	return ""
}
