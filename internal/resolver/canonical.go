package resolver

import (
	"strings"

	"github.com/tkaya/folio/internal/contracts"
)

// canonicalNames maps high-value crypto base symbols to their
// authoritative display names. Instruments in this table never depend
// on third-party naming.
var canonicalNames = map[string]string{
	"BTC":   "Bitcoin",
	"ETH":   "Ethereum",
	"SOL":   "Solana",
	"XRP":   "XRP",
	"ADA":   "Cardano",
	"DOGE":  "Dogecoin",
	"DOT":   "Polkadot",
	"AVAX":  "Avalanche",
	"LINK":  "Chainlink",
	"LTC":   "Litecoin",
	"XLM":   "Stellar",
	"MATIC": "Polygon",
	"BNB":   "BNB",
	"TRX":   "TRON",
	"ATOM":  "Cosmos",
	"UNI":   "Uniswap",
}

// cryptoKeywords in a product name mark the row as crypto even when
// the symbol is opaque (ETN product names, ISIN-keyed rows).
var cryptoKeywords = []string{
	"BITCOIN", "ETHEREUM", "RIPPLE", "SOLANA", "CARDANO", "DOGECOIN",
	"POLKADOT", "LITECOIN", "CRYPTO", "COINSHARES", "21SHARES",
}

var currencySuffixes = []string{"-USD", "-EUR", "-TRY", "-GBP", "-CHF", "-CAD", "-AUD", "-JPY"}

// CanonicalName returns the registry name for a symbol's base, if any.
func CanonicalName(symbol string) (string, bool) {
	name, ok := canonicalNames[BaseSymbol(symbol)]
	return name, ok
}

// BaseSymbol strips an existing currency-pair suffix: "ETH-USD" -> "ETH".
func BaseSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if i := strings.Index(s, "-"); i > 0 {
		return s[:i]
	}
	return s
}

// BuildCryptoTicker constructs the pair ticker for a base symbol and
// target currency. Any suffix already on the symbol is replaced; the
// row's currency always wins.
func BuildCryptoTicker(symbol, currency string) string {
	cur := strings.ToUpper(strings.TrimSpace(currency))
	if cur == "" {
		cur = "USD"
	}
	return BaseSymbol(symbol) + "-" + cur
}

// IsCryptoRow reports whether the crypto-discovery tier should handle
// this row: explicit type, canonical base symbol, pair-suffixed
// symbol, crypto keyword in the name, or the XF pseudo-ISIN prefix
// some platforms assign to off-exchange crypto holdings.
func IsCryptoRow(row contracts.ImportRow) bool {
	if contracts.ParseAssetType(row.Type) == contracts.TypeCrypto {
		return true
	}

	sym := strings.ToUpper(strings.TrimSpace(row.Symbol))
	if _, ok := canonicalNames[BaseSymbol(sym)]; ok {
		return true
	}
	for _, suffix := range currencySuffixes {
		if strings.HasSuffix(sym, suffix) {
			return true
		}
	}

	upperName := strings.ToUpper(row.Name)
	for _, kw := range cryptoKeywords {
		if strings.Contains(upperName, kw) {
			return true
		}
	}

	return strings.HasPrefix(strings.ToUpper(row.ISIN), "XF")
}
