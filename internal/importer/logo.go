package importer

import (
	"fmt"
	"strings"

	"github.com/tkaya/folio/internal/contracts"
)

// logoURL builds a deterministic logo location for the stored record.
// TEFAS funds get no URL: the UI letter placeholder beats a wrong
// corporate logo.
func logoURL(symbol string, assetType contracts.AssetType, exchange string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" || assetType == contracts.TypeTefas || strings.EqualFold(exchange, "TEFAS") {
		return ""
	}

	switch assetType {
	case contracts.TypeCrypto:
		base := strings.ToLower(strings.SplitN(s, "-", 2)[0])
		return fmt.Sprintf("https://assets.coincap.io/assets/icons/%s@2x.png", base)
	case contracts.TypeCash, contracts.TypeCurrency:
		return ""
	}

	ticker := strings.SplitN(s, ".", 2)[0]
	if strings.HasSuffix(s, ".IS") {
		return fmt.Sprintf("https://cdn.jsdelivr.net/gh/ahmeterenodaci/Istanbul-Stock-Exchange--BIST--including-symbols-and-logos/logos/%s.png", ticker)
	}

	return fmt.Sprintf("https://assets.parqet.com/logos/symbol/%s?format=png", s)
}
