package contracts

import "strings"

// AssetType is the coarse instrument classification carried on every
// resolved row and stored instrument.
type AssetType string

const (
	TypeStock     AssetType = "STOCK"
	TypeCrypto    AssetType = "CRYPTO"
	TypeFund      AssetType = "FUND"
	TypeBond      AssetType = "BOND"
	TypeCommodity AssetType = "COMMODITY"
	TypeCash      AssetType = "CASH"
	TypeCurrency  AssetType = "CURRENCY"
	TypeTefas     AssetType = "TEFAS"
)

// ParseAssetType maps free-form type strings from CSVs and provider
// responses onto the closed set. Unknown inputs default to STOCK.
func ParseAssetType(s string) AssetType {
	switch t := strings.ToUpper(strings.TrimSpace(s)); {
	case strings.Contains(t, "CRYPTO"):
		return TypeCrypto
	case t == "TEFAS" || t == "FON":
		return TypeTefas
	case strings.Contains(t, "FUND") || strings.Contains(t, "ETF"):
		return TypeFund
	case strings.Contains(t, "BOND") || strings.Contains(t, "TAHVIL") || strings.Contains(t, "CERTIF"):
		return TypeBond
	case strings.Contains(t, "GOLD") || strings.Contains(t, "ALTIN") || strings.Contains(t, "COMMODITY"):
		return TypeCommodity
	case strings.Contains(t, "CASH") || strings.Contains(t, "NAKIT"):
		return TypeCash
	case strings.Contains(t, "CURRENCY") || t == "FX":
		return TypeCurrency
	default:
		return TypeStock
	}
}

// AssetCategory is the market bucket used for enrichment defaults.
// Every instrument belongs to exactly one category.
type AssetCategory string

const (
	CategoryBIST        AssetCategory = "BIST"
	CategoryTefas       AssetCategory = "TEFAS"
	CategoryUSMarkets   AssetCategory = "US_MARKETS"
	CategoryEUMarkets   AssetCategory = "EU_MARKETS"
	CategoryCrypto      AssetCategory = "CRYPTO"
	CategoryCommodities AssetCategory = "COMMODITIES"
	CategoryFX          AssetCategory = "FX"
	CategoryCash        AssetCategory = "CASH"
)

// CategoryDefaults holds the metadata applied when the resolver left a
// field empty.
type CategoryDefaults struct {
	Sector   string
	Country  string
	Currency string
}
