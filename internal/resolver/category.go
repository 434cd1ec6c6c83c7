package resolver

import (
	"context"
	"strings"

	"github.com/tkaya/folio/internal/contracts"
)

var bistExchanges = []string{"BIST", "IST", "ISTANBUL"}

var usExchanges = []string{"NASDAQ", "NYSE", "AMEX", "NYQ", "NMS", "NGM"}

var euExchanges = []string{
	"PAR", "PARIS", "AMS", "AMSTERDAM", "FRA", "FRANKFURT", "GER",
	"XETRA", "MIL", "MILAN", "LSE", "LON", "LONDON", "MAD", "MADRID",
	"LIS", "LISBON", "SWX", "SWISS", "VTX",
}

func exchangeIn(exchange string, set []string) bool {
	if exchange == "" {
		return false
	}
	upper := strings.ToUpper(exchange)
	for _, e := range set {
		if strings.Contains(upper, e) {
			return true
		}
	}
	return false
}

// ClassifyCategory buckets a resolved instrument into one of the eight
// market categories from type, exchange, and symbol.
func ClassifyCategory(assetType contracts.AssetType, exchange, symbol string) contracts.AssetCategory {
	upperSymbol := strings.ToUpper(symbol)

	if assetType == contracts.TypeTefas || strings.EqualFold(exchange, "TEFAS") {
		return contracts.CategoryTefas
	}
	if assetType == contracts.TypeCash {
		return contracts.CategoryCash
	}
	if assetType == contracts.TypeCurrency || strings.Contains(upperSymbol, "=X") {
		return contracts.CategoryFX
	}
	if assetType == contracts.TypeCrypto {
		return contracts.CategoryCrypto
	}
	if assetType == contracts.TypeCommodity {
		return contracts.CategoryCommodities
	}
	// Turkish gram gold/silver accounts
	if upperSymbol == "GAUTRY" || upperSymbol == "XAGTRY" || upperSymbol == "XAU" || upperSymbol == "XAG" {
		return contracts.CategoryCommodities
	}

	if exchangeIn(exchange, bistExchanges) {
		return contracts.CategoryBIST
	}
	if exchangeIn(exchange, euExchanges) {
		return contracts.CategoryEUMarkets
	}
	return contracts.CategoryUSMarkets
}

// Defaults returns the fallback metadata for a category. The symbol
// refines crypto pair currency and cash country.
func Defaults(category contracts.AssetCategory, symbol string) contracts.CategoryDefaults {
	switch category {
	case contracts.CategoryBIST:
		return contracts.CategoryDefaults{Sector: "Unknown", Country: "Turkey", Currency: "TRY"}
	case contracts.CategoryTefas:
		return contracts.CategoryDefaults{Sector: "Fund", Country: "Turkey", Currency: "TRY"}
	case contracts.CategoryUSMarkets:
		return contracts.CategoryDefaults{Sector: "Unknown", Country: "USA", Currency: "USD"}
	case contracts.CategoryEUMarkets:
		return contracts.CategoryDefaults{Sector: "Unknown", Country: "Europe", Currency: "EUR"}
	case contracts.CategoryCrypto:
		currency := "USD"
		if parts := strings.Split(symbol, "-"); len(parts) == 2 && parts[1] != "" {
			currency = strings.ToUpper(parts[1])
		}
		return contracts.CategoryDefaults{Sector: "Crypto", Country: "Global", Currency: currency}
	case contracts.CategoryCommodities:
		currency := "USD"
		switch strings.ToUpper(symbol) {
		case "GAUTRY", "XAGTRY":
			currency = "TRY"
		}
		return contracts.CategoryDefaults{Sector: "Commodity", Country: "Global", Currency: currency}
	case contracts.CategoryFX:
		return contracts.CategoryDefaults{Sector: "Currency", Country: "Global", Currency: "USD"}
	case contracts.CategoryCash:
		country := "Global"
		switch strings.ToUpper(symbol) {
		case "USD":
			country = "USA"
		case "EUR":
			country = "Europe"
		case "TRY":
			country = "Turkey"
		case "GBP":
			country = "United Kingdom"
		}
		currency := strings.ToUpper(symbol)
		if currency == "" {
			currency = "USD"
		}
		return contracts.CategoryDefaults{Sector: "Cash", Country: country, Currency: currency}
	}
	return contracts.CategoryDefaults{Sector: "Unknown", Country: "Unknown", Currency: "USD"}
}

// exchangeCountries maps exchange names to countries, used as the last
// enrichment fallback when no profile provider knows the instrument.
var exchangeCountries = map[string]string{
	"AMS": "Netherlands", "AMSTERDAM": "Netherlands",
	"PAR": "France", "PARIS": "France", "EPA": "France",
	"FRA": "Germany", "XETRA": "Germany", "FRANKFURT": "Germany", "GER": "Germany",
	"LSE": "United Kingdom", "LON": "United Kingdom", "LONDON": "United Kingdom",
	"MIL": "Italy", "MILAN": "Italy",
	"BME": "Spain", "MADRID": "Spain",
	"SWX": "Switzerland", "SWISS": "Switzerland", "VTX": "Switzerland",
	"VIE": "Austria", "OSL": "Norway", "CPH": "Denmark",
	"HEL": "Finland", "STO": "Sweden",
	"BIST": "Turkey", "ISTANBUL": "Turkey",
	"NYSE": "United States", "NASDAQ": "United States",
	"NYQ": "United States", "NMS": "United States",
	"TSX": "Canada", "TSE": "Japan", "TOKYO": "Japan",
	"HKSE": "Hong Kong", "HKG": "Hong Kong",
	"SGX": "Singapore",
}

var suffixCountries = map[string]string{
	"AS": "Netherlands", "PA": "France", "DE": "Germany", "F": "Germany",
	"L": "United Kingdom", "MI": "Italy", "MC": "Spain",
	"SW": "Switzerland", "VI": "Austria", "OL": "Norway",
	"CO": "Denmark", "HE": "Finland", "ST": "Sweden", "IS": "Turkey",
	"TO": "Canada", "SA": "Brazil", "MX": "Mexico",
	"T": "Japan", "HK": "Hong Kong", "SS": "China", "SZ": "China",
	"KS": "South Korea", "SI": "Singapore",
}

// CountryFromExchange derives a country from the exchange name or the
// ticker suffix. Returns "" when neither matches.
func CountryFromExchange(exchange, symbol string) string {
	if exchange != "" {
		upper := strings.ToUpper(strings.TrimSpace(exchange))
		if country, ok := exchangeCountries[upper]; ok {
			return country
		}
		for key, country := range exchangeCountries {
			if strings.Contains(upper, key) {
				return country
			}
		}
	}

	if parts := strings.Split(symbol, "."); len(parts) == 2 {
		if country, ok := suffixCountries[strings.ToUpper(strings.TrimSpace(parts[1]))]; ok {
			return country
		}
	}
	return ""
}

// symbolProfile is a hand-curated metadata entry for symbols the
// profile providers routinely misreport.
type symbolProfile struct {
	Country string
	Sector  string
}

var manualProfiles = map[string]symbolProfile{
	// BIST majors
	"THYAO.IS": {Country: "Turkey", Sector: "Industrials"},
	"GARAN.IS": {Country: "Turkey", Sector: "Financial Services"},
	"AKBNK.IS": {Country: "Turkey", Sector: "Financial Services"},
	"EREGL.IS": {Country: "Turkey", Sector: "Basic Materials"},
	"KCHOL.IS": {Country: "Turkey", Sector: "Financial Services"},
	"SAHOL.IS": {Country: "Turkey", Sector: "Financial Services"},
	"SISE.IS":  {Country: "Turkey", Sector: "Basic Materials"},
	"BIMAS.IS": {Country: "Turkey", Sector: "Consumer Cyclical"},
	"ASELS.IS": {Country: "Turkey", Sector: "Industrials"},
	"TUPRS.IS": {Country: "Turkey", Sector: "Basic Materials"},
	"FROTO.IS": {Country: "Turkey", Sector: "Consumer Cyclical"},
	"TCELL.IS": {Country: "Turkey", Sector: "Communication Services"},
	"TAVHL.IS": {Country: "Turkey", Sector: "Industrials"},
	// Euronext majors
	"ASML.AS":  {Country: "Netherlands", Sector: "Technology"},
	"SHELL.AS": {Country: "Netherlands", Sector: "Energy"},
	"ADYEN.AS": {Country: "Netherlands", Sector: "Technology"},
	// Commodities
	"GC=F":   {Country: "Global", Sector: "Commodity"},
	"SI=F":   {Country: "Global", Sector: "Commodity"},
	"CL=F":   {Country: "Global", Sector: "Commodity"},
	"GAUTRY": {Country: "Global", Sector: "Commodity"},
	"XAGTRY": {Country: "Global", Sector: "Commodity"},
	"XAU":    {Country: "Global", Sector: "Commodity"},
}

func manualProfile(symbol string) (symbolProfile, bool) {
	upper := strings.ToUpper(symbol)
	if p, ok := manualProfiles[upper]; ok {
		return p, true
	}
	// bare BIST symbols without the .IS suffix
	if !strings.Contains(upper, ".") {
		if p, ok := manualProfiles[upper+".IS"]; ok {
			return p, true
		}
	}
	return symbolProfile{}, false
}

// enrich classifies the resolved asset, applies category defaults to
// empty fields, and for the generalist equity markets runs the profile
// cascade. CSV-provided values win over anything from providers; the
// resolved symbol, confidence, and match source are never touched.
func (r *Resolver) enrich(ctx context.Context, asset *contracts.ResolvedAsset) {
	asset.Category = ClassifyCategory(asset.ResolvedType, asset.ResolvedExchange, asset.ResolvedSymbol)
	defaults := Defaults(asset.Category, asset.ResolvedSymbol)

	if asset.ResolvedCurrency == "" {
		asset.ResolvedCurrency = defaults.Currency
	}

	needsProfile := asset.Category == contracts.CategoryUSMarkets || asset.Category == contracts.CategoryEUMarkets
	if needsProfile && (emptyMeta(asset.Country) || emptyMeta(asset.Sector)) {
		if p, ok := manualProfile(asset.ResolvedSymbol); ok {
			if emptyMeta(asset.Country) {
				asset.Country = p.Country
			}
			if emptyMeta(asset.Sector) {
				asset.Sector = p.Sector
			}
		}

		if emptyMeta(asset.Country) || emptyMeta(asset.Sector) {
			profile, err := r.market.Profile(ctx, asset.ResolvedSymbol)
			if err != nil {
				r.logger.WithError(err).WithField("symbol", asset.ResolvedSymbol).Debug("profile enrichment failed")
			} else if profile != nil {
				if emptyMeta(asset.Country) && !emptyMeta(profile.Country) {
					asset.Country = profile.Country
				}
				if emptyMeta(asset.Sector) && !emptyMeta(profile.Sector) {
					asset.Sector = profile.Sector
				}
			}
		}

		if emptyMeta(asset.Country) {
			if country := CountryFromExchange(asset.ResolvedExchange, asset.ResolvedSymbol); country != "" {
				asset.Country = country
			}
		}
	}

	if emptyMeta(asset.Country) {
		asset.Country = defaults.Country
	}
	if emptyMeta(asset.Sector) {
		asset.Sector = defaults.Sector
	}
	if asset.ResolvedExchange == "" {
		asset.ResolvedExchange = asset.Exchange
	}
}

// emptyMeta treats the "Unknown" sentinel as absent.
func emptyMeta(v string) bool {
	return v == "" || strings.EqualFold(v, "unknown")
}
