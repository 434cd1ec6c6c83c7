package resolver

import (
	"regexp"
	"strings"
)

// nominalPatterns strip British nominal-value and share-class tails
// ("DIAGEO PLC ORD 28 101/108P") before the suffix pass.
var nominalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i) ORD [\d\s/.]*\d+P?$`),
	regexp.MustCompile(`(?i) ORD (GBP|USD|EUR)[\d.]+$`),
	regexp.MustCompile(`(?i) ORD [$£€][\d.]+$`),
	regexp.MustCompile(`(?i) ORD$`),
	regexp.MustCompile(`(?i) ORDINARY SHARES?$`),
	regexp.MustCompile(`(?i) COM(MON)?$`),
	regexp.MustCompile(`(?i) CL(ASS)? [A-Z]$`),
	regexp.MustCompile(`(?i) ADR$`),
	regexp.MustCompile(`(?i) ADS$`),
	regexp.MustCompile(`(?i) REIT$`),
}

// legalSuffixes are removed iteratively from the end of a name until a
// fixed point, handling chains like "Company AG EUR".
var legalSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i) Inc\.?$`),
	regexp.MustCompile(`(?i) Corp\.?$`),
	regexp.MustCompile(`(?i) Corporation$`),
	regexp.MustCompile(`(?i) Ltd\.?$`),
	regexp.MustCompile(`(?i) Limited$`),
	regexp.MustCompile(`(?i) A\.S\.?$`),
	regexp.MustCompile(`(?i) A\.Ş\.?$`),
	regexp.MustCompile(`(?i) AS$`),
	regexp.MustCompile(`(?i) Holding\.?$`),
	regexp.MustCompile(`(?i) N\.V\.?$`),
	regexp.MustCompile(`(?i) PLC\.?$`),
	regexp.MustCompile(`(?i) S\.A\.?$`),
	regexp.MustCompile(`(?i) Group$`),
	regexp.MustCompile(`(?i) GmbH$`),
	regexp.MustCompile(`(?i) Sanayi$`),
	regexp.MustCompile(`(?i) ve Ticaret$`),
	regexp.MustCompile(`(?i) San\.?$`),
	regexp.MustCompile(`(?i) Tic\.?$`),
	regexp.MustCompile(`(?i) AG\.?$`),
	regexp.MustCompile(`(?i) A/S$`),
	regexp.MustCompile(`(?i) SE$`),
	regexp.MustCompile(`(?i) SpA$`),
	regexp.MustCompile(`(?i) NV$`),
	regexp.MustCompile(`(?i) Oyj?$`),
	regexp.MustCompile(`(?i) Abp$`),
	regexp.MustCompile(`(?i) ASA$`),
	regexp.MustCompile(`(?i) AB$`),
	regexp.MustCompile(`(?i) Co\.?$`),
	regexp.MustCompile(`(?i) Company$`),
	regexp.MustCompile(`(?i) & Co\.?$`),
	// currency tails ("Bitcoin EUR")
	regexp.MustCompile(`(?i) EUR$`),
	regexp.MustCompile(`(?i) USD$`),
	regexp.MustCompile(`(?i) TRY$`),
	regexp.MustCompile(`(?i) GBP$`),
	regexp.MustCompile(`(?i) CAD$`),
	regexp.MustCompile(`(?i) AUD$`),
	regexp.MustCompile(`(?i) CHF$`),
}

var trailingSeparators = []*regexp.Regexp{
	regexp.MustCompile(`(?i) ve$`),
	regexp.MustCompile(` &$`),
	regexp.MustCompile(`-$`),
	regexp.MustCompile(`,$`),
}

// CleanAssetName strips legal-entity suffixes, share-class markers,
// and currency tails from an instrument display name.
func CleanAssetName(name string) string {
	cleaned := strings.TrimSpace(name)

	for _, re := range nominalPatterns {
		cleaned = strings.TrimSpace(re.ReplaceAllString(cleaned, ""))
	}

	for {
		prev := cleaned
		for _, re := range legalSuffixes {
			cleaned = strings.TrimSpace(re.ReplaceAllString(cleaned, ""))
		}
		for _, re := range trailingSeparators {
			cleaned = strings.TrimSpace(re.ReplaceAllString(cleaned, ""))
		}
		if cleaned == prev {
			break
		}
	}

	return cleaned
}
