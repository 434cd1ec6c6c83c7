package importer

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tkaya/folio/internal/contracts"
)

// ClosedPositionThreshold marks a parsed quantity as a fully exited
// position.
const ClosedPositionThreshold = 1e-6

// columnAliases are known header variations per logical field, in
// matching priority order. Turkish, Dutch, and German broker exports
// are the common sources.
var columnAliases = map[string][]string{
	"symbol":     {"symbol", "ticker", "code", "sembol", "kod", "hisse", "stock", "asset"},
	"isin":       {"isin"},
	"name":       {"name", "company", "şirket", "isim", "ad", "firma", "description", "product"},
	"quantity":   {"quantity", "qty", "amount", "adet", "miktar", "lot", "shares", "units"},
	"buyPrice":   {"buyprice", "buy_price", "cost", "price", "fiyat", "maliyet", "alış", "alis", "avg_cost", "average"},
	"currency":   {"currency", "cur", "para birimi", "doviz", "döviz", "ccy"},
	"type":       {"type", "asset_type", "category", "tip", "tür", "tur", "kategori"},
	"platform":   {"platform", "broker", "exchange", "borsa", "aracı kurum", "araci"},
	"localValue": {"local value", "localvalue", "value", "total", "wert", "betrag", "gesamtwert", "tutar"},
	"date":       {"date", "tarih", "transaction date", "time"},
	"orderid":    {"orderid", "order id", "order-id", "auftragsnummer"},
}

var genericFieldOrder = []string{"symbol", "isin", "quantity", "buyPrice", "currency", "name", "type", "platform", "date"}

var degiroFieldOrder = []string{"isin", "name", "quantity", "buyPrice", "currency", "localValue", "date"}

// ParsedRow is one position row extracted from a broker export, with
// parse-level confidence deductions attached. The symbol may still be
// an ISIN; resolution happens downstream.
type ParsedRow struct {
	contracts.ImportRow
	Confidence int
	Warnings   []string
}

// ParseResult is the outcome of parsing one uploaded file.
type ParseResult struct {
	Success         bool
	Rows            []ParsedRow
	Transactions    []contracts.StoredTransaction
	DetectedColumns map[string]string
	UnmappedColumns []string
	Errors          []string
	TotalRows       int
	SkippedRows     int
	ClosedPositions int
	Format          string // "generic" or "degiro"
}

// ParseCSV parses broker CSV content, auto-detecting the format and
// the column layout.
func ParseCSV(content, platform string) (*ParseResult, error) {
	records, err := readRecords(content)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return &ParseResult{Errors: []string{"file contains no data rows"}}, nil
	}

	headers := cleanHeaders(records[0])
	rows := toRowMaps(headers, records[1:])

	if isDeGiroFormat(headers) {
		return parseDeGiro(headers, rows), nil
	}
	return parseGeneric(headers, rows, platform), nil
}

// readRecords sniffs the delimiter from the header line and reads the
// whole file. Broker exports are ragged, so field counts vary.
func readRecords(content string) ([][]string, error) {
	delimiter := ','
	if i := strings.IndexByte(content, '\n'); i > 0 {
		header := content[:i]
		if strings.Count(header, ";") > strings.Count(header, ",") {
			delimiter = ';'
		}
	}

	r := csv.NewReader(strings.NewReader(content))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

func cleanHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		if h == "" {
			h = fmt.Sprintf("__empty_%d", i)
		}
		headers[i] = h
	}
	return headers
}

func toRowMaps(headers []string, records [][]string) []map[string]string {
	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		if isEmptyRecord(rec) {
			continue
		}
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func isEmptyRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// normalizeKey lowercases, strips separators, and folds Turkish
// characters so "Para Birimi" matches "parabirimi".
func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case '_', '-', ' ':
			continue
		case 'ş':
			b.WriteByte('s')
		case 'ı':
			b.WriteByte('i')
		case '̇':
			// combining dot left over from lowercasing dotted capital I
			continue
		case 'ü':
			b.WriteByte('u')
		case 'ö':
			b.WriteByte('o')
		case 'ç':
			b.WriteByte('c')
		case 'ğ':
			b.WriteByte('g')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// findBestMatch picks the column best matching a logical field: exact
// normalized match first, then prefix, then substring.
func findBestMatch(columns []string, field string) string {
	aliases, ok := columnAliases[field]
	if !ok {
		aliases = []string{field}
	}

	for _, alias := range aliases {
		na := normalizeKey(alias)
		for _, col := range columns {
			if normalizeKey(col) == na {
				return col
			}
		}
		for _, col := range columns {
			if strings.HasPrefix(normalizeKey(col), na) {
				return col
			}
		}
		for _, col := range columns {
			if strings.Contains(normalizeKey(col), na) {
				return col
			}
		}
	}
	return ""
}

// detectColumnMappings assigns each logical field a header column,
// never reusing a column for two fields.
func detectColumnMappings(columns []string, fieldOrder []string) map[string]string {
	mappings := make(map[string]string)
	used := make(map[string]bool)

	for _, field := range fieldOrder {
		free := make([]string, 0, len(columns))
		for _, col := range columns {
			if !used[col] {
				free = append(free, col)
			}
		}
		if match := findBestMatch(free, field); match != "" {
			mappings[field] = match
			used[match] = true
		}
	}
	return mappings
}

// parseEuropeanNumber parses European-formatted numbers like
// "1.234,56". A comma always means the decimal separator and dots are
// thousands grouping, so US-style "1,234.56" is misread; the source
// platforms all emit the European layout.
func parseEuropeanNumber(value string) float64 {
	cleaned := strings.Trim(strings.TrimSpace(value), `"'`)
	if cleaned == "" {
		return 0
	}

	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	var b strings.Builder
	for _, r := range cleaned {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}

	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return f
}

// parseDate accepts DD-MM-YYYY and YYYY-MM-DD with -, / or .
// separators. Unparseable dates fall back to now.
func parseDate(dateStr string) time.Time {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Now()
	}

	parts := strings.FieldsFunc(dateStr, func(r rune) bool {
		return r == '-' || r == '/' || r == '.'
	})
	if len(parts) == 3 {
		if len(parts[2]) == 4 {
			if d, m, y, ok := atoiTriple(parts[0], parts[1], parts[2]); ok {
				return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
			}
		} else if len(parts[0]) == 4 {
			if y, m, d, ok := atoiTriple(parts[0], parts[1], parts[2]); ok {
				return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
			}
		}
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "02-01-2006 15:04"} {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t
		}
	}
	return time.Now()
}

func atoiTriple(a, b, c string) (int, int, int, bool) {
	x, err1 := strconv.Atoi(a)
	y, err2 := strconv.Atoi(b)
	z, err3 := strconv.Atoi(c)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	return x, y, z, true
}

// inferTypeFromName guesses the asset type from a product name when
// the export has no type column.
func inferTypeFromName(name string) string {
	upper := strings.ToUpper(name)
	switch {
	case strings.Contains(upper, "BITCOIN"), strings.Contains(upper, "BTC"),
		strings.Contains(upper, "ETHEREUM"), strings.Contains(upper, "ETH"),
		strings.Contains(upper, "XRP"), strings.Contains(upper, "RIPPLE"),
		strings.Contains(upper, "COINSHARES"), strings.Contains(upper, "CRYPTO"):
		return "CRYPTO"
	case strings.Contains(upper, "ETF"), strings.Contains(upper, "UCITS"),
		strings.Contains(upper, "ISHARES"), strings.Contains(upper, "VANGUARD"),
		strings.Contains(upper, "WISDOMTREE"), strings.Contains(upper, "ARK "):
		return "FUND"
	case strings.Contains(upper, "CERTIF"), strings.Contains(upper, "BOND"):
		return "BOND"
	default:
		return "STOCK"
	}
}

// normalizeCurrency maps broker currency spellings and symbols onto
// ISO codes, falling back to market hints from the ticker.
func normalizeCurrency(raw, symbol string) string {
	cur := strings.ToUpper(strings.TrimSpace(raw))
	switch cur {
	case "USD", "EUR", "TRY":
		return cur
	}
	switch {
	case strings.Contains(cur, "TL"), strings.Contains(cur, "₺"), strings.Contains(cur, "TRY"):
		return "TRY"
	case strings.Contains(cur, "€"), strings.Contains(cur, "EUR"):
		return "EUR"
	case strings.Contains(cur, "$"), strings.Contains(cur, "USD"):
		return "USD"
	}
	if strings.HasSuffix(symbol, ".IS") || strings.Contains(symbol, "BIST") || strings.Contains(symbol, "XU") {
		return "TRY"
	}
	return ""
}

// parseGeneric handles position-snapshot exports with one row per
// holding.
func parseGeneric(headers []string, data []map[string]string, platform string) *ParseResult {
	mappings := detectColumnMappings(headers, genericFieldOrder)

	result := &ParseResult{
		DetectedColumns: mappings,
		Format:          "generic",
		TotalRows:       len(data),
	}
	for _, h := range headers {
		if !mappedColumn(mappings, h) {
			result.UnmappedColumns = append(result.UnmappedColumns, h)
		}
	}

	for _, row := range data {
		parsed := parseGenericRow(row, mappings, platform)
		if parsed == nil {
			result.SkippedRows++
			continue
		}
		if parsed.Quantity <= ClosedPositionThreshold {
			result.ClosedPositions++
		}
		result.Rows = append(result.Rows, *parsed)
	}

	result.Success = len(result.Rows) > 0
	if !result.Success {
		result.Errors = append(result.Errors, "no usable rows detected")
	}
	return result
}

func mappedColumn(mappings map[string]string, col string) bool {
	for _, m := range mappings {
		if m == col {
			return true
		}
	}
	return false
}

// parseGenericRow extracts one position. An ISIN takes over as the
// symbol when present; the resolver turns it into a ticker later.
func parseGenericRow(row map[string]string, mappings map[string]string, platform string) *ParsedRow {
	var warnings []string
	confidence := 100

	isin := strings.TrimSpace(row[mappings["isin"]])
	name := strings.TrimSpace(row[mappings["name"]])

	var symbol string
	if len(isin) > 5 {
		symbol = isin
		confidence = 80 // needs downstream resolution
	} else {
		symbol = strings.ToUpper(strings.TrimSpace(row[mappings["symbol"]]))
		if symbol == "" {
			return nil
		}
	}

	var quantity float64
	if raw, ok := row[mappings["quantity"]]; ok && raw != "" {
		quantity = parseEuropeanNumber(raw)
		if quantity <= 0 {
			warnings = append(warnings, "invalid quantity, defaulted to 0")
			confidence -= 20
		}
	} else {
		warnings = append(warnings, "missing quantity")
		confidence -= 30
	}

	var buyPrice float64
	if raw, ok := row[mappings["buyPrice"]]; ok && raw != "" {
		buyPrice = parseEuropeanNumber(raw)
		if buyPrice < 0 {
			warnings = append(warnings, "invalid price")
			confidence -= 15
		}
	} else {
		warnings = append(warnings, "missing buy price")
		confidence -= 20
	}

	currency := normalizeCurrency(row[mappings["currency"]], symbol)
	if currency == "" {
		currency = "USD"
		if row[mappings["currency"]] == "" {
			confidence -= 5
		}
	}

	assetType := strings.TrimSpace(row[mappings["type"]])
	if assetType == "" && name != "" {
		assetType = inferTypeFromName(name)
	}

	rowPlatform := strings.TrimSpace(row[mappings["platform"]])
	if rowPlatform == "" {
		rowPlatform = platform
	}

	if confidence < 0 {
		confidence = 0
	}

	return &ParsedRow{
		ImportRow: contracts.ImportRow{
			Symbol:   symbol,
			ISIN:     isin,
			Name:     name,
			Quantity: quantity,
			BuyPrice: buyPrice,
			Currency: currency,
			Type:     assetType,
			Platform: rowPlatform,
		},
		Confidence: confidence,
		Warnings:   warnings,
	}
}
