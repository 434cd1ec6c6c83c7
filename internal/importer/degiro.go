package importer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tkaya/folio/internal/contracts"
)

// isDeGiroFormat detects a DeGiro transaction export: it always
// carries ISIN, Product, and a Reference Exchange or Venue column.
func isDeGiroFormat(columns []string) bool {
	var hasISIN, hasProduct, hasVenue bool
	for _, col := range columns {
		switch normalizeKey(col) {
		case "isin":
			hasISIN = true
		case "product":
			hasProduct = true
		case "referenceexchange", "venue":
			hasVenue = true
		}
	}
	return hasISIN && hasProduct && hasVenue
}

type degiroTrade struct {
	quantity float64
	price    float64
	value    float64
}

type degiroPosition struct {
	isin     string
	name     string
	buys     []degiroTrade
	sells    []degiroTrade
	currency string
	exchange string
}

// parseDeGiro converts per-trade rows into a transaction history plus
// one aggregated position row per ISIN.
func parseDeGiro(headers []string, data []map[string]string) *ParseResult {
	mappings := detectColumnMappings(headers, degiroFieldOrder)

	result := &ParseResult{
		DetectedColumns: mappings,
		Format:          "degiro",
	}

	positions := make(map[string]*degiroPosition)
	order := make([]string, 0)
	externalIDCounts := make(map[string]int)

	for _, row := range data {
		isin := strings.TrimSpace(row[mappings["isin"]])
		if len(isin) < 5 {
			result.SkippedRows++
			continue
		}
		result.TotalRows++

		name := strings.TrimSpace(row[mappings["name"]])
		quantity := parseEuropeanNumber(row[mappings["quantity"]])
		price := parseEuropeanNumber(row[mappings["buyPrice"]])
		date := parseDate(row[mappings["date"]])

		externalID := findOrderID(headers, row)
		if externalID != "" {
			count := externalIDCounts[externalID]
			externalIDCounts[externalID] = count + 1
			if count > 0 {
				// partial fills share one order id
				externalID = fmt.Sprintf("%s-%d", externalID, count)
			}
		}

		localValue := findLocalValue(headers, row, mappings)

		// crypto rows leave quantity blank; derive it from the trade value
		if quantity == 0 && price > 0 && localValue != 0 {
			quantity = math.Abs(localValue) / price
		}

		// negative local value means money out, i.e. a buy
		isSell := localValue > 0 || quantity < 0
		quantity = math.Abs(quantity)

		// bonds and certificates are reported in nominal value
		if strings.HasPrefix(isin, "XS") {
			quantity /= 100
		}
		if quantity == 0 {
			result.SkippedRows++
			continue
		}

		currency := findRowCurrency(headers, row)
		exchange := findExchange(headers, row)

		txType := contracts.TxBuy
		if isSell {
			txType = contracts.TxSell
		}
		result.Transactions = append(result.Transactions, contracts.StoredTransaction{
			Symbol:     isin,
			Name:       name,
			Type:       txType,
			Quantity:   quantity,
			Price:      price,
			Currency:   currency,
			Date:       date,
			Exchange:   exchange,
			Platform:   "DeGiro",
			ExternalID: externalID,
			ISIN:       isin,
		})

		pos, ok := positions[isin]
		if !ok {
			pos = &degiroPosition{isin: isin, name: name, currency: currency, exchange: exchange}
			if pos.name == "" {
				pos.name = isin
			}
			positions[isin] = pos
			order = append(order, isin)
		} else if exchange != "" && pos.exchange == "" {
			pos.exchange = exchange
		}

		trade := degiroTrade{quantity: quantity, price: price, value: math.Abs(localValue)}
		if isSell {
			pos.sells = append(pos.sells, trade)
		} else {
			pos.buys = append(pos.buys, trade)
		}
	}

	sort.SliceStable(result.Transactions, func(i, j int) bool {
		return result.Transactions[i].Date.Before(result.Transactions[j].Date)
	})

	for _, isin := range order {
		pos := positions[isin]

		var totalBought, totalSold, totalCost float64
		for _, t := range pos.buys {
			totalBought += t.quantity
			totalCost += t.quantity * t.price
		}
		for _, t := range pos.sells {
			totalSold += t.quantity
		}

		netQuantity := totalBought - totalSold
		if netQuantity <= ClosedPositionThreshold {
			result.ClosedPositions++
		}

		var avgBuyPrice float64
		if totalBought > 0 {
			avgBuyPrice = totalCost / totalBought
		}

		var warnings []string
		if totalSold > 0 {
			warnings = append(warnings, fmt.Sprintf("calculated from history: %.4f bought, %.4f sold", totalBought, totalSold))
		}

		result.Rows = append(result.Rows, ParsedRow{
			ImportRow: contracts.ImportRow{
				Symbol:   pos.isin,
				ISIN:     pos.isin,
				Name:     pos.name,
				Quantity: netQuantity,
				BuyPrice: avgBuyPrice,
				Currency: pos.currency,
				Type:     inferTypeFromName(pos.name),
				Platform: "DeGiro",
				Exchange: pos.exchange,
			},
			Confidence: 80, // symbol is still an ISIN
			Warnings:   warnings,
		})
	}

	result.Success = len(result.Rows) > 0 || len(result.Transactions) > 0
	if !result.Success {
		result.Errors = append(result.Errors, "no usable trade rows detected")
	}
	return result
}

// findOrderID scans for an order/reference column with a plausible id.
func findOrderID(headers []string, row map[string]string) string {
	idAliases := []string{"orderid", "id", "ref", "reference"}
	for _, col := range headers {
		normal := normalizeKey(col)
		for _, alias := range idAliases {
			if normal == alias || strings.HasSuffix(normal, alias) {
				if val := strings.TrimSpace(row[col]); len(val) > 5 {
					return val
				}
			}
		}
	}
	return ""
}

// findLocalValue picks the first non-zero trade value column. DeGiro
// leaves some value columns unnamed, directly after the price column.
func findLocalValue(headers []string, row map[string]string, mappings map[string]string) float64 {
	priceIdx := indexOf(headers, mappings["buyPrice"])
	for i, col := range headers {
		normal := normalizeKey(col)
		isValueCol := false
		for _, alias := range columnAliases["localValue"] {
			if strings.Contains(normal, normalizeKey(alias)) {
				isValueCol = true
				break
			}
		}
		if !isValueCol && !(strings.HasPrefix(normal, "__empty") && i > priceIdx) {
			continue
		}
		if val := parseEuropeanNumber(row[col]); val != 0 {
			return val
		}
	}
	return 0
}

func findRowCurrency(headers []string, row map[string]string) string {
	for _, col := range headers {
		switch strings.ToUpper(strings.TrimSpace(row[col])) {
		case "USD":
			return "USD"
		case "EUR":
			return "EUR"
		case "TRY":
			return "TRY"
		}
	}
	return "EUR" // DeGiro default
}

// findExchange prefers the Reference Exchange column, then any other
// exchange column, then Venue.
func findExchange(headers []string, row map[string]string) string {
	var fallback, venue string
	for _, col := range headers {
		normal := normalizeKey(col)
		val := strings.TrimSpace(row[col])
		switch {
		case normal == "referenceexchange":
			if val != "" {
				return val
			}
		case normal == "venue":
			venue = val
		case strings.Contains(normal, "exchange"):
			if val != "" && fallback == "" {
				fallback = val
			}
		}
	}
	if fallback != "" {
		return fallback
	}
	return venue
}

func indexOf(headers []string, col string) int {
	for i, h := range headers {
		if h == col {
			return i
		}
	}
	return -1
}
