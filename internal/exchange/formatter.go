package exchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrencies are always included in the formatted output.
var DefaultCurrencies = []string{"EUR", "USD"}

// Quote is the projected sale/purchase pair for one currency.
type Quote struct {
	Sale     json.Number `json:"sale"`
	Purchase json.Number `json:"purchase"`
}

// DailyRates maps currency code to its quote for one date.
type DailyRates map[string]Quote

// Resolve returns primary when it carries a value and fallback otherwise.
// ok is false when neither is set.
func Resolve(primary, fallback decimal.NullDecimal) (value decimal.Decimal, ok bool) {
	if primary.Valid {
		return primary.Decimal, true
	}
	if fallback.Valid {
		return fallback.Decimal, true
	}
	return decimal.Decimal{}, false
}

// Project reduces records to one {date: {currency: quote}} entry per record,
// keeping only whitelisted currencies. extra, when non-empty, is added to
// the whitelist in upper case.
func Project(records []RawExchangeRecord, extra string) []map[string]DailyRates {
	whitelist := make(map[string]struct{}, len(DefaultCurrencies)+1)
	for _, code := range DefaultCurrencies {
		whitelist[code] = struct{}{}
	}
	if extra = strings.ToUpper(strings.TrimSpace(extra)); extra != "" {
		whitelist[extra] = struct{}{}
	}

	out := make([]map[string]DailyRates, 0, len(records))
	for _, record := range records {
		day := DailyRates{}
		for _, rate := range record.ExchangeRate {
			if _, ok := whitelist[rate.Currency]; !ok {
				continue
			}
			sale, saleOK := Resolve(rate.SaleRate, rate.SaleRateNB)
			purchase, purchaseOK := Resolve(rate.PurchaseRate, rate.PurchaseRateNB)
			if !saleOK || !purchaseOK {
				continue
			}
			day[rate.Currency] = Quote{
				Sale:     json.Number(sale.String()),
				Purchase: json.Number(purchase.String()),
			}
		}
		out = append(out, map[string]DailyRates{record.Date: day})
	}
	return out
}

// Format renders Project's result as an indented JSON array.
func Format(records []RawExchangeRecord, extra string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Project(records, extra)); err != nil {
		return nil, fmt.Errorf("encode exchange rates: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
