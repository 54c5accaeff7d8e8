package exchange

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords(t *testing.T) []RawExchangeRecord {
	return []RawExchangeRecord{
		{
			Date: "01.03.2024",
			ExchangeRate: []RawRate{
				{Currency: "EUR", SaleRate: dec(t, "42.5"), PurchaseRate: dec(t, "41.6"), SaleRateNB: dec(t, "41.9"), PurchaseRateNB: dec(t, "41.9")},
				{Currency: "USD", SaleRateNB: dec(t, "38.4"), PurchaseRateNB: dec(t, "38.3")},
				{Currency: "GBP", SaleRate: dec(t, "49.1"), PurchaseRate: dec(t, "48.0")},
				{Currency: "PLN", SaleRate: dec(t, "9.8"), PurchaseRate: dec(t, "9.5")},
			},
		},
		{
			Date: "02.03.2024",
			ExchangeRate: []RawRate{
				{Currency: "USD", SaleRate: dec(t, "39"), PurchaseRate: dec(t, "38.55")},
			},
		},
	}
}

func decodeOutput(t *testing.T, out []byte) []map[string]map[string]map[string]float64 {
	t.Helper()
	var doc []map[string]map[string]map[string]float64
	require.NoError(t, json.Unmarshal(out, &doc))
	return doc
}

func TestResolvePrefersPrimary(t *testing.T) {
	v, ok := Resolve(dec(t, "1.5"), dec(t, "2.5"))
	require.True(t, ok)
	assert.Equal(t, "1.5", v.String())

	v, ok = Resolve(decimal.NullDecimal{}, dec(t, "2.5"))
	require.True(t, ok)
	assert.Equal(t, "2.5", v.String())

	_, ok = Resolve(decimal.NullDecimal{}, decimal.NullDecimal{})
	assert.False(t, ok)
}

func TestFormatWhitelistAndFallback(t *testing.T) {
	out, err := Format(sampleRecords(t), "")
	require.NoError(t, err)

	doc := decodeOutput(t, out)
	require.Len(t, doc, 2)

	first := doc[0]["01.03.2024"]
	require.NotNil(t, first)
	assert.Len(t, first, 2)
	assert.NotContains(t, first, "GBP")
	assert.NotContains(t, first, "PLN")
	assert.InDelta(t, 42.5, first["EUR"]["sale"], 1e-9)
	assert.InDelta(t, 41.6, first["EUR"]["purchase"], 1e-9)
	// USD only carries the NB fields on this record.
	assert.InDelta(t, 38.4, first["USD"]["sale"], 1e-9)
	assert.InDelta(t, 38.3, first["USD"]["purchase"], 1e-9)

	second := doc[1]["02.03.2024"]
	assert.Len(t, second, 1)
	assert.NotContains(t, second, "EUR")
	assert.InDelta(t, 39, second["USD"]["sale"], 1e-9)
}

func TestFormatExtraCurrency(t *testing.T) {
	out, err := Format(sampleRecords(t), "gbp")
	require.NoError(t, err)

	first := decodeOutput(t, out)[0]["01.03.2024"]
	assert.Len(t, first, 3)
	assert.InDelta(t, 49.1, first["GBP"]["sale"], 1e-9)
	assert.NotContains(t, first, "PLN")
}

func TestFormatLayout(t *testing.T) {
	records := []RawExchangeRecord{{
		Date: "02.03.2024",
		ExchangeRate: []RawRate{
			{Currency: "USD", SaleRate: dec(t, "39"), PurchaseRate: dec(t, "38.55")},
		},
	}}

	out, err := Format(records, "")
	require.NoError(t, err)

	want := `[
  {
    "02.03.2024": {
      "USD": {
        "sale": 39,
        "purchase": 38.55
      }
    }
  }
]`
	assert.Equal(t, want, string(out))
}

func TestFormatIsPure(t *testing.T) {
	records := sampleRecords(t)

	a, err := Format(records, "")
	require.NoError(t, err)
	b, err := Format(records, "")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestFormatEmptyDayAndMissingRates(t *testing.T) {
	records := []RawExchangeRecord{
		{Date: "03.03.2024"},
		{Date: "04.03.2024", ExchangeRate: []RawRate{{Currency: "EUR", SaleRate: dec(t, "1")}}},
	}

	out, err := Format(records, "")
	require.NoError(t, err)

	doc := decodeOutput(t, out)
	require.Len(t, doc, 2)
	assert.Empty(t, doc[0]["03.03.2024"])
	assert.Empty(t, doc[1]["04.03.2024"])
}
