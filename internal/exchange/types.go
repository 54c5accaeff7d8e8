// Package exchange fetches daily PrivatBank exchange rates, aggregates them
// over a range of days and renders the compact JSON document broadcast to
// chat clients.
package exchange

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the upstream API's DD.MM.YYYY date format.
const DateLayout = "02.01.2006"

// MaxDays bounds a range query.
const MaxDays = 10

// ErrInvalidDays is returned for a day count outside [1, MaxDays].
var ErrInvalidDays = fmt.Errorf("days must be between 1 and %d", MaxDays)

// RawRate is one currency entry of an upstream record. The standard-client
// fields are missing on some records, in which case the NB fields apply.
type RawRate struct {
	BaseCurrency   string              `json:"baseCurrency,omitempty"`
	Currency       string              `json:"currency"`
	SaleRate       decimal.NullDecimal `json:"saleRate"`
	PurchaseRate   decimal.NullDecimal `json:"purchaseRate"`
	SaleRateNB     decimal.NullDecimal `json:"saleRateNB"`
	PurchaseRateNB decimal.NullDecimal `json:"purchaseRateNB"`
}

// RawExchangeRecord is the decoded API response for a single date.
type RawExchangeRecord struct {
	Date         string    `json:"date"`
	Bank         string    `json:"bank,omitempty"`
	BaseCurrency string    `json:"baseCurrencyLit,omitempty"`
	ExchangeRate []RawRate `json:"exchangeRate"`
}

// Query asks for the Days most recent calendar days ending today.
type Query struct {
	Days int
}

// Today is the single-day query issued by the bare "exchange" command.
func Today() Query {
	return Query{Days: 1}
}

// NewQuery validates days and returns the matching range query.
func NewQuery(days int) (Query, error) {
	if days < 1 || days > MaxDays {
		return Query{}, ErrInvalidDays
	}
	return Query{Days: days}, nil
}

// Dates returns the inclusive range [now-(Days-1), now], oldest first.
func (q Query) Dates(now time.Time) []time.Time {
	if q.Days < 1 {
		return nil
	}
	dates := make([]time.Time, 0, q.Days)
	for i := q.Days - 1; i >= 0; i-- {
		dates = append(dates, now.AddDate(0, 0, -i))
	}
	return dates
}

// FailureKind tags why a fetch produced no record.
type FailureKind int

// Fetch failure kinds.
const (
	FailureTransport FailureKind = iota
	FailureTimeout
	FailureStatus
	FailureDecode
)

func (k FailureKind) String() string {
	switch k {
	case FailureTransport:
		return "transport"
	case FailureTimeout:
		return "timeout"
	case FailureStatus:
		return "status"
	case FailureDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// FetchError reports a failed lookup for one date.
type FetchError struct {
	Kind       FailureKind
	Date       string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == FailureStatus:
		return fmt.Sprintf("exchange rates for %s: unexpected status %d", e.Date, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("exchange rates for %s: %s: %v", e.Date, e.Kind, e.Err)
	default:
		return fmt.Sprintf("exchange rates for %s: %s", e.Date, e.Kind)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchFailure reports whether err is a *FetchError of the given kind.
func IsFetchFailure(err error, kind FailureKind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == kind
}
