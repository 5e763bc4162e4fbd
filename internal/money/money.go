// Package money holds the date and amount helpers shared by pricing, the
// orchestrator and the receipt renderer.
package money

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerPrecision is the number of fractional digits the ledger accepts.
const LedgerPrecision = 7

const secondsPerDay = 24 * 60 * 60

// Nights returns the number of billable nights between checkIn and checkOut.
// A partial day always bills a full night. Non-positive spans return 0.
// The span is taken from Unix seconds since time.Duration saturates after
// about 292 years.
func Nights(checkIn, checkOut time.Time) int {
	if !checkOut.After(checkIn) {
		return 0
	}
	secs := checkOut.Unix() - checkIn.Unix()
	if checkOut.Nanosecond() > checkIn.Nanosecond() {
		secs++
	}
	return int((secs + secondsPerDay - 1) / secondsPerDay)
}

// LedgerAmount converts v to a decimal rounded to the ledger's precision.
func LedgerAmount(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(LedgerPrecision)
}

// FormatLedgerAmount renders v as the fixed-precision string the gateway expects.
func FormatLedgerAmount(v float64) string {
	return LedgerAmount(v).StringFixed(LedgerPrecision)
}

// FormatDisplay renders v with two fractional digits for human-facing output.
func FormatDisplay(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// ExceedsLedgerPrecision reports whether d carries more fractional digits
// than the ledger accepts.
func ExceedsLedgerPrecision(d decimal.Decimal) bool {
	return !d.Equal(d.Truncate(LedgerPrecision))
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseDate accepts a calendar date (YYYY-MM-DD) or an RFC 3339 timestamp.
// Calendar dates resolve to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
}

// CompactDate renders t as YYMMDD.
func CompactDate(t time.Time) string {
	return t.UTC().Format("060102")
}
