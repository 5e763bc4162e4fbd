package pricing

import (
	"math"
	"time"

	"github.com/punchamoorthee/stayledger/internal/domain"
	"github.com/punchamoorthee/stayledger/internal/money"
)

const (
	ServiceFeeRate = 0.02
	DepositRate    = 0.30
)

// Quote prices a stay of nightlyPrice per night between checkIn and checkOut.
// The deposit is informational and is not added to GrandTotal.
func Quote(nightlyPrice float64, checkIn, checkOut time.Time) (domain.PriceQuote, error) {
	if math.IsNaN(nightlyPrice) || math.IsInf(nightlyPrice, 0) || nightlyPrice <= 0 {
		return domain.PriceQuote{}, domain.ErrInvalidPrice
	}
	if checkIn.IsZero() || checkOut.IsZero() || !checkOut.After(checkIn) {
		return domain.PriceQuote{}, domain.ErrInvalidDateRange
	}

	nights := money.Nights(checkIn, checkOut)
	subtotal := nightlyPrice * float64(nights)
	fee := subtotal * ServiceFeeRate
	grandTotal := subtotal + fee
	if !finite(subtotal) || !finite(grandTotal) {
		return domain.PriceQuote{}, domain.ErrInvalidPrice
	}

	return domain.PriceQuote{
		Nights:         nights,
		NightlyPrice:   nightlyPrice,
		Subtotal:       subtotal,
		ServiceFeeRate: ServiceFeeRate,
		ServiceFee:     fee,
		DepositRate:    DepositRate,
		Deposit:        nightlyPrice * DepositRate,
		GrandTotal:     grandTotal,
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
