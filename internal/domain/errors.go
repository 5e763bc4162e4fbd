package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidDateRange            = errors.New("check-out must be after check-in")
	ErrInvalidPrice                = errors.New("nightly price must be positive")
	ErrInvalidGuests               = errors.New("guest count must be at least 1")
	ErrGuestLimitExceeded          = errors.New("guest count exceeds listing capacity")
	ErrInvalidAddress              = errors.New("payer address is required")
	ErrInsufficientFunds           = errors.New("insufficient funds")
	ErrPaymentFailed               = errors.New("payment failed")
	ErrDuplicateIdentifier         = errors.New("reservation identifier already exists")
	ErrNotFound                    = errors.New("reservation not found")
	ErrAlreadyCancelled            = errors.New("reservation already cancelled")
	ErrInvalidRating               = errors.New("rating must be between 1 and 5")
	ErrReviewNotAllowed            = errors.New("reviews are only accepted for completed stays")
	ErrPersistedAfterPaymentFailed = errors.New("payment submitted but reservation was not saved")
	ErrListingNotFound             = errors.New("listing not found")
)

// InsufficientFundsError reports how much the payer needed and had.
type InsufficientFundsError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: required %s, available %s",
		e.Required.StringFixed(7), e.Available.StringFixed(7))
}

func (e *InsufficientFundsError) Is(target error) bool { return target == ErrInsufficientFunds }

// PaymentFailedError carries the gateway's rejection reason.
type PaymentFailedError struct {
	Reason string
}

func (e *PaymentFailedError) Error() string {
	if e.Reason == "" {
		return "payment failed"
	}
	return "payment failed: " + e.Reason
}

func (e *PaymentFailedError) Is(target error) bool { return target == ErrPaymentFailed }

// PersistenceAfterPaymentError means money moved on the ledger but the
// reservation record could not be written. TxHash lets the user recover.
type PersistenceAfterPaymentError struct {
	TxHash string
	Err    error
}

func (e *PersistenceAfterPaymentError) Error() string {
	return fmt.Sprintf("payment %s submitted but reservation was not saved: %v", e.TxHash, e.Err)
}

func (e *PersistenceAfterPaymentError) Is(target error) bool {
	return target == ErrPersistedAfterPaymentFailed
}

func (e *PersistenceAfterPaymentError) Unwrap() error { return e.Err }
