package models

import (
	"github.com/punchamoorthee/stayledger/internal/domain"
	"github.com/punchamoorthee/stayledger/internal/service"
)

// ReserveRequest is the payload for creating a reservation.
// Dates are YYYY-MM-DD or RFC 3339.
type ReserveRequest struct {
	ListingID string `json:"listingId" validate:"required"`
	Payer     string `json:"payer" validate:"required"`
	CheckIn   string `json:"checkIn" validate:"required"`
	CheckOut  string `json:"checkOut" validate:"required"`
	Guests    int    `json:"guests" validate:"required,min=1"`
}

// ReviewRequest attaches a rating and optional text to a reservation.
type ReviewRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review" validate:"max=2000"`
}

// QuoteResponse is the price breakdown plus the exact ledger amount.
type QuoteResponse struct {
	ListingID string `json:"listingId"`
	domain.PriceQuote
	Amount string `json:"amount"`
	Asset  string `json:"asset"`
}

// AccountSummary is a guest's or host's view of their reservations.
type AccountSummary struct {
	Address      string               `json:"address"`
	Role         string               `json:"role"`
	Balance      string               `json:"balance,omitempty"`
	Summary      service.Summary      `json:"summary"`
	Reservations []domain.Reservation `json:"reservations"`
}

// InsufficientFundsResponse is returned with 402.
type InsufficientFundsResponse struct {
	Error     string `json:"error"`
	Required  string `json:"required"`
	Available string `json:"available"`
}

// PaymentFailedResponse is returned with 502.
type PaymentFailedResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// UnsavedPaymentResponse is returned with 500 when money moved but the
// reservation was not written.
type UnsavedPaymentResponse struct {
	Error  string `json:"error"`
	TxHash string `json:"tx_hash"`
}
