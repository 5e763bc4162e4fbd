package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// NativeAsset is the ledger network's native unit.
const NativeAsset = "XLM"

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Listing is a rentable property as supplied by the catalog.
type Listing struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Location     string  `json:"location"`
	Owner        string  `json:"owner"`
	NightlyPrice float64 `json:"nightlyPrice"`
	MaxGuests    int     `json:"maxGuests"`
	Asset        string  `json:"asset,omitempty"`
}

// AssetCode returns the listing's asset, defaulting to the native unit.
func (l Listing) AssetCode() string {
	if l.Asset == "" {
		return NativeAsset
	}
	return l.Asset
}

// PriceQuote is the pricing breakdown for a candidate stay. It is never persisted.
type PriceQuote struct {
	Nights         int     `json:"nights"`
	NightlyPrice   float64 `json:"nightlyPrice"`
	Subtotal       float64 `json:"subtotal"`
	ServiceFeeRate float64 `json:"serviceFeeRate"`
	ServiceFee     float64 `json:"serviceFee"`
	DepositRate    float64 `json:"depositRate"`
	Deposit        float64 `json:"deposit"`
	GrandTotal     float64 `json:"grandTotal"`
}

// Reservation is the persisted record of a paid booking.
// ID always equals the payment transaction hash.
type Reservation struct {
	ID           string     `json:"id"`
	ListingID    string     `json:"listingId"`
	ListingTitle string     `json:"listingTitle,omitempty"`
	Location     string     `json:"location,omitempty"`
	Payer        string     `json:"payer"`
	Payee        string     `json:"payee"`
	CheckIn      time.Time  `json:"checkIn"`
	CheckOut     time.Time  `json:"checkOut"`
	Guests       int        `json:"guests"`
	Nights       int        `json:"nights"`
	Subtotal     float64    `json:"subtotal"`
	ServiceFee   float64    `json:"serviceFee"`
	GrandTotal   float64    `json:"grandTotal"`
	Deposit      float64    `json:"deposit"`
	Asset        string     `json:"asset,omitempty"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	Rating       *int       `json:"rating,omitempty"`
	Review       string     `json:"review,omitempty"`
	ReviewedAt   *time.Time `json:"reviewedAt,omitempty"`
	TxHash       string     `json:"txHash,omitempty"`
	Memo         string     `json:"memo,omitempty"`
	CancelledAt  *time.Time `json:"cancelledAt,omitempty"`
}

// AssetBalance is one non-native trust line held by an account.
type AssetBalance struct {
	Code    string          `json:"code"`
	Issuer  string          `json:"issuer,omitempty"`
	Balance decimal.Decimal `json:"balance"`
}

// Balance is an account's spendable native balance plus its other assets.
type Balance struct {
	Address   string          `json:"address"`
	Available decimal.Decimal `json:"available"`
	Assets    []AssetBalance  `json:"assets"`
}

// PaymentRequest is a single payment submitted to the ledger.
// Amount is a fixed-precision decimal string, never a binary float.
type PaymentRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Asset  string `json:"asset,omitempty"`
	Memo   string `json:"memo"`
}

// PaymentResult is the ledger's answer to a PaymentRequest.
type PaymentResult struct {
	Success bool   `json:"success"`
	Hash    string `json:"hash,omitempty"`
	Reason  string `json:"reason,omitempty"`
}
