// Package events publishes reservation lifecycle events for downstream
// consumers such as host notifications.
package events

import (
	"context"
	"time"
)

// Routing keys.
const (
	RKReservationCreated   = "reservation.created"
	RKReservationCancelled = "reservation.cancelled"
	RKReservationReviewed  = "reservation.reviewed"
)

// ReservationCreated carries enough to notify the host of a new stay.
type ReservationCreated struct {
	ReservationID string    `json:"reservation_id"`
	ListingID     string    `json:"listing_id"`
	Payer         string    `json:"payer"`
	Payee         string    `json:"payee"`
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
	Guests        int       `json:"guests"`
	Amount        string    `json:"amount"`
	Asset         string    `json:"asset"`
}

type ReservationCancelled struct {
	ReservationID string `json:"reservation_id"`
	ListingID     string `json:"listing_id"`
	Payee         string `json:"payee"`
	Deposit       string `json:"deposit"`
}

type ReservationReviewed struct {
	ReservationID string `json:"reservation_id"`
	ListingID     string `json:"listing_id"`
	Rating        int    `json:"rating"`
}

// Publisher delivers an event under a routing key.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) PublishJSON(context.Context, string, any) error { return nil }
