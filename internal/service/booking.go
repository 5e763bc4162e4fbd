package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/stayledger/internal/domain"
	"github.com/punchamoorthee/stayledger/internal/events"
	"github.com/punchamoorthee/stayledger/internal/gateway"
	"github.com/punchamoorthee/stayledger/internal/lifecycle"
	"github.com/punchamoorthee/stayledger/internal/money"
	"github.com/punchamoorthee/stayledger/internal/pricing"
	"github.com/punchamoorthee/stayledger/internal/store"
)

var (
	reservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stayledger_reservations_total",
		Help: "Reservation attempts, labeled by outcome",
	}, []string{"outcome"})

	paymentsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stayledger_payments_submitted_total",
		Help: "Payments handed to the ledger gateway",
	})
)

// Store is the reservation persistence the booking service depends on.
type Store interface {
	List(ctx context.Context) ([]domain.Reservation, error)
	Get(ctx context.Context, id string) (domain.Reservation, error)
	ListByPayer(ctx context.Context, address string) ([]domain.Reservation, error)
	ListByPayee(ctx context.Context, address string) ([]domain.Reservation, error)
	Append(ctx context.Context, r domain.Reservation) error
	Update(ctx context.Context, id string, p store.Patch) (domain.Reservation, error)
	Cancel(ctx context.Context, id string, at time.Time) (domain.Reservation, error)
}

type BookingService struct {
	store             Store
	gateway           gateway.Gateway
	events            events.Publisher
	now               func() time.Time
	allowEarlyReviews bool
}

type Option func(*BookingService)

func WithPublisher(p events.Publisher) Option {
	return func(s *BookingService) { s.events = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *BookingService) { s.now = now }
}

// WithEarlyReviews controls whether a review may be attached before the stay
// has completed. Enabled by default.
func WithEarlyReviews(allow bool) Option {
	return func(s *BookingService) { s.allowEarlyReviews = allow }
}

func NewBookingService(st Store, gw gateway.Gateway, opts ...Option) *BookingService {
	s := &BookingService{
		store:             st,
		gateway:           gw,
		events:            events.Nop{},
		now:               time.Now,
		allowEarlyReviews: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReserveRequest is a guest's request to book a listing.
type ReserveRequest struct {
	Listing  domain.Listing
	Payer    string
	CheckIn  time.Time
	CheckOut time.Time
	Guests   int
}

// Quote prices a candidate stay without touching the ledger.
func (s *BookingService) Quote(listing domain.Listing, checkIn, checkOut time.Time) (domain.PriceQuote, error) {
	return pricing.Quote(listing.NightlyPrice, checkIn, checkOut)
}

// Reserve validates the request, checks the payer's balance, submits exactly
// one payment and persists the resulting reservation.
func (s *BookingService) Reserve(ctx context.Context, req ReserveRequest) (domain.Reservation, error) {
	r, err := s.reserve(ctx, req)
	reservationsTotal.WithLabelValues(outcome(err)).Inc()
	return r, err
}

func (s *BookingService) reserve(ctx context.Context, req ReserveRequest) (domain.Reservation, error) {
	// 1. Validation, before any external call
	if req.Guests < 1 {
		return domain.Reservation{}, domain.ErrInvalidGuests
	}
	if req.Guests > req.Listing.MaxGuests {
		return domain.Reservation{}, domain.ErrGuestLimitExceeded
	}
	payer := strings.TrimSpace(req.Payer)
	if payer == "" {
		return domain.Reservation{}, domain.ErrInvalidAddress
	}

	// 2. Pricing
	quote, err := pricing.Quote(req.Listing.NightlyPrice, req.CheckIn, req.CheckOut)
	if err != nil {
		return domain.Reservation{}, err
	}
	amount := money.LedgerAmount(quote.GrandTotal)

	// 3. Balance check
	bal, err := s.gateway.Balance(ctx, payer)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("balance lookup for %s: %w", payer, err)
	}
	available := spendable(bal, req.Listing.AssetCode())
	if available.LessThan(amount) {
		return domain.Reservation{}, &domain.InsufficientFundsError{Required: amount, Available: available}
	}

	// 4. Payment, submitted once and never retried here
	memo := Memo(req.Listing.ID, req.CheckIn, req.CheckOut)
	payment := domain.PaymentRequest{
		From:   payer,
		To:     req.Listing.Owner,
		Amount: amount.StringFixed(money.LedgerPrecision),
		Asset:  req.Listing.AssetCode(),
		Memo:   memo,
	}
	paymentsSubmitted.Inc()
	log.Printf("[booking] submitting payment listing=%s from=%s to=%s amount=%s memo=%q",
		req.Listing.ID, payment.From, payment.To, payment.Amount, payment.Memo)

	res, err := s.gateway.SendPayment(ctx, payment)
	if err != nil {
		log.Printf("[booking] payment error listing=%s from=%s: %v", req.Listing.ID, payer, err)
		return domain.Reservation{}, &domain.PaymentFailedError{Reason: err.Error()}
	}
	if !res.Success {
		log.Printf("[booking] payment rejected listing=%s from=%s reason=%s", req.Listing.ID, payer, res.Reason)
		return domain.Reservation{}, &domain.PaymentFailedError{Reason: res.Reason}
	}

	// 5. Persistence. Money has moved from here on, so the write must not be
	// abandoned with the caller's context.
	persistCtx := context.WithoutCancel(ctx)
	if res.Hash == "" {
		return domain.Reservation{}, s.persistFailed(res.Hash, errors.New("ledger returned no transaction hash"))
	}

	r := domain.Reservation{
		ID:           res.Hash,
		ListingID:    req.Listing.ID,
		ListingTitle: req.Listing.Title,
		Location:     req.Listing.Location,
		Payer:        payer,
		Payee:        req.Listing.Owner,
		CheckIn:      req.CheckIn,
		CheckOut:     req.CheckOut,
		Guests:       req.Guests,
		Nights:       quote.Nights,
		Subtotal:     quote.Subtotal,
		ServiceFee:   quote.ServiceFee,
		GrandTotal:   quote.GrandTotal,
		Deposit:      quote.Deposit,
		Asset:        req.Listing.AssetCode(),
		Status:       lifecycle.Initial,
		CreatedAt:    s.now().UTC(),
		TxHash:       res.Hash,
		Memo:         memo,
	}
	if err := s.store.Append(persistCtx, r); err != nil {
		return domain.Reservation{}, s.persistFailed(res.Hash, err)
	}
	log.Printf("[booking] reservation %s created listing=%s nights=%d total=%s",
		r.ID, r.ListingID, r.Nights, payment.Amount)

	s.publish(persistCtx, events.RKReservationCreated, events.ReservationCreated{
		ReservationID: r.ID,
		ListingID:     r.ListingID,
		Payer:         r.Payer,
		Payee:         r.Payee,
		CheckIn:       r.CheckIn,
		CheckOut:      r.CheckOut,
		Guests:        r.Guests,
		Amount:        payment.Amount,
		Asset:         r.Asset,
	})
	return r, nil
}

// spendable returns the balance held in asset. Non-native assets are matched
// by code against the account's asset lines; a missing line is zero.
func spendable(bal domain.Balance, asset string) decimal.Decimal {
	if asset == domain.NativeAsset {
		return bal.Available
	}
	for _, line := range bal.Assets {
		if line.Code == asset {
			return line.Balance
		}
	}
	return decimal.Zero
}

func (s *BookingService) persistFailed(hash string, err error) error {
	log.Printf("[booking] CRITICAL payment %s settled but reservation not saved: %v", hash, err)
	return &domain.PersistenceAfterPaymentError{TxHash: hash, Err: err}
}

// Cancel records the guest's intent to cancel. No refund is submitted.
func (s *BookingService) Cancel(ctx context.Context, id string) (domain.Reservation, error) {
	r, err := s.store.Cancel(ctx, id, s.now().UTC())
	if err != nil {
		return domain.Reservation{}, err
	}
	log.Printf("[booking] reservation %s cancelled, deposit %s %s owed", r.ID, money.FormatLedgerAmount(r.Deposit), r.Asset)

	s.publish(ctx, events.RKReservationCancelled, events.ReservationCancelled{
		ReservationID: r.ID,
		ListingID:     r.ListingID,
		Payee:         r.Payee,
		Deposit:       money.FormatLedgerAmount(r.Deposit),
	})
	return r, nil
}

// AttachReview stores a rating and review text on a reservation.
func (s *BookingService) AttachReview(ctx context.Context, id string, rating int, text string) (domain.Reservation, error) {
	if rating < 1 || rating > 5 {
		return domain.Reservation{}, domain.ErrInvalidRating
	}
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	if !s.allowEarlyReviews && r.Status != domain.StatusCompleted {
		return domain.Reservation{}, domain.ErrReviewNotAllowed
	}

	review := strings.TrimSpace(text)
	at := s.now().UTC()
	r, err = s.store.Update(ctx, id, store.Patch{Rating: &rating, Review: &review, ReviewedAt: &at})
	if err != nil {
		return domain.Reservation{}, err
	}

	s.publish(ctx, events.RKReservationReviewed, events.ReservationReviewed{
		ReservationID: r.ID,
		ListingID:     r.ListingID,
		Rating:        rating,
	})
	return r, nil
}

func (s *BookingService) Get(ctx context.Context, id string) (domain.Reservation, error) {
	return s.store.Get(ctx, id)
}

func (s *BookingService) List(ctx context.Context) ([]domain.Reservation, error) {
	return s.store.List(ctx)
}

// ForGuest returns the reservations paid by address.
func (s *BookingService) ForGuest(ctx context.Context, address string) ([]domain.Reservation, error) {
	return s.store.ListByPayer(ctx, address)
}

// ForHost returns the reservations on listings owned by address.
func (s *BookingService) ForHost(ctx context.Context, address string) ([]domain.Reservation, error) {
	return s.store.ListByPayee(ctx, address)
}

func (s *BookingService) publish(ctx context.Context, key string, v any) {
	if err := s.events.PublishJSON(ctx, key, v); err != nil {
		log.Printf("[booking] publish %s failed: %v", key, err)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrPaymentFailed):
		return "payment_failed"
	case errors.Is(err, domain.ErrPersistedAfterPaymentFailed):
		return "persist_failed"
	case errors.Is(err, domain.ErrInvalidDateRange), errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidGuests), errors.Is(err, domain.ErrGuestLimitExceeded),
		errors.Is(err, domain.ErrInvalidAddress):
		return "invalid"
	default:
		return "error"
	}
}
