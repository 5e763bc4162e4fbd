package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/stayledger/internal/domain"
	"github.com/punchamoorthee/stayledger/internal/gateway"
	"github.com/punchamoorthee/stayledger/internal/store"
)

var (
	checkIn  = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	checkOut = time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	before   = checkIn.AddDate(0, 0, -10)
)

const (
	guest = "GGUEST"
	host  = "GHOST"
)

var loft = domain.Listing{
	ID:           "1",
	Title:        "Bosphorus View Loft",
	Location:     "Istanbul",
	Owner:        host,
	NightlyPrice: 150,
	MaxGuests:    4,
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// fakeGateway answers balance checks and payments from canned values and
// counts how often each was called.
type fakeGateway struct {
	balance    decimal.Decimal
	assets     []domain.AssetBalance
	balanceErr error
	result     domain.PaymentResult
	sendErr    error

	balanceCalls int
	sendCalls    int
	last         domain.PaymentRequest
}

func (f *fakeGateway) Balance(_ context.Context, address string) (domain.Balance, error) {
	f.balanceCalls++
	if f.balanceErr != nil {
		return domain.Balance{}, f.balanceErr
	}
	return domain.Balance{Address: address, Available: f.balance, Assets: f.assets}, nil
}

func (f *fakeGateway) SendPayment(_ context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
	f.sendCalls++
	f.last = req
	return f.result, f.sendErr
}

func funded() *fakeGateway {
	return &fakeGateway{
		balance: decimal.NewFromInt(500),
		result:  domain.PaymentResult{Success: true, Hash: "abc123"},
	}
}

type published struct {
	key string
	v   any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) PublishJSON(_ context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{key: key, v: v})
	return nil
}

// brokenStore fails Append while delegating everything else.
type brokenStore struct {
	*store.ReservationStore
}

func (brokenStore) Append(context.Context, domain.Reservation) error {
	return errors.New("quota exceeded")
}

func newStore() *store.ReservationStore {
	return store.NewReservationStore(store.NewMemoryKV(), store.WithClock(fixedClock(before)))
}

func request() ReserveRequest {
	return ReserveRequest{Listing: loft, Payer: guest, CheckIn: checkIn, CheckOut: checkOut, Guests: 2}
}

func TestReserveSuccess(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	gw := funded()
	pub := &recordingPublisher{}
	svc := NewBookingService(st, gw, WithClock(fixedClock(before)), WithPublisher(pub))

	r, err := svc.Reserve(ctx, request())
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	if gw.sendCalls != 1 {
		t.Fatalf("SendPayment calls: got %d, want 1", gw.sendCalls)
	}
	want := domain.PaymentRequest{From: guest, To: host, Amount: "459.0000000", Asset: domain.NativeAsset, Memo: "BK1:250601-250604"}
	if gw.last != want {
		t.Errorf("payment: got %+v, want %+v", gw.last, want)
	}

	if r.ID != "abc123" || r.TxHash != "abc123" {
		t.Errorf("identifier: got id=%s hash=%s", r.ID, r.TxHash)
	}
	if r.Status != domain.StatusUpcoming {
		t.Errorf("status: got %s", r.Status)
	}
	if r.Nights != 3 || r.Subtotal != 450 || r.ServiceFee != 9 || r.GrandTotal != 459 || r.Deposit != 45 {
		t.Errorf("amounts: got %+v", r)
	}
	if r.ListingTitle != loft.Title || r.Payee != host {
		t.Errorf("listing snapshot: got %+v", r)
	}

	stored, err := st.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.GrandTotal != r.GrandTotal || stored.Memo != r.Memo {
		t.Errorf("stored record differs: %+v", stored)
	}

	if len(pub.events) != 1 || pub.events[0].key != "reservation.created" {
		t.Errorf("events: got %+v", pub.events)
	}
}

func TestReserveInsufficientFundsSubmitsNothing(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	gw := funded()
	gw.balance = decimal.NewFromInt(100)
	svc := NewBookingService(st, gw)

	_, err := svc.Reserve(ctx, request())

	var insufficient *domain.InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("got %v, want InsufficientFundsError", err)
	}
	if !insufficient.Required.Equal(decimal.NewFromInt(459)) || !insufficient.Available.Equal(decimal.NewFromInt(100)) {
		t.Errorf("got required=%s available=%s", insufficient.Required, insufficient.Available)
	}
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("errors.Is(ErrInsufficientFunds) = false")
	}
	if gw.sendCalls != 0 {
		t.Errorf("SendPayment calls: got %d, want 0", gw.sendCalls)
	}
	all, _ := st.List(ctx)
	if len(all) != 0 {
		t.Errorf("stored %d reservations, want 0", len(all))
	}
}

func TestReserveExactBalanceIsEnough(t *testing.T) {
	gw := funded()
	gw.balance = decimal.NewFromInt(459)
	svc := NewBookingService(newStore(), gw)

	if _, err := svc.Reserve(context.Background(), request()); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
}

func TestReserveRejectsBeforeAnyGatewayCall(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ReserveRequest)
		want   error
	}{
		{"zero guests", func(r *ReserveRequest) { r.Guests = 0 }, domain.ErrInvalidGuests},
		{"too many guests", func(r *ReserveRequest) { r.Guests = 5 }, domain.ErrGuestLimitExceeded},
		{"blank payer", func(r *ReserveRequest) { r.Payer = "  " }, domain.ErrInvalidAddress},
		{"check-out before check-in", func(r *ReserveRequest) { r.CheckOut = r.CheckIn.AddDate(0, 0, -1) }, domain.ErrInvalidDateRange},
		{"same day", func(r *ReserveRequest) { r.CheckOut = r.CheckIn }, domain.ErrInvalidDateRange},
		{"free listing", func(r *ReserveRequest) { r.Listing.NightlyPrice = 0 }, domain.ErrInvalidPrice},
		{"total overflows", func(r *ReserveRequest) { r.Listing.NightlyPrice = 1e308 }, domain.ErrInvalidPrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := funded()
			svc := NewBookingService(newStore(), gw)
			req := request()
			tt.mutate(&req)

			_, err := svc.Reserve(context.Background(), req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if gw.balanceCalls != 0 || gw.sendCalls != 0 {
				t.Errorf("gateway calls: balance=%d send=%d, want none", gw.balanceCalls, gw.sendCalls)
			}
		})
	}
}

func TestReservePaymentFailurePersistsNothing(t *testing.T) {
	tests := []struct {
		name       string
		result     domain.PaymentResult
		sendErr    error
		wantReason string
	}{
		{"rejected", domain.PaymentResult{Reason: gateway.ReasonUnderfunded}, nil, gateway.ReasonUnderfunded},
		{"transport", domain.PaymentResult{}, errors.New("connection reset"), "connection reset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			st := newStore()
			gw := funded()
			gw.result = tt.result
			gw.sendErr = tt.sendErr
			pub := &recordingPublisher{}
			svc := NewBookingService(st, gw, WithPublisher(pub))

			_, err := svc.Reserve(ctx, request())

			var failed *domain.PaymentFailedError
			if !errors.As(err, &failed) {
				t.Fatalf("got %v, want PaymentFailedError", err)
			}
			if failed.Reason != tt.wantReason {
				t.Errorf("reason: got %q, want %q", failed.Reason, tt.wantReason)
			}
			if gw.sendCalls != 1 {
				t.Errorf("SendPayment calls: got %d, want exactly 1", gw.sendCalls)
			}
			all, _ := st.List(ctx)
			if len(all) != 0 {
				t.Errorf("stored %d reservations, want 0", len(all))
			}
			if len(pub.events) != 0 {
				t.Errorf("published %d events, want 0", len(pub.events))
			}
		})
	}
}

func TestReserveBalanceLookupError(t *testing.T) {
	gw := funded()
	gw.balanceErr = errors.New("horizon unavailable")
	svc := NewBookingService(newStore(), gw)

	_, err := svc.Reserve(context.Background(), request())
	if err == nil || !errors.Is(err, gw.balanceErr) {
		t.Fatalf("got %v, want wrapped lookup error", err)
	}
	if gw.sendCalls != 0 {
		t.Errorf("SendPayment calls: got %d, want 0", gw.sendCalls)
	}
}

func TestReservePersistFailureAfterPayment(t *testing.T) {
	gw := funded()
	svc := NewBookingService(brokenStore{newStore()}, gw)

	_, err := svc.Reserve(context.Background(), request())

	var persist *domain.PersistenceAfterPaymentError
	if !errors.As(err, &persist) {
		t.Fatalf("got %v, want PersistenceAfterPaymentError", err)
	}
	if persist.TxHash != "abc123" {
		t.Errorf("tx hash: got %q", persist.TxHash)
	}
	if !errors.Is(err, domain.ErrPersistedAfterPaymentFailed) {
		t.Errorf("errors.Is(ErrPersistedAfterPaymentFailed) = false")
	}
	if gw.sendCalls != 1 {
		t.Errorf("SendPayment calls: got %d, want 1", gw.sendCalls)
	}
}

func TestReserveSurvivesCancelledContextAfterPayment(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	st := newStore()
	gw := &cancellingGateway{fakeGateway: funded(), cancel: cancel}
	svc := NewBookingService(st, gw)

	r, err := svc.Reserve(ctx, request())
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if _, err := st.Get(context.Background(), r.ID); err != nil {
		t.Errorf("reservation not persisted: %v", err)
	}
}

// cancellingGateway cancels the caller's context once the payment settles.
type cancellingGateway struct {
	*fakeGateway
	cancel context.CancelFunc
}

func (c *cancellingGateway) SendPayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
	res, err := c.fakeGateway.SendPayment(ctx, req)
	c.cancel()
	return res, err
}

func TestReserveAgainstMemoryLedger(t *testing.T) {
	ctx := context.Background()
	ledger := gateway.NewMemoryLedger()
	ledger.Fund(guest, decimal.NewFromInt(500))
	ledger.Fund(host, decimal.Zero)
	svc := NewBookingService(newStore(), ledger)

	r, err := svc.Reserve(ctx, request())
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	payments := ledger.Payments()
	if len(payments) != 1 || payments[0].Hash != r.TxHash {
		t.Fatalf("ledger payments: %+v", payments)
	}
	bal, _ := ledger.Balance(ctx, host)
	if !bal.Available.Equal(decimal.NewFromInt(459)) {
		t.Errorf("host balance: got %s", bal.Available)
	}

	// 41 left, not enough for a second stay.
	if _, err := svc.Reserve(ctx, request()); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("second reserve: got %v, want insufficient funds", err)
	}
}

func seeded(t *testing.T, opts ...Option) (*BookingService, string) {
	t.Helper()
	svc := NewBookingService(newStore(), funded(), append([]Option{WithClock(fixedClock(before))}, opts...)...)
	r, err := svc.Reserve(context.Background(), request())
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	return svc, r.ID
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, id := seeded(t, WithPublisher(pub))

	r, err := svc.Cancel(ctx, id)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if r.Status != domain.StatusCancelled || r.CancelledAt == nil {
		t.Errorf("got status=%s cancelledAt=%v", r.Status, r.CancelledAt)
	}
	if r.GrandTotal != 459 || r.Deposit != 45 {
		t.Errorf("amounts changed: %+v", r)
	}

	if _, err := svc.Cancel(ctx, id); !errors.Is(err, domain.ErrAlreadyCancelled) {
		t.Errorf("second cancel: got %v, want ErrAlreadyCancelled", err)
	}
	if _, err := svc.Cancel(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing: got %v, want ErrNotFound", err)
	}

	last := pub.events[len(pub.events)-1]
	if last.key != "reservation.cancelled" {
		t.Fatalf("last event: %s", last.key)
	}
}

func TestAttachReview(t *testing.T) {
	ctx := context.Background()
	svc, id := seeded(t)

	r, err := svc.AttachReview(ctx, id, 5, "  Lovely view  ")
	if err != nil {
		t.Fatalf("AttachReview: %v", err)
	}
	if r.Rating == nil || *r.Rating != 5 || r.Review != "Lovely view" || r.ReviewedAt == nil {
		t.Errorf("review not attached: %+v", r)
	}
	if r.GrandTotal != 459 || !r.CheckIn.Equal(checkIn) || !r.CheckOut.Equal(checkOut) {
		t.Errorf("review changed the stay: %+v", r)
	}

	for _, rating := range []int{0, 6, -1} {
		if _, err := svc.AttachReview(ctx, id, rating, "x"); !errors.Is(err, domain.ErrInvalidRating) {
			t.Errorf("rating %d: got %v, want ErrInvalidRating", rating, err)
		}
	}
	if _, err := svc.AttachReview(ctx, "missing", 4, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing: got %v, want ErrNotFound", err)
	}
}

func TestAttachReviewRequiresCompletedStayWhenEarlyReviewsOff(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	early := NewBookingService(store.NewReservationStore(kv, store.WithClock(fixedClock(before))), funded(),
		WithEarlyReviews(false))

	r, err := early.Reserve(ctx, request())
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if _, err := early.AttachReview(ctx, r.ID, 4, "early"); !errors.Is(err, domain.ErrReviewNotAllowed) {
		t.Fatalf("upcoming stay: got %v, want ErrReviewNotAllowed", err)
	}

	afterStay := fixedClock(checkOut.AddDate(0, 0, 1))
	later := NewBookingService(store.NewReservationStore(kv, store.WithClock(afterStay)), funded(),
		WithEarlyReviews(false), WithClock(afterStay))
	got, err := later.AttachReview(ctx, r.ID, 4, "after")
	if err != nil {
		t.Fatalf("completed stay: %v", err)
	}
	if got.Status != domain.StatusCompleted {
		t.Errorf("status: got %s", got.Status)
	}
}

func TestForGuestAndHost(t *testing.T) {
	ctx := context.Background()
	svc, id := seeded(t)

	mine, err := svc.ForGuest(ctx, guest)
	if err != nil || len(mine) != 1 || mine[0].ID != id {
		t.Fatalf("ForGuest: %v %+v", err, mine)
	}
	hosted, err := svc.ForHost(ctx, host)
	if err != nil || len(hosted) != 1 {
		t.Fatalf("ForHost: %v %+v", err, hosted)
	}
	none, _ := svc.ForGuest(ctx, host)
	if len(none) != 0 {
		t.Errorf("host has %d stays as guest", len(none))
	}
}

func TestConcurrentCancelSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, id := seeded(t, WithPublisher(pub))

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Cancel(ctx, id)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case !errors.Is(err, domain.ErrAlreadyCancelled):
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("successful cancels: got %d, want 1", succeeded)
	}

	cancelled := 0
	for _, e := range pub.events {
		if e.key == "reservation.cancelled" {
			cancelled++
		}
	}
	if cancelled != 1 {
		t.Errorf("cancel events: got %d, want 1", cancelled)
	}
}

func TestReserveChecksListingAssetBalance(t *testing.T) {
	usdc := loft
	usdc.Asset = "USDC"

	tests := []struct {
		name      string
		assets    []domain.AssetBalance
		wantErr   error
		available string
	}{
		{"no trust line", nil, domain.ErrInsufficientFunds, "0"},
		{"line too small", []domain.AssetBalance{{Code: "USDC", Balance: decimal.NewFromInt(100)}}, domain.ErrInsufficientFunds, "100"},
		{"line covers stay", []domain.AssetBalance{{Code: "USDC", Balance: decimal.NewFromInt(1000)}}, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := funded()
			gw.assets = tt.assets
			svc := NewBookingService(newStore(), gw)
			req := request()
			req.Listing = usdc

			_, err := svc.Reserve(context.Background(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				var insufficient *domain.InsufficientFundsError
				if !errors.As(err, &insufficient) || insufficient.Available.String() != tt.available {
					t.Errorf("available: got %v, want %s", err, tt.available)
				}
				if gw.sendCalls != 0 {
					t.Errorf("SendPayment calls: got %d, want 0", gw.sendCalls)
				}
				return
			}
			if gw.last.Asset != "USDC" {
				t.Errorf("payment asset: got %q", gw.last.Asset)
			}
		})
	}
}
