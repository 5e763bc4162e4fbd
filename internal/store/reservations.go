package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/punchamoorthee/stayledger/internal/domain"
	"github.com/punchamoorthee/stayledger/internal/lifecycle"
)

// DefaultKey is the KV entry holding the reservation array.
const DefaultKey = "stayledger-bookings"

// Patch lists the fields Update may change. Nil fields are left alone.
// Dates and amounts are deliberately absent.
type Patch struct {
	Status      *domain.Status
	Rating      *int
	Review      *string
	ReviewedAt  *time.Time
	CancelledAt *time.Time
}

// ReservationStore keeps every reservation in a single JSON array under one
// KV key. Each write reads the whole collection, mutates it and writes it
// back. Writes within this process are serialized; separate processes sharing
// the backend race and the last writer wins.
type ReservationStore struct {
	mu  sync.Mutex
	kv  KV
	key string
	now func() time.Time
}

type Option func(*ReservationStore)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *ReservationStore) { s.key = key }
}

// WithClock sets the clock used to re-derive statuses on read.
func WithClock(now func() time.Time) Option {
	return func(s *ReservationStore) { s.now = now }
}

func NewReservationStore(kv KV, opts ...Option) *ReservationStore {
	s := &ReservationStore{kv: kv, key: DefaultKey, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ReservationStore) read(ctx context.Context) ([]domain.Reservation, error) {
	raw, err := s.kv.Load(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}
	if len(raw) == 0 {
		return []domain.Reservation{}, nil
	}
	var out []domain.Reservation
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode reservations: %w", err)
	}
	return out, nil
}

func (s *ReservationStore) write(ctx context.Context, all []domain.Reservation) error {
	raw, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("encode reservations: %w", err)
	}
	if err := s.kv.Save(ctx, s.key, raw); err != nil {
		return fmt.Errorf("save reservations: %w", err)
	}
	return nil
}

// List returns all reservations, newest first, with statuses re-derived at
// the store's clock. Changed statuses are written back before returning.
func (s *ReservationStore) List(ctx context.Context) ([]domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	changed := 0
	for i := range all {
		next := lifecycle.Resolve(all[i].Status, all[i].CheckIn, all[i].CheckOut, now)
		if next != all[i].Status {
			all[i].Status = next
			changed++
		}
	}
	if changed > 0 {
		if err := s.write(ctx, all); err != nil {
			return nil, err
		}
		log.Printf("[store] re-derived %d reservation statuses", changed)
	}
	return all, nil
}

// Get returns a single reservation, with its status re-derived.
func (s *ReservationStore) Get(ctx context.Context, id string) (domain.Reservation, error) {
	all, err := s.List(ctx)
	if err != nil {
		return domain.Reservation{}, err
	}
	for _, r := range all {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Reservation{}, domain.ErrNotFound
}

// ListByPayer returns the reservations paid for by address.
func (s *ReservationStore) ListByPayer(ctx context.Context, address string) ([]domain.Reservation, error) {
	return s.filter(ctx, func(r domain.Reservation) bool { return r.Payer == address })
}

// ListByPayee returns the reservations hosted by address.
func (s *ReservationStore) ListByPayee(ctx context.Context, address string) ([]domain.Reservation, error) {
	return s.filter(ctx, func(r domain.Reservation) bool { return r.Payee == address })
}

func (s *ReservationStore) filter(ctx context.Context, keep func(domain.Reservation) bool) ([]domain.Reservation, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Reservation, 0, len(all))
	for _, r := range all {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Append inserts r at the head of the collection.
func (s *ReservationStore) Append(ctx context.Context, r domain.Reservation) error {
	if r.ID == "" {
		return fmt.Errorf("append reservation: empty identifier")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read(ctx)
	if err != nil {
		return err
	}
	for _, existing := range all {
		if existing.ID == r.ID {
			return domain.ErrDuplicateIdentifier
		}
	}

	next := make([]domain.Reservation, 0, len(all)+1)
	next = append(next, r)
	next = append(next, all...)
	return s.write(ctx, next)
}

// Update applies p to the reservation with the given id and returns the result.
func (s *ReservationStore) Update(ctx context.Context, id string, p Patch) (domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read(ctx)
	if err != nil {
		return domain.Reservation{}, err
	}

	for i := range all {
		if all[i].ID != id {
			continue
		}
		r := &all[i]
		if p.Status != nil {
			r.Status = *p.Status
		}
		if p.Rating != nil {
			rating := *p.Rating
			r.Rating = &rating
		}
		if p.Review != nil {
			r.Review = *p.Review
		}
		if p.ReviewedAt != nil {
			at := *p.ReviewedAt
			r.ReviewedAt = &at
		}
		if p.CancelledAt != nil {
			at := *p.CancelledAt
			r.CancelledAt = &at
		}
		if err := s.write(ctx, all); err != nil {
			return domain.Reservation{}, err
		}
		return *r, nil
	}
	return domain.Reservation{}, domain.ErrNotFound
}

// Cancel marks the reservation cancelled. Records are never deleted. The
// already-cancelled check runs under the write lock, so of two concurrent
// cancels exactly one succeeds.
func (s *ReservationStore) Cancel(ctx context.Context, id string, at time.Time) (domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read(ctx)
	if err != nil {
		return domain.Reservation{}, err
	}
	for i := range all {
		if all[i].ID != id {
			continue
		}
		if all[i].Status == domain.StatusCancelled {
			return domain.Reservation{}, domain.ErrAlreadyCancelled
		}
		cancelledAt := at
		all[i].Status = domain.StatusCancelled
		all[i].CancelledAt = &cancelledAt
		if err := s.write(ctx, all); err != nil {
			return domain.Reservation{}, err
		}
		return all[i], nil
	}
	return domain.Reservation{}, domain.ErrNotFound
}
