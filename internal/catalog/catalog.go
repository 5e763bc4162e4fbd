// Package catalog supplies listings to the booking engine. The catalog itself
// is owned elsewhere; the engine only reads from it.
package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/punchamoorthee/stayledger/internal/domain"
)

type Catalog interface {
	Listing(ctx context.Context, id string) (domain.Listing, error)
	Listings(ctx context.Context) ([]domain.Listing, error)
}

// Memory is a fixed in-process catalog.
type Memory struct {
	mu       sync.RWMutex
	listings map[string]domain.Listing
}

func NewMemory(listings ...domain.Listing) *Memory {
	m := &Memory{listings: make(map[string]domain.Listing, len(listings))}
	for _, l := range listings {
		m.listings[l.ID] = l
	}
	return m
}

func (m *Memory) Put(l domain.Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[l.ID] = l
}

func (m *Memory) Listing(_ context.Context, id string) (domain.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.listings[id]
	if !ok {
		return domain.Listing{}, domain.ErrListingNotFound
	}
	return l, nil
}

func (m *Memory) Listings(_ context.Context) ([]domain.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Listing, 0, len(m.listings))
	for _, l := range m.listings {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SampleListings is the demo inventory loaded by cmd/api and cmd/seeder.
func SampleListings() []domain.Listing {
	const host = "GBXHOSTDEMO7QKX3ZP2V5N4JLR6TYUWA8SDFGHJKLMNBVCXZQWERTY"
	return []domain.Listing{
		{ID: "1", Title: "Bosphorus View Loft", Location: "Istanbul, Beşiktaş", Owner: host, NightlyPrice: 150, MaxGuests: 4},
		{ID: "2", Title: "Stone House by the Sea", Location: "Bodrum, Gümüşlük", Owner: host, NightlyPrice: 220, MaxGuests: 6},
		{ID: "3", Title: "Cave Suite", Location: "Cappadocia, Göreme", Owner: host, NightlyPrice: 95.5, MaxGuests: 2},
		{ID: "4", Title: "Old Town Studio", Location: "Antalya, Kaleiçi", Owner: host, NightlyPrice: 60, MaxGuests: 2},
		{ID: "5", Title: "Mountain Chalet", Location: "Bursa, Uludağ", Owner: host, NightlyPrice: 310, MaxGuests: 8},
	}
}
