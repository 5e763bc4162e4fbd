package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/punchamoorthee/stayledger/internal/domain"
)

// Schema is the listings table read by Postgres and filled by cmd/seeder.
const Schema = `
CREATE TABLE IF NOT EXISTS listings (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	location      TEXT NOT NULL DEFAULT '',
	owner         TEXT NOT NULL,
	nightly_price NUMERIC(20,7) NOT NULL CHECK (nightly_price > 0),
	max_guests    INTEGER NOT NULL CHECK (max_guests > 0),
	asset         TEXT NOT NULL DEFAULT 'XLM'
)`

type Postgres struct {
	Db *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{Db: pool}
}

const listingColumns = "id, title, location, owner, nightly_price::float8, max_guests, asset"

func scanListing(row pgx.Row) (domain.Listing, error) {
	var l domain.Listing
	err := row.Scan(&l.ID, &l.Title, &l.Location, &l.Owner, &l.NightlyPrice, &l.MaxGuests, &l.Asset)
	return l, err
}

func (p *Postgres) Listing(ctx context.Context, id string) (domain.Listing, error) {
	l, err := scanListing(p.Db.QueryRow(ctx, "SELECT "+listingColumns+" FROM listings WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Listing{}, domain.ErrListingNotFound
	}
	if err != nil {
		return domain.Listing{}, fmt.Errorf("listing %s: %w", id, err)
	}
	return l, nil
}

func (p *Postgres) Listings(ctx context.Context) ([]domain.Listing, error) {
	rows, err := p.Db.Query(ctx, "SELECT "+listingColumns+" FROM listings ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
