// Package postgres implements the storage backend on PostgreSQL via pgx.
//
// Whole-collection saves run in a single transaction: rows are upserted with a
// pgx.Batch and rows absent from the new collection are deleted.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rickgao/agri-market/internal/config"
	"github.com/rickgao/agri-market/internal/database"
	"github.com/rickgao/agri-market/internal/model"
	"github.com/rickgao/agri-market/internal/store"
	"github.com/shopspring/decimal"
)

// Store is a PostgreSQL storage backend.
type Store struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

var _ store.Backend = (*Store)(nil)

// Open connects using cfg and prepares the schema.
func Open(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*Store, error) {
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s, err := New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool and prepares the schema.
func New(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{db: pool, logger: logger}

	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := s.reconcileCounter(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadListings returns listings ordered by id, which is creation order.
func (s *Store) LoadListings(ctx context.Context) ([]model.Listing, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, farmer_username, name, description, quantity, quality,
		       price::text, is_auction, end_date, sold, created_at
		FROM listings
		ORDER BY id
	`)
	if err != nil {
		return nil, store.LoadError(store.CollectionListings, err)
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		var (
			l     model.Listing
			price string
			end   *time.Time
		)
		if err := rows.Scan(&l.ID, &l.Owner, &l.Name, &l.Description, &l.Quantity, &l.Quality,
			&price, &l.IsAuction, &end, &l.Sold, &l.CreatedAt); err != nil {
			return nil, store.LoadError(store.CollectionListings, err)
		}
		if l.Price, err = decimal.NewFromString(price); err != nil {
			return nil, store.LoadError(store.CollectionListings, fmt.Errorf("listing %d: price: %w", l.ID, err))
		}
		l.EndTime = end
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, store.LoadError(store.CollectionListings, err)
	}
	return listings, nil
}

// SaveListings replaces the listings table with listings.
func (s *Store) SaveListings(ctx context.Context, listings []model.Listing) error {
	ids := make([]int64, 0, len(listings))
	batch := &pgx.Batch{}
	for _, l := range listings {
		ids = append(ids, l.ID)
		batch.Queue(`
			INSERT INTO listings (id, farmer_username, name, description, quantity, quality,
			                      price, is_auction, end_date, sold, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				farmer_username = EXCLUDED.farmer_username,
				name            = EXCLUDED.name,
				description     = EXCLUDED.description,
				quantity        = EXCLUDED.quantity,
				quality         = EXCLUDED.quality,
				price           = EXCLUDED.price,
				is_auction      = EXCLUDED.is_auction,
				end_date        = EXCLUDED.end_date,
				sold            = EXCLUDED.sold,
				created_at      = EXCLUDED.created_at
		`, l.ID, l.Owner, l.Name, l.Description, l.Quantity, l.Quality,
			l.Price.String(), l.IsAuction, l.EndTime, l.Sold, l.CreatedAt)
	}

	err := s.replace(ctx, batch, `DELETE FROM listings WHERE NOT (id = ANY($1))`, ids)
	if err != nil {
		return store.SaveError(store.CollectionListings, err)
	}
	return nil
}

// LoadBids returns the bid log in insertion order.
func (s *Store) LoadBids(ctx context.Context) ([]model.Bid, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id::text, product_id, buyer_username, amount::text, timestamp
		FROM bids
		ORDER BY seq
	`)
	if err != nil {
		return nil, store.LoadError(store.CollectionBids, err)
	}
	defer rows.Close()

	var bids []model.Bid
	for rows.Next() {
		var (
			b          model.Bid
			id, amount string
		)
		if err := rows.Scan(&id, &b.ListingID, &b.Bidder, &amount, &b.Timestamp); err != nil {
			return nil, store.LoadError(store.CollectionBids, err)
		}
		if b.ID, err = uuid.Parse(id); err != nil {
			return nil, store.LoadError(store.CollectionBids, fmt.Errorf("bid id %q: %w", id, err))
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, store.LoadError(store.CollectionBids, fmt.Errorf("bid %s: amount: %w", b.ID, err))
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, store.LoadError(store.CollectionBids, err)
	}
	return bids, nil
}

// SaveBids replaces the bid log. Existing bids keep their position.
func (s *Store) SaveBids(ctx context.Context, bids []model.Bid) error {
	ids := make([]string, 0, len(bids))
	batch := &pgx.Batch{}
	for _, b := range bids {
		id := bidKey(b)
		ids = append(ids, id.String())
		batch.Queue(`
			INSERT INTO bids (id, product_id, buyer_username, amount, timestamp)
			VALUES ($1::uuid, $2, $3, $4::numeric, $5)
			ON CONFLICT (id) DO NOTHING
		`, id.String(), b.ListingID, b.Bidder, b.Amount.String(), b.Timestamp)
	}

	err := s.replace(ctx, batch, `DELETE FROM bids WHERE NOT (id = ANY($1::uuid[]))`, ids)
	if err != nil {
		return store.SaveError(store.CollectionBids, err)
	}
	return nil
}

// LoadFarmers returns the owner directory ordered by username.
func (s *Store) LoadFarmers(ctx context.Context) ([]model.Farmer, error) {
	rows, err := s.db.Query(ctx, `
		SELECT username, password_hash, name, location, phone, verified, certificates
		FROM farmers
		ORDER BY username
	`)
	if err != nil {
		return nil, store.LoadError(store.CollectionFarmers, err)
	}
	defer rows.Close()

	var farmers []model.Farmer
	for rows.Next() {
		var f model.Farmer
		if err := rows.Scan(&f.Username, &f.PasswordHash, &f.Name, &f.Location, &f.Phone,
			&f.Verified, &f.Certificates); err != nil {
			return nil, store.LoadError(store.CollectionFarmers, err)
		}
		if f.Certificates == nil {
			f.Certificates = []string{}
		}
		farmers = append(farmers, f)
	}
	if err := rows.Err(); err != nil {
		return nil, store.LoadError(store.CollectionFarmers, err)
	}
	return farmers, nil
}

// SaveFarmers replaces the owner directory.
func (s *Store) SaveFarmers(ctx context.Context, farmers []model.Farmer) error {
	names := make([]string, 0, len(farmers))
	batch := &pgx.Batch{}
	for _, f := range farmers {
		names = append(names, f.Username)
		certs := f.Certificates
		if certs == nil {
			certs = []string{}
		}
		batch.Queue(`
			INSERT INTO farmers (username, password_hash, name, location, phone, verified, certificates)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (username) DO UPDATE SET
				password_hash = EXCLUDED.password_hash,
				name          = EXCLUDED.name,
				location      = EXCLUDED.location,
				phone         = EXCLUDED.phone,
				verified      = EXCLUDED.verified,
				certificates  = EXCLUDED.certificates
		`, f.Username, f.PasswordHash, f.Name, f.Location, f.Phone, f.Verified, certs)
	}

	err := s.replace(ctx, batch, `DELETE FROM farmers WHERE NOT (username = ANY($1))`, names)
	if err != nil {
		return store.SaveError(store.CollectionFarmers, err)
	}
	return nil
}

// NextListingID atomically increments the listing counter.
func (s *Store) NextListingID(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO counters (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		RETURNING value
	`, store.CollectionListings).Scan(&id)
	if err != nil {
		return 0, store.SaveError(store.CollectionCounters, err)
	}
	return id, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

// reconcileCounter raises the listing counter to the highest stored id.
func (s *Store) reconcileCounter(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO counters (name, value)
		SELECT $1, COALESCE(MAX(id), 0) FROM listings
		ON CONFLICT (name) DO UPDATE SET value = GREATEST(counters.value, EXCLUDED.value)
	`, store.CollectionListings)
	if err != nil {
		return store.SaveError(store.CollectionCounters, err)
	}
	return nil
}

// replace runs the upsert batch and the prune statement in one transaction.
func (s *Store) replace(ctx context.Context, batch *pgx.Batch, prune string, keep any) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if batch.Len() > 0 {
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("upsert row %d: %w", i, err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("close batch: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, prune, keep); err != nil {
		return fmt.Errorf("prune: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// bidKey returns the bid's id, deriving a stable one for bids imported
// without an identity so repeated saves do not duplicate them.
func bidKey(b model.Bid) uuid.UUID {
	if b.ID != uuid.Nil {
		return b.ID
	}
	name := fmt.Sprintf("%d|%s|%s|%s", b.ListingID, b.Bidder, b.Amount.String(), store.FormatTime(b.Timestamp))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))
}
