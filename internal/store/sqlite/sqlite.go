// Package sqlite implements the storage backend on a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rickgao/agri-market/internal/model"
	"github.com/rickgao/agri-market/internal/store"
	"github.com/shopspring/decimal"
)

const schema = `
CREATE TABLE IF NOT EXISTS listings (
	id              INTEGER PRIMARY KEY,
	farmer_username TEXT NOT NULL,
	name            TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	quantity        TEXT NOT NULL DEFAULT '',
	quality         TEXT NOT NULL DEFAULT '',
	price           TEXT NOT NULL,
	is_auction      INTEGER NOT NULL,
	end_date        TEXT,
	sold            INTEGER NOT NULL DEFAULT 0,
	created_at      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS bids (
	seq            INTEGER PRIMARY KEY AUTOINCREMENT,
	id             TEXT NOT NULL,
	product_id     INTEGER NOT NULL,
	buyer_username TEXT NOT NULL,
	amount         TEXT NOT NULL,
	timestamp      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS farmers (
	username      TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	name          TEXT NOT NULL,
	location      TEXT NOT NULL DEFAULT '',
	phone         TEXT NOT NULL DEFAULT '',
	verified      INTEGER NOT NULL DEFAULT 0,
	certificates  TEXT NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS counters (
	name  TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
`

// Store is a SQLite storage backend. Prices and timestamps are kept as text
// in the same formats the JSON files use.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ store.Backend = (*Store)(nil)

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection serialises writers and keeps transactions simple.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.reconcileCounter(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("sqlite store opened", "path", path)
	return s, nil
}

// LoadListings returns listings ordered by id.
func (s *Store) LoadListings(ctx context.Context) ([]model.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, farmer_username, name, description, quantity, quality,
		       price, is_auction, end_date, sold, created_at
		FROM listings ORDER BY id
	`)
	if err != nil {
		return nil, store.LoadError(store.CollectionListings, err)
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		var (
			r   store.ListingRecord
			raw string
		)
		if err := rows.Scan(&r.ID, &r.FarmerUsername, &r.Name, &r.Description, &r.Quantity, &r.Quality,
			&raw, &r.IsAuction, &r.EndDate, &r.Sold, &r.CreatedAt); err != nil {
			return nil, store.LoadError(store.CollectionListings, err)
		}
		r.Price = json.Number(raw)
		l, err := r.Listing()
		if err != nil {
			return nil, store.LoadError(store.CollectionListings, err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, store.LoadError(store.CollectionListings, err)
	}
	return listings, nil
}

// SaveListings replaces the listings table.
func (s *Store) SaveListings(ctx context.Context, listings []model.Listing) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM listings`); err != nil {
			return err
		}
		for _, l := range listings {
			r := store.ToListingRecord(l)
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO listings (id, farmer_username, name, description, quantity, quality,
				                      price, is_auction, end_date, sold, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, r.ID, r.FarmerUsername, r.Name, r.Description, r.Quantity, r.Quality,
				r.Price.String(), r.IsAuction, r.EndDate, r.Sold, r.CreatedAt); err != nil {
				return fmt.Errorf("insert listing %d: %w", r.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return store.SaveError(store.CollectionListings, err)
	}
	return nil
}

// LoadBids returns the bid log in insertion order.
func (s *Store) LoadBids(ctx context.Context) ([]model.Bid, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, buyer_username, amount, timestamp
		FROM bids ORDER BY seq
	`)
	if err != nil {
		return nil, store.LoadError(store.CollectionBids, err)
	}
	defer rows.Close()

	var bids []model.Bid
	for rows.Next() {
		var (
			id, amount, ts string
			b              model.Bid
		)
		if err := rows.Scan(&id, &b.ListingID, &b.Bidder, &amount, &ts); err != nil {
			return nil, store.LoadError(store.CollectionBids, err)
		}
		if id != "" {
			if b.ID, err = uuid.Parse(id); err != nil {
				return nil, store.LoadError(store.CollectionBids, fmt.Errorf("bid id %q: %w", id, err))
			}
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, store.LoadError(store.CollectionBids, fmt.Errorf("bid amount %q: %w", amount, err))
		}
		if b.Timestamp, err = store.ParseTime(ts); err != nil {
			return nil, store.LoadError(store.CollectionBids, err)
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, store.LoadError(store.CollectionBids, err)
	}
	return bids, nil
}

// SaveBids replaces the bid log, preserving the given order.
func (s *Store) SaveBids(ctx context.Context, bids []model.Bid) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM bids`); err != nil {
			return err
		}
		for _, b := range bids {
			var id string
			if b.ID != uuid.Nil {
				id = b.ID.String()
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO bids (id, product_id, buyer_username, amount, timestamp)
				VALUES (?, ?, ?, ?, ?)
			`, id, b.ListingID, b.Bidder, b.Amount.String(), store.FormatTime(b.Timestamp)); err != nil {
				return fmt.Errorf("insert bid: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return store.SaveError(store.CollectionBids, err)
	}
	return nil
}

// LoadFarmers returns the owner directory ordered by username.
func (s *Store) LoadFarmers(ctx context.Context) ([]model.Farmer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password_hash, name, location, phone, verified, certificates
		FROM farmers ORDER BY username
	`)
	if err != nil {
		return nil, store.LoadError(store.CollectionFarmers, err)
	}
	defer rows.Close()

	var farmers []model.Farmer
	for rows.Next() {
		var (
			f     model.Farmer
			certs string
		)
		if err := rows.Scan(&f.Username, &f.PasswordHash, &f.Name, &f.Location, &f.Phone,
			&f.Verified, &certs); err != nil {
			return nil, store.LoadError(store.CollectionFarmers, err)
		}
		if err := json.Unmarshal([]byte(certs), &f.Certificates); err != nil {
			return nil, store.LoadError(store.CollectionFarmers, fmt.Errorf("farmer %s certificates: %w", f.Username, err))
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
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM farmers`); err != nil {
			return err
		}
		for _, f := range farmers {
			r := store.ToFarmerRecord(f)
			certs, err := json.Marshal(r.Certificates)
			if err != nil {
				return fmt.Errorf("marshal certificates: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO farmers (username, password_hash, name, location, phone, verified, certificates)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, r.Username, r.PasswordHash, r.Name, r.Location, r.Phone, r.Verified, string(certs)); err != nil {
				return fmt.Errorf("insert farmer %s: %w", r.Username, err)
			}
		}
		return nil
	})
	if err != nil {
		return store.SaveError(store.CollectionFarmers, err)
	}
	return nil
}

// NextListingID increments and returns the listing counter.
func (s *Store) NextListingID(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO counters (name, value) VALUES (?, 1)
		ON CONFLICT (name) DO UPDATE SET value = value + 1
		RETURNING value
	`, store.CollectionListings).Scan(&id)
	if err != nil {
		return 0, store.SaveError(store.CollectionCounters, err)
	}
	return id, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) reconcileCounter(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO counters (name, value)
		SELECT ?, COALESCE(MAX(id), 0) FROM listings WHERE true
		ON CONFLICT (name) DO UPDATE SET value = MAX(value, excluded.value)
	`, store.CollectionListings)
	if err != nil {
		return store.SaveError(store.CollectionCounters, err)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
