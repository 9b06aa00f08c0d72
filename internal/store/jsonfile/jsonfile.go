// Package jsonfile stores each collection as a flat JSON array in its own file.
//
// Files inside the data directory:
//   - listings.json, bids.json, farmers.json: arrays of records
//   - counters.json: {"listings": <last issued listing id>}
//
// Every write goes to a temporary file that is renamed over the target, so a
// reader never observes a half-written collection.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/rickgao/agri-market/internal/model"
	"github.com/rickgao/agri-market/internal/store"
)

// counters is the persisted shape of counters.json.
type counters struct {
	Listings int64 `json:"listings"`
}

// Store is a JSON-file storage backend.
type Store struct {
	dir    string
	logger *slog.Logger

	mu sync.Mutex
}

var _ store.Backend = (*Store)(nil)

// Open prepares dir, creating empty collection files that do not exist yet,
// and reconciles the listing counter with the highest stored id.
func Open(ctx context.Context, dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Store{dir: dir, logger: logger}

	for _, c := range []string{store.CollectionListings, store.CollectionBids, store.CollectionFarmers} {
		if err := s.ensureFile(c); err != nil {
			return nil, err
		}
	}

	if err := s.reconcileCounter(ctx); err != nil {
		return nil, err
	}

	logger.Debug("json store opened", "dir", dir)
	return s, nil
}

// LoadListings reads listings.json.
func (s *Store) LoadListings(ctx context.Context) ([]model.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadListingsLocked()
}

func (s *Store) loadListingsLocked() ([]model.Listing, error) {
	var records []store.ListingRecord
	if err := s.readJSON(store.CollectionListings, &records); err != nil {
		return nil, store.LoadError(store.CollectionListings, err)
	}

	listings := make([]model.Listing, 0, len(records))
	for _, r := range records {
		l, err := r.Listing()
		if err != nil {
			return nil, store.LoadError(store.CollectionListings, err)
		}
		listings = append(listings, l)
	}
	return listings, nil
}

// SaveListings rewrites listings.json.
func (s *Store) SaveListings(ctx context.Context, listings []model.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]store.ListingRecord, 0, len(listings))
	for _, l := range listings {
		records = append(records, store.ToListingRecord(l))
	}
	if err := s.writeJSON(store.CollectionListings, records); err != nil {
		return store.SaveError(store.CollectionListings, err)
	}
	return nil
}

// LoadBids reads bids.json.
func (s *Store) LoadBids(ctx context.Context) ([]model.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []store.BidRecord
	if err := s.readJSON(store.CollectionBids, &records); err != nil {
		return nil, store.LoadError(store.CollectionBids, err)
	}

	bids := make([]model.Bid, 0, len(records))
	for _, r := range records {
		b, err := r.Bid()
		if err != nil {
			return nil, store.LoadError(store.CollectionBids, err)
		}
		bids = append(bids, b)
	}
	return bids, nil
}

// SaveBids rewrites bids.json.
func (s *Store) SaveBids(ctx context.Context, bids []model.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]store.BidRecord, 0, len(bids))
	for _, b := range bids {
		records = append(records, store.ToBidRecord(b))
	}
	if err := s.writeJSON(store.CollectionBids, records); err != nil {
		return store.SaveError(store.CollectionBids, err)
	}
	return nil
}

// LoadFarmers reads farmers.json.
func (s *Store) LoadFarmers(ctx context.Context) ([]model.Farmer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []store.FarmerRecord
	if err := s.readJSON(store.CollectionFarmers, &records); err != nil {
		return nil, store.LoadError(store.CollectionFarmers, err)
	}

	farmers := make([]model.Farmer, 0, len(records))
	for _, r := range records {
		farmers = append(farmers, r.Farmer())
	}
	return farmers, nil
}

// SaveFarmers rewrites farmers.json.
func (s *Store) SaveFarmers(ctx context.Context, farmers []model.Farmer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]store.FarmerRecord, 0, len(farmers))
	for _, f := range farmers {
		records = append(records, store.ToFarmerRecord(f))
	}
	if err := s.writeJSON(store.CollectionFarmers, records); err != nil {
		return store.SaveError(store.CollectionFarmers, err)
	}
	return nil
}

// NextListingID increments and persists the listing counter.
func (s *Store) NextListingID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.readCounters()
	if err != nil {
		return 0, store.LoadError(store.CollectionCounters, err)
	}
	c.Listings++
	if err := s.writeJSON(store.CollectionCounters, c); err != nil {
		return 0, store.SaveError(store.CollectionCounters, err)
	}
	return c.Listings, nil
}

// Close is a no-op; files are not held open between calls.
func (s *Store) Close() error { return nil }

// reconcileCounter raises the stored counter to the highest listing id, so
// files written before counters.json existed never reissue an id.
func (s *Store) reconcileCounter(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listings, err := s.loadListingsLocked()
	if err != nil {
		return err
	}
	c, err := s.readCounters()
	if err != nil {
		return store.LoadError(store.CollectionCounters, err)
	}

	highest := store.MaxListingID(listings)
	if highest <= c.Listings {
		return nil
	}

	s.logger.Info("advancing listing counter to highest stored id",
		"from", c.Listings,
		"to", highest,
	)
	c.Listings = highest
	if err := s.writeJSON(store.CollectionCounters, c); err != nil {
		return store.SaveError(store.CollectionCounters, err)
	}
	return nil
}

func (s *Store) readCounters() (counters, error) {
	var c counters
	err := s.readJSON(store.CollectionCounters, &c)
	if errors.Is(err, fs.ErrNotExist) {
		return counters{}, nil
	}
	return c, err
}

func (s *Store) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

// ensureFile creates an empty collection file if none exists.
func (s *Store) ensureFile(collection string) error {
	_, err := os.Stat(s.path(collection))
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return store.LoadError(collection, err)
	}
	if err := s.writeJSON(collection, []struct{}{}); err != nil {
		return store.SaveError(collection, err)
	}
	return nil
}

func (s *Store) readJSON(collection string, v any) error {
	data, err := os.ReadFile(s.path(collection))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(s.path(collection)), err)
	}
	return nil
}

// writeJSON writes v to a temp file and renames it over the collection file.
func (s *Store) writeJSON(collection string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+collection+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(collection)); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(s.path(collection)), err)
	}
	return nil
}
