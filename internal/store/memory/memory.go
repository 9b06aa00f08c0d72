// Package memory provides an in-memory storage backend, used as a test double
// and by the "memory" backend setting.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/rickgao/agri-market/internal/model"
	"github.com/rickgao/agri-market/internal/store"
)

// Store keeps every collection in memory. Loads and saves copy slices so
// callers never share backing arrays with the store.
type Store struct {
	mu       sync.Mutex
	listings []model.Listing
	bids     []model.Bid
	farmers  []model.Farmer
	lastID   int64

	// Fail hooks let tests inject persistence failures per collection.
	FailLoad map[string]error
	FailSave map[string]error
}

var _ store.Backend = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		FailLoad: make(map[string]error),
		FailSave: make(map[string]error),
	}
}

// LoadListings returns a copy of the listings collection.
func (s *Store) LoadListings(ctx context.Context) ([]model.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailLoad[store.CollectionListings]; err != nil {
		return nil, store.LoadError(store.CollectionListings, err)
	}
	return cloneListings(s.listings), nil
}

// SaveListings replaces the listings collection.
func (s *Store) SaveListings(ctx context.Context, listings []model.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailSave[store.CollectionListings]; err != nil {
		return store.SaveError(store.CollectionListings, err)
	}
	s.listings = cloneListings(listings)
	if highest := store.MaxListingID(s.listings); highest > s.lastID {
		s.lastID = highest
	}
	return nil
}

// LoadBids returns a copy of the bid log.
func (s *Store) LoadBids(ctx context.Context) ([]model.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailLoad[store.CollectionBids]; err != nil {
		return nil, store.LoadError(store.CollectionBids, err)
	}
	return slices.Clone(s.bids), nil
}

// SaveBids replaces the bid log.
func (s *Store) SaveBids(ctx context.Context, bids []model.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailSave[store.CollectionBids]; err != nil {
		return store.SaveError(store.CollectionBids, err)
	}
	s.bids = slices.Clone(bids)
	return nil
}

// LoadFarmers returns a copy of the owner directory.
func (s *Store) LoadFarmers(ctx context.Context) ([]model.Farmer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailLoad[store.CollectionFarmers]; err != nil {
		return nil, store.LoadError(store.CollectionFarmers, err)
	}
	return slices.Clone(s.farmers), nil
}

// SaveFarmers replaces the owner directory.
func (s *Store) SaveFarmers(ctx context.Context, farmers []model.Farmer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailSave[store.CollectionFarmers]; err != nil {
		return store.SaveError(store.CollectionFarmers, err)
	}
	s.farmers = slices.Clone(farmers)
	return nil
}

// NextListingID reserves the next id. The counter never moves backwards,
// even when listings are removed.
func (s *Store) NextListingID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailSave[store.CollectionCounters]; err != nil {
		return 0, store.SaveError(store.CollectionCounters, err)
	}
	s.lastID++
	return s.lastID, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// cloneListings deep-copies listings, including EndTime pointers.
func cloneListings(in []model.Listing) []model.Listing {
	if in == nil {
		return nil
	}
	out := make([]model.Listing, len(in))
	for i, l := range in {
		if l.EndTime != nil {
			end := *l.EndTime
			l.EndTime = &end
		}
		out[i] = l
	}
	return out
}
