package store

import (
	"context"

	"github.com/rickgao/agri-market/internal/model"
)

// Collection names.
const (
	CollectionListings = "listings"
	CollectionBids     = "bids"
	CollectionFarmers  = "farmers"
	CollectionCounters = "counters"
)

// Repository loads and saves whole collections. Saves replace the stored
// collection with the given records (last write wins).
type Repository interface {
	LoadListings(ctx context.Context) ([]model.Listing, error)
	SaveListings(ctx context.Context, listings []model.Listing) error

	LoadBids(ctx context.Context) ([]model.Bid, error)
	SaveBids(ctx context.Context, bids []model.Bid) error

	// NextListingID reserves and returns the next listing id.
	NextListingID(ctx context.Context) (int64, error)
}

// FarmerStore persists the owner directory.
type FarmerStore interface {
	LoadFarmers(ctx context.Context) ([]model.Farmer, error)
	SaveFarmers(ctx context.Context, farmers []model.Farmer) error
}

// Backend is a complete storage implementation.
type Backend interface {
	Repository
	FarmerStore
	Close() error
}

// LoadError wraps err as a load PersistenceError for collection.
func LoadError(collection string, err error) error {
	return &model.PersistenceError{Op: "load", Collection: collection, Err: err}
}

// SaveError wraps err as a save PersistenceError for collection.
func SaveError(collection string, err error) error {
	return &model.PersistenceError{Op: "save", Collection: collection, Err: err}
}

// MaxListingID returns the highest listing id, or 0 for an empty collection.
func MaxListingID(listings []model.Listing) int64 {
	var highest int64
	for _, l := range listings {
		if l.ID > highest {
			highest = l.ID
		}
	}
	return highest
}
