// Package registry is the listing registry: it creates listings, answers
// active-listing queries and reports auction time remaining.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rickgao/agri-market/internal/clock"
	"github.com/rickgao/agri-market/internal/model"
	"github.com/rickgao/agri-market/internal/store"
	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// MaxDurationDays is the longest auction whose end time fits in a time.Duration.
const MaxDurationDays = int(math.MaxInt64 / int64(day))

// OwnerDirectory resolves a seller to their directory entry.
type OwnerDirectory interface {
	FindOwner(ctx context.Context, username string) (model.Owner, bool, error)
}

// CreateRequest describes a new listing.
type CreateRequest struct {
	Owner        string
	Name         string
	Description  string
	Quantity     string
	Quality      string
	Mode         model.SaleMode
	Price        decimal.Decimal // fixed price, or starting price for auctions
	DurationDays int             // auctions only
}

// Registry creates and queries listings.
type Registry struct {
	repo   store.Repository
	owners OwnerDirectory
	clock  clock.Clock
	logger *slog.Logger

	// mu serialises read-modify-write cycles on the listings collection.
	mu sync.Mutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(r *Registry) {
		r.clock = c
	}
}

// New creates a Registry.
func New(repo store.Repository, owners OwnerDirectory, opts ...Option) *Registry {
	r := &Registry{
		repo:   repo,
		owners: owners,
		clock:  clock.System{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create validates req and appends a new, unsold listing.
func (r *Registry) Create(ctx context.Context, req CreateRequest) (model.Listing, error) {
	if strings.TrimSpace(req.Owner) == "" {
		return model.Listing{}, model.NewValidationError("owner", "must not be empty")
	}
	if !req.Mode.Valid() {
		return model.Listing{}, model.NewValidationError("mode", "must be fixed_price or auction")
	}
	if req.Price.IsNegative() {
		return model.Listing{}, model.NewValidationError("price", "must not be negative")
	}
	if req.Mode == model.Auction && req.DurationDays <= 0 {
		return model.Listing{}, model.NewValidationError("duration", "must be a positive number of days")
	}
	if req.Mode == model.Auction && req.DurationDays > MaxDurationDays {
		return model.Listing{}, model.NewValidationError("duration", fmt.Sprintf("must be at most %d days", MaxDurationDays))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	listings, err := r.repo.LoadListings(ctx)
	if err != nil {
		return model.Listing{}, err
	}

	id, err := r.repo.NextListingID(ctx)
	if err != nil {
		return model.Listing{}, err
	}

	now := r.clock.Now()
	l := model.Listing{
		ID:          id,
		Owner:       req.Owner,
		Name:        req.Name,
		Description: req.Description,
		Quantity:    req.Quantity,
		Quality:     req.Quality,
		Price:       req.Price,
		IsAuction:   req.Mode == model.Auction,
		CreatedAt:   now,
	}
	if l.IsAuction {
		end := now.Add(time.Duration(req.DurationDays) * day)
		l.EndTime = &end
	}

	if err := r.repo.SaveListings(ctx, append(listings, l)); err != nil {
		return model.Listing{}, err
	}

	r.logger.Info("listing created",
		"listing_id", l.ID,
		"owner", l.Owner,
		"mode", l.Mode(),
		"price", l.Price.String(),
	)
	return l, nil
}

// ListByOwner returns all of owner's listings, sold or not, in creation order.
func (r *Registry) ListByOwner(ctx context.Context, owner string) ([]model.Listing, error) {
	listings, err := r.repo.LoadListings(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Listing
	for _, l := range listings {
		if l.Owner == owner {
			out = append(out, l)
		}
	}
	return out, nil
}

// Get returns the listing with id.
func (r *Registry) Get(ctx context.Context, id int64) (model.Listing, error) {
	listings, err := r.repo.LoadListings(ctx)
	if err != nil {
		return model.Listing{}, err
	}
	for _, l := range listings {
		if l.ID == id {
			return l, nil
		}
	}
	return model.Listing{}, &model.NotFoundError{ListingID: id}
}

// RemainingTime returns how long an auction has left. It returns
// ErrAuctionExpired once the end time has been reached.
func (r *Registry) RemainingTime(l model.Listing) (time.Duration, error) {
	if !l.IsAuction || l.EndTime == nil {
		return 0, &model.ValidationError{Field: "listing", Err: model.ErrNotAuction}
	}
	left := l.EndTime.Sub(r.clock.Now())
	if left <= 0 {
		return 0, model.ErrAuctionExpired
	}
	return left, nil
}
