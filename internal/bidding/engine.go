// Package bidding is the bid engine. It validates bids against auction
// listings and records accepted bids.
package bidding

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rickgao/agri-market/internal/clock"
	"github.com/rickgao/agri-market/internal/model"
	"github.com/rickgao/agri-market/internal/store"
	"github.com/shopspring/decimal"
)

// Engine places bids on auction listings.
type Engine struct {
	repo           store.Repository
	clock          clock.Clock
	logger         *slog.Logger
	acceptLateBids bool

	mu sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithLateBids keeps accepting bids after an auction's end time.
func WithLateBids(accept bool) Option {
	return func(e *Engine) {
		e.acceptLateBids = accept
	}
}

// New creates an Engine.
func New(repo store.Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:   repo,
		clock:  clock.System{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PlaceBid records a bid of amount by bidder on the listing with listingID.
// On success the listing's price becomes amount. Prices are never negative,
// so any amount not above the current price, including zero or a negative
// amount, fails with BidTooLowError. On any error neither the listing nor the
// bid log is changed.
func (e *Engine) PlaceBid(ctx context.Context, listingID int64, bidder string, amount decimal.Decimal) (model.Bid, error) {
	bidder = strings.TrimSpace(bidder)
	if bidder == "" {
		return model.Bid{}, model.NewValidationError("bidder", "must not be empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	listings, err := e.repo.LoadListings(ctx)
	if err != nil {
		return model.Bid{}, err
	}
	idx := -1
	for i := range listings {
		if listings[i].ID == listingID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Bid{}, &model.NotFoundError{ListingID: listingID}
	}
	listing := listings[idx]

	now := e.clock.Now()
	switch {
	case !listing.IsAuction:
		return model.Bid{}, &model.ValidationError{Field: "listing", Err: model.ErrNotAuction}
	case listing.Sold:
		return model.Bid{}, &model.ValidationError{Field: "listing", Err: model.ErrListingSold}
	case listing.Expired(now) && !e.acceptLateBids:
		return model.Bid{}, &model.ValidationError{Field: "listing", Err: model.ErrAuctionEnded}
	case !amount.GreaterThan(listing.Price):
		return model.Bid{}, &model.BidTooLowError{ListingID: listingID, Amount: amount, Current: listing.Price}
	}

	bids, err := e.repo.LoadBids(ctx)
	if err != nil {
		return model.Bid{}, err
	}

	bid := model.Bid{
		ID:        uuid.New(),
		ListingID: listingID,
		Bidder:    bidder,
		Amount:    amount,
		Timestamp: now,
	}

	updated := make([]model.Listing, len(listings))
	copy(updated, listings)
	updated[idx].Price = amount

	if err := e.repo.SaveListings(ctx, updated); err != nil {
		return model.Bid{}, err
	}
	if err := e.repo.SaveBids(ctx, append(bids, bid)); err != nil {
		if rbErr := e.repo.SaveListings(ctx, listings); rbErr != nil {
			e.logger.Error("failed to restore listings after bid save failure",
				"listing_id", listingID,
				"error", rbErr,
			)
		}
		return model.Bid{}, err
	}

	e.logger.Info("bid accepted",
		"listing_id", listingID,
		"bidder", bidder,
		"amount", amount.String(),
		"previous", listing.Price.String(),
	)
	return bid, nil
}

// Bids returns the bids placed on listingID in the order they were accepted.
func (e *Engine) Bids(ctx context.Context, listingID int64) ([]model.Bid, error) {
	bids, err := e.repo.LoadBids(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Bid
	for _, b := range bids {
		if b.ListingID == listingID {
			out = append(out, b)
		}
	}
	return out, nil
}

// Auctions returns unsold auction listings in creation order.
func (e *Engine) Auctions(ctx context.Context) ([]model.Listing, error) {
	listings, err := e.repo.LoadListings(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Listing
	for _, l := range listings {
		if l.IsAuction && !l.Sold {
			out = append(out, l)
		}
	}
	return out, nil
}
