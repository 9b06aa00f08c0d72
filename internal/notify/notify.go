// Package notify derives a seller's ended-auction notifications from the
// listings and bid log. It never writes.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rickgao/agri-market/internal/clock"
	"github.com/rickgao/agri-market/internal/model"
	"github.com/rickgao/agri-market/internal/store"
)

// Notification summarises the outcome of one ended auction.
type Notification struct {
	ListingID int64
	Name      string
	Bid       *model.Bid // highest bid, nil when the auction drew none
	Text      string
}

// Deriver computes notifications.
type Deriver struct {
	repo   store.Repository
	clock  clock.Clock
	logger *slog.Logger
}

// Option configures a Deriver.
type Option func(*Deriver)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deriver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(d *Deriver) {
		d.clock = c
	}
}

// New creates a Deriver.
func New(repo store.Repository, opts ...Option) *Deriver {
	d := &Deriver{
		repo:   repo,
		clock:  clock.System{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Derive returns one notification per unsold auction of owner whose end time
// has passed, in listing order. An empty result is not an error.
func (d *Deriver) Derive(ctx context.Context, owner string) ([]Notification, error) {
	listings, err := d.repo.LoadListings(ctx)
	if err != nil {
		return nil, err
	}

	now := d.clock.Now()
	var ended []model.Listing
	for _, l := range listings {
		if l.Owner == owner && l.IsAuction && !l.Sold && l.Expired(now) {
			ended = append(ended, l)
		}
	}
	if len(ended) == 0 {
		return nil, nil
	}

	bids, err := d.repo.LoadBids(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Notification, 0, len(ended))
	for _, l := range ended {
		n := Notification{ListingID: l.ID, Name: l.Name}
		if best, ok := highestBid(bids, l.ID); ok {
			n.Bid = &best
			n.Text = fmt.Sprintf("Auction ended for %s. Highest bid: %s by %s", l.Name, best.Amount, best.Bidder)
		} else {
			n.Text = fmt.Sprintf("Auction ended for %s with no bids.", l.Name)
		}
		out = append(out, n)
	}

	d.logger.Debug("notifications derived", "owner", owner, "count", len(out))
	return out, nil
}

// highestBid returns the largest bid on listingID. Ties go to the earliest
// bid in stored order.
func highestBid(bids []model.Bid, listingID int64) (model.Bid, bool) {
	var (
		best  model.Bid
		found bool
	)
	for _, b := range bids {
		if b.ListingID != listingID {
			continue
		}
		if !found || b.Amount.GreaterThan(best.Amount) {
			best, found = b, true
		}
	}
	return best, found
}
