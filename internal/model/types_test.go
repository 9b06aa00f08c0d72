package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestListingMode(t *testing.T) {
	end := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	t.Run("fixed price", func(t *testing.T) {
		l := Listing{ID: 1, Price: decimal.NewFromInt(40)}
		if l.Mode() != FixedPrice {
			t.Errorf("Mode() = %q, want %q", l.Mode(), FixedPrice)
		}
		if l.Expired(end.Add(24 * time.Hour)) {
			t.Error("fixed-price listing should never expire")
		}
	})

	t.Run("auction", func(t *testing.T) {
		l := Listing{ID: 2, IsAuction: true, EndTime: &end}
		if l.Mode() != Auction {
			t.Errorf("Mode() = %q, want %q", l.Mode(), Auction)
		}
	})
}

func TestListingExpired(t *testing.T) {
	end := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	l := Listing{ID: 1, IsAuction: true, EndTime: &end}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before end", end.Add(-time.Second), false},
		{"at end", end, true},
		{"after end", end.Add(time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.Expired(tt.now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSaleModeValid(t *testing.T) {
	tests := []struct {
		mode SaleMode
		want bool
	}{
		{FixedPrice, true},
		{Auction, true},
		{"", false},
		{"barter", false},
	}

	for _, tt := range tests {
		if got := tt.mode.Valid(); got != tt.want {
			t.Errorf("SaleMode(%q).Valid() = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestFarmerOwner(t *testing.T) {
	f := Farmer{Username: "asha", Name: "Asha Rao", Location: "Mysuru", PasswordHash: "x"}
	o := f.Owner()
	if o.Username != "asha" || o.DisplayName != "Asha Rao" || o.Location != "Mysuru" {
		t.Errorf("Owner() = %+v", o)
	}
}

func TestErrorMatching(t *testing.T) {
	t.Run("validation wraps sentinel", func(t *testing.T) {
		err := fmt.Errorf("place bid: %w", &ValidationError{Field: "listing_id", Err: ErrNotAuction})
		if !IsValidation(err) {
			t.Error("IsValidation() = false, want true")
		}
		if !errors.Is(err, ErrNotAuction) {
			t.Error("errors.Is(err, ErrNotAuction) = false, want true")
		}
		if got, want := err.Error(), "place bid: invalid listing_id: listing is not an auction"; got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
	})

	t.Run("bid too low", func(t *testing.T) {
		err := &BidTooLowError{ListingID: 3, Amount: decimal.NewFromInt(90), Current: decimal.NewFromInt(100)}
		if !IsBidTooLow(err) {
			t.Error("IsBidTooLow() = false, want true")
		}
		if IsValidation(err) {
			t.Error("BidTooLowError must not match ValidationError")
		}
		if got, want := err.Error(), "bid 90 on listing 3 must be higher than 100"; got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
	})

	t.Run("persistence unwraps", func(t *testing.T) {
		cause := errors.New("disk full")
		err := &PersistenceError{Op: "save", Collection: "bids", Err: cause}
		if !errors.Is(err, cause) {
			t.Error("errors.Is(err, cause) = false, want true")
		}
		if !IsPersistence(fmt.Errorf("wrapped: %w", err)) {
			t.Error("IsPersistence() = false, want true")
		}
	})

	t.Run("not found", func(t *testing.T) {
		if !IsNotFound(&NotFoundError{ListingID: 9}) {
			t.Error("IsNotFound() = false, want true")
		}
	})
}
