package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rickgao/agri-market/internal/model"
	"github.com/rickgao/agri-market/internal/store"
)

func TestStore_ListingsAreCopied(t *testing.T) {
	ctx := context.Background()
	s := New()

	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	in := []model.Listing{{ID: 1, Name: "Maize", IsAuction: true, EndTime: &end}}
	if err := s.SaveListings(ctx, in); err != nil {
		t.Fatalf("SaveListings: %v", err)
	}

	// Mutating the caller's slice must not leak into the store.
	in[0].Name = "changed"
	*in[0].EndTime = end.Add(time.Hour)

	got, err := s.LoadListings(ctx)
	if err != nil {
		t.Fatalf("LoadListings: %v", err)
	}
	if got[0].Name != "Maize" {
		t.Errorf("Name = %q, want %q", got[0].Name, "Maize")
	}
	if !got[0].EndTime.Equal(end) {
		t.Errorf("EndTime = %v, want %v", *got[0].EndTime, end)
	}
}

func TestStore_NextListingIDMonotonic(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.SaveListings(ctx, []model.Listing{{ID: 4}}); err != nil {
		t.Fatalf("SaveListings: %v", err)
	}

	id, err := s.NextListingID(ctx)
	if err != nil {
		t.Fatalf("NextListingID: %v", err)
	}
	if id != 5 {
		t.Errorf("NextListingID() = %d, want 5", id)
	}

	// Deleting every listing must not cause id reuse.
	if err := s.SaveListings(ctx, nil); err != nil {
		t.Fatalf("SaveListings: %v", err)
	}
	id, err = s.NextListingID(ctx)
	if err != nil {
		t.Fatalf("NextListingID: %v", err)
	}
	if id != 6 {
		t.Errorf("NextListingID() after delete = %d, want 6", id)
	}
}

func TestStore_FailHooks(t *testing.T) {
	ctx := context.Background()
	s := New()
	cause := errors.New("disk full")
	s.FailSave[store.CollectionBids] = cause

	err := s.SaveBids(ctx, []model.Bid{{ListingID: 1}})
	if !model.IsPersistence(err) {
		t.Fatalf("SaveBids error = %v, want PersistenceError", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("SaveBids error does not wrap cause: %v", err)
	}

	bids, err := s.LoadBids(ctx)
	if err != nil {
		t.Fatalf("LoadBids: %v", err)
	}
	if len(bids) != 0 {
		t.Errorf("len(bids) = %d, want 0 after failed save", len(bids))
	}
}
