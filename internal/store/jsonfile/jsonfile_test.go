package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rickgao/agri-market/internal/model"
	"github.com/shopspring/decimal"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, dir
}

func TestOpen_CreatesEmptyCollections(t *testing.T) {
	_, dir := openTemp(t)

	for _, name := range []string{"listings.json", "bids.json", "farmers.json"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		var arr []any
		if err := json.Unmarshal(data, &arr); err != nil {
			t.Fatalf("%s is not a JSON array: %v", name, err)
		}
		if len(arr) != 0 {
			t.Errorf("%s has %d records, want 0", name, len(arr))
		}
	}
}

func TestStore_ListingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	end := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)
	in := []model.Listing{
		{ID: 1, Owner: "asha", Name: "Rice", Price: decimal.NewFromInt(40), CreatedAt: end},
		{ID: 2, Owner: "ravi", Name: "Mango", Price: decimal.RequireFromString("99.95"), IsAuction: true, EndTime: &end, CreatedAt: end},
	}
	if err := s.SaveListings(ctx, in); err != nil {
		t.Fatalf("SaveListings: %v", err)
	}

	got, err := s.LoadListings(ctx)
	if err != nil {
		t.Fatalf("LoadListings: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(listings) = %d, want 2", len(got))
	}
	if got[0].Name != "Rice" || got[1].Name != "Mango" {
		t.Errorf("insertion order not preserved: %q, %q", got[0].Name, got[1].Name)
	}
	if !got[1].Price.Equal(in[1].Price) {
		t.Errorf("Price = %s, want %s", got[1].Price, in[1].Price)
	}
	if got[0].EndTime != nil {
		t.Error("fixed-price listing loaded with an EndTime")
	}
	if got[1].EndTime == nil || !got[1].EndTime.Equal(end) {
		t.Errorf("EndTime = %v, want %v", got[1].EndTime, end)
	}
}

func TestStore_BidsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	in := []model.Bid{
		{ID: uuid.New(), ListingID: 2, Bidder: "mina", Amount: decimal.NewFromInt(120), Timestamp: time.Now().UTC()},
		{ID: uuid.New(), ListingID: 2, Bidder: "joe", Amount: decimal.NewFromInt(150), Timestamp: time.Now().UTC()},
	}
	if err := s.SaveBids(ctx, in); err != nil {
		t.Fatalf("SaveBids: %v", err)
	}

	got, err := s.LoadBids(ctx)
	if err != nil {
		t.Fatalf("LoadBids: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(bids) = %d, want 2", len(got))
	}
	if got[1].Bidder != "joe" || got[1].ID != in[1].ID {
		t.Errorf("bids[1] = %+v, want %+v", got[1], in[1])
	}
}

func TestStore_FarmersRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	in := []model.Farmer{{Username: "asha", PasswordHash: "$2a$hash", Name: "Asha", Location: "Mysuru"}}
	if err := s.SaveFarmers(ctx, in); err != nil {
		t.Fatalf("SaveFarmers: %v", err)
	}
	got, err := s.LoadFarmers(ctx)
	if err != nil {
		t.Fatalf("LoadFarmers: %v", err)
	}
	if len(got) != 1 || got[0].Location != "Mysuru" {
		t.Errorf("LoadFarmers() = %+v", got)
	}
}

func TestStore_NextListingIDSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	s, dir := openTemp(t)

	for want := int64(1); want <= 3; want++ {
		id, err := s.NextListingID(ctx)
		if err != nil {
			t.Fatalf("NextListingID: %v", err)
		}
		if id != want {
			t.Errorf("NextListingID() = %d, want %d", id, want)
		}
	}

	reopened, err := Open(ctx, dir, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	id, err := reopened.NextListingID(ctx)
	if err != nil {
		t.Fatalf("NextListingID: %v", err)
	}
	if id != 4 {
		t.Errorf("NextListingID() after reopen = %d, want 4", id)
	}
}

func TestOpen_CounterInitialisedFromLegacyListings(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	legacy := `[
    {"id": 1, "farmer_username": "asha", "name": "Rice", "description": "", "quantity": "5 bags",
     "quality": "A", "price": 40.0, "is_auction": false, "end_date": null, "sold": false,
     "created_at": "2025-01-01T09:00:00.000001"},
    {"id": 7, "farmer_username": "asha", "name": "Wheat", "description": "", "quantity": "2 bags",
     "quality": "B", "price": 30.0, "is_auction": false, "end_date": null, "sold": true,
     "created_at": "2025-01-02T09:00:00"}
]`
	if err := os.WriteFile(filepath.Join(dir, "listings.json"), []byte(legacy), 0o644); err != nil {
		t.Fatalf("write legacy listings: %v", err)
	}

	s, err := Open(ctx, dir, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// count+1 would give 3 and collide with nothing here, but would after
	// deletions; the counter must start past the highest id.
	id, err := s.NextListingID(ctx)
	if err != nil {
		t.Fatalf("NextListingID: %v", err)
	}
	if id != 8 {
		t.Errorf("NextListingID() = %d, want 8", id)
	}
}

func TestStore_CorruptFileIsPersistenceError(t *testing.T) {
	ctx := context.Background()
	s, dir := openTemp(t)

	if err := os.WriteFile(filepath.Join(dir, "bids.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := s.LoadBids(ctx)
	if !model.IsPersistence(err) {
		t.Errorf("LoadBids error = %v, want PersistenceError", err)
	}
}

func TestStore_WriteLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	s, dir := openTemp(t)

	if err := s.SaveBids(ctx, []model.Bid{{ListingID: 1, Bidder: "x", Amount: decimal.NewFromInt(1), Timestamp: time.Now()}}); err != nil {
		t.Fatalf("SaveBids: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}
