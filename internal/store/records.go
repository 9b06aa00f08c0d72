package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rickgao/agri-market/internal/model"
	"github.com/shopspring/decimal"
)

// ListingRecord is the persisted shape of a listing.
type ListingRecord struct {
	ID             int64       `json:"id"`
	FarmerUsername string      `json:"farmer_username"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Quantity       string      `json:"quantity"`
	Quality        string      `json:"quality"`
	Price          json.Number `json:"price"`
	IsAuction      bool        `json:"is_auction"`
	EndDate        *string     `json:"end_date"`
	Sold           bool        `json:"sold"`
	CreatedAt      string      `json:"created_at"`
}

// BidRecord is the persisted shape of a bid. ID is absent in files written
// before bids carried an identity.
type BidRecord struct {
	ID            string      `json:"id,omitempty"`
	ProductID     int64       `json:"product_id"`
	BuyerUsername string      `json:"buyer_username"`
	Amount        json.Number `json:"amount"`
	Timestamp     string      `json:"timestamp"`
}

// FarmerRecord is the persisted shape of a farmer.
type FarmerRecord struct {
	Username     string   `json:"username"`
	PasswordHash string   `json:"password_hash"`
	Name         string   `json:"name"`
	Location     string   `json:"location"`
	Phone        string   `json:"phone"`
	Verified     bool     `json:"verified"`
	Certificates []string `json:"certificates"`
}

// timeLayouts are tried in order when parsing stored timestamps. The naive
// layouts match Python's datetime.isoformat() without a zone.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// FormatTime renders t for storage.
func FormatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// ParseTime parses a stored timestamp. Naive timestamps are read as local time.
func ParseTime(s string) (time.Time, error) {
	for i, layout := range timeLayouts {
		var (
			t   time.Time
			err error
		)
		if i == 0 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// ToListingRecord converts a listing to its persisted shape.
func ToListingRecord(l model.Listing) ListingRecord {
	r := ListingRecord{
		ID:             l.ID,
		FarmerUsername: l.Owner,
		Name:           l.Name,
		Description:    l.Description,
		Quantity:       l.Quantity,
		Quality:        l.Quality,
		Price:          json.Number(l.Price.String()),
		IsAuction:      l.IsAuction,
		Sold:           l.Sold,
		CreatedAt:      FormatTime(l.CreatedAt),
	}
	if l.EndTime != nil {
		end := FormatTime(*l.EndTime)
		r.EndDate = &end
	}
	return r
}

// Listing converts a record back into a listing.
func (r ListingRecord) Listing() (model.Listing, error) {
	price, err := decimal.NewFromString(r.Price.String())
	if err != nil {
		return model.Listing{}, fmt.Errorf("listing %d: price: %w", r.ID, err)
	}
	created, err := ParseTime(r.CreatedAt)
	if err != nil {
		return model.Listing{}, fmt.Errorf("listing %d: created_at: %w", r.ID, err)
	}

	l := model.Listing{
		ID:          r.ID,
		Owner:       r.FarmerUsername,
		Name:        r.Name,
		Description: r.Description,
		Quantity:    r.Quantity,
		Quality:     r.Quality,
		Price:       price,
		IsAuction:   r.IsAuction,
		Sold:        r.Sold,
		CreatedAt:   created,
	}
	if r.EndDate != nil {
		end, err := ParseTime(*r.EndDate)
		if err != nil {
			return model.Listing{}, fmt.Errorf("listing %d: end_date: %w", r.ID, err)
		}
		l.EndTime = &end
	}
	if l.IsAuction != (l.EndTime != nil) {
		return model.Listing{}, fmt.Errorf("listing %d: end_date must be set iff is_auction", r.ID)
	}
	return l, nil
}

// ToBidRecord converts a bid to its persisted shape.
func ToBidRecord(b model.Bid) BidRecord {
	r := BidRecord{
		ProductID:     b.ListingID,
		BuyerUsername: b.Bidder,
		Amount:        json.Number(b.Amount.String()),
		Timestamp:     FormatTime(b.Timestamp),
	}
	if b.ID != uuid.Nil {
		r.ID = b.ID.String()
	}
	return r
}

// Bid converts a record back into a bid.
func (r BidRecord) Bid() (model.Bid, error) {
	amount, err := decimal.NewFromString(r.Amount.String())
	if err != nil {
		return model.Bid{}, fmt.Errorf("bid on listing %d: amount: %w", r.ProductID, err)
	}
	ts, err := ParseTime(r.Timestamp)
	if err != nil {
		return model.Bid{}, fmt.Errorf("bid on listing %d: timestamp: %w", r.ProductID, err)
	}

	b := model.Bid{
		ListingID: r.ProductID,
		Bidder:    r.BuyerUsername,
		Amount:    amount,
		Timestamp: ts,
	}
	if r.ID != "" {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return model.Bid{}, fmt.Errorf("bid on listing %d: id: %w", r.ProductID, err)
		}
		b.ID = id
	}
	return b, nil
}

// ToFarmerRecord converts a farmer to its persisted shape.
func ToFarmerRecord(f model.Farmer) FarmerRecord {
	certs := f.Certificates
	if certs == nil {
		certs = []string{}
	}
	return FarmerRecord{
		Username:     f.Username,
		PasswordHash: f.PasswordHash,
		Name:         f.Name,
		Location:     f.Location,
		Phone:        f.Phone,
		Verified:     f.Verified,
		Certificates: certs,
	}
}

// Farmer converts a record back into a farmer.
func (r FarmerRecord) Farmer() model.Farmer {
	return model.Farmer{
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Name:         r.Name,
		Location:     r.Location,
		Phone:        r.Phone,
		Verified:     r.Verified,
		Certificates: r.Certificates,
	}
}
