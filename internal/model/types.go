package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleMode selects how a listing is sold.
type SaleMode string

const (
	FixedPrice SaleMode = "fixed_price"
	Auction    SaleMode = "auction"
)

// Valid reports whether m is a known sale mode.
func (m SaleMode) Valid() bool {
	return m == FixedPrice || m == Auction
}

// -----------------------------------------------------------------------------
// Marketplace Types
// -----------------------------------------------------------------------------

// Listing is a farmer's offer of a product, sold at a fixed price or by auction.
type Listing struct {
	ID          int64           // Primary key, assigned at creation
	Owner       string          // Farmer username
	Name        string          // Product name
	Description string          // Free text
	Quantity    string          // Free-text magnitude (e.g. "10kg", "5 bags")
	Quality     string          // Free text (e.g. "Grade A")
	Price       decimal.Decimal // Fixed price, or current highest bid for auctions
	IsAuction   bool            // true = auction listing
	EndTime     *time.Time      // Auction close; nil iff !IsAuction
	Sold        bool            // Never set by the core
	CreatedAt   time.Time       // Creation time
}

// Mode returns the listing's sale mode.
func (l Listing) Mode() SaleMode {
	if l.IsAuction {
		return Auction
	}
	return FixedPrice
}

// Expired reports whether an auction listing has reached its end time.
// Fixed-price listings never expire.
func (l Listing) Expired(now time.Time) bool {
	if !l.IsAuction || l.EndTime == nil {
		return false
	}
	return !now.Before(*l.EndTime)
}

// Bid is an immutable record of a buyer's offer against an auction listing.
type Bid struct {
	ID        uuid.UUID       // Opaque identity for append-only storage
	ListingID int64           // Listing.ID (non-owning reference)
	Bidder    string          // Buyer username
	Amount    decimal.Decimal // Offered amount
	Timestamp time.Time       // Acceptance time
}

// Farmer is a registered seller in the owner directory.
type Farmer struct {
	Username     string
	PasswordHash string // bcrypt hash, never plaintext
	Name         string
	Location     string // District
	Phone        string
	Verified     bool
	Certificates []string
}

// Owner is the subset of a farmer record the marketplace core needs.
type Owner struct {
	Username    string
	DisplayName string
	Location    string
}

// Owner returns the directory view of f.
func (f Farmer) Owner() Owner {
	return Owner{
		Username:    f.Username,
		DisplayName: f.Name,
		Location:    f.Location,
	}
}
