package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel reasons carried by ValidationError.
var (
	ErrNotAuction     = errors.New("listing is not an auction")
	ErrListingSold    = errors.New("listing is already sold")
	ErrAuctionEnded   = errors.New("auction has ended")
	ErrAuctionExpired = errors.New("auction expired")
)

// ValidationError reports malformed input or a violated precondition.
// No state is mutated when it is returned.
type ValidationError struct {
	Field  string
	Reason string
	Err    error // optional sentinel
}

func (e *ValidationError) Error() string {
	reason := e.Reason
	if reason == "" && e.Err != nil {
		reason = e.Err.Error()
	}
	if e.Field == "" {
		return "invalid input: " + reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports a listing id that does not exist.
type NotFoundError struct {
	ListingID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("listing %d not found", e.ListingID)
}

// BidTooLowError reports a bid that does not exceed the current price.
type BidTooLowError struct {
	ListingID int64
	Amount    decimal.Decimal
	Current   decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid %s on listing %d must be higher than %s", e.Amount, e.ListingID, e.Current)
}

// PersistenceError wraps a storage read or write failure. It is never retried.
type PersistenceError struct {
	Op         string // "load" or "save"
	Collection string // "listings", "bids", "farmers", "counters"
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsBidTooLow reports whether err is (or wraps) a BidTooLowError.
func IsBidTooLow(err error) bool {
	var low *BidTooLowError
	return errors.As(err, &low)
}

// IsPersistence reports whether err is (or wraps) a PersistenceError.
func IsPersistence(err error) bool {
	var p *PersistenceError
	return errors.As(err, &p)
}
