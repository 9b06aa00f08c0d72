// Package model defines shared data types used across the agri-market platform.
//
// Conventions:
//   - Prices and bid amounts: shopspring decimal, never float
//   - Timestamps: time.Time; persisted as RFC 3339
//   - Listing IDs: monotonically increasing int64; bid IDs: uuid.UUID
package model
