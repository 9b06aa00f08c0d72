// Package store defines the persistence contracts used by the marketplace core
// and the flat record shapes shared by every backend.
//
// Collections:
//   - listings: one record per listing, insertion order preserved
//   - bids: append-only bid log
//   - farmers: owner directory
//
// Each backend keeps a listing id counter separate from the collection length,
// initialised from the highest stored id when it opens.
package store
