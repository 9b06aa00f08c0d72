package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rickgao/agri-market/internal/model"
	"github.com/rickgao/agri-market/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// legacySource reads the data files of the first, single-script release. Its listings
// live in products.json and its farmers carry plaintext passwords, which are
// hashed on import.
type legacySource struct {
	dir    string
	logger *slog.Logger
}

// legacyFarmer is a farmer record as the first release wrote it.
type legacyFarmer struct {
	store.FarmerRecord
	Password string `json:"password"`
}

func (s *legacySource) LoadListings(ctx context.Context) ([]model.Listing, error) {
	var records []store.ListingRecord
	if err := s.read("products.json", &records); err != nil {
		return nil, err
	}
	listings := make([]model.Listing, 0, len(records))
	for _, r := range records {
		l, err := r.Listing()
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func (s *legacySource) LoadBids(ctx context.Context) ([]model.Bid, error) {
	var records []store.BidRecord
	if err := s.read("bids.json", &records); err != nil {
		return nil, err
	}
	bids := make([]model.Bid, 0, len(records))
	for _, r := range records {
		b, err := r.Bid()
		if err != nil {
			return nil, err
		}
		bids = append(bids, b)
	}
	return bids, nil
}

func (s *legacySource) LoadFarmers(ctx context.Context) ([]model.Farmer, error) {
	var records []legacyFarmer
	if err := s.read("farmers.json", &records); err != nil {
		return nil, err
	}
	farmers := make([]model.Farmer, 0, len(records))
	for _, r := range records {
		f := r.FarmerRecord.Farmer()
		if f.PasswordHash == "" && r.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("hash password for %s: %w", f.Username, err)
			}
			f.PasswordHash = string(hash)
			s.logger.Info("hashed plaintext password", "username", f.Username)
		}
		if f.Certificates == nil {
			f.Certificates = []string{}
		}
		farmers = append(farmers, f)
	}
	return farmers, nil
}

func (s *legacySource) read(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
