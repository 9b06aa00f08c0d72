package shell

import (
	"context"
	"errors"
	"strconv"

	"github.com/rickgao/agri-market/internal/model"
	"github.com/rickgao/agri-market/internal/registry"
	"github.com/shopspring/decimal"
)

func (s *Shell) viewProducts(ctx context.Context) error {
	s.println("\n=== Available Products ===")

	idx := 0
	for l, err := range s.svc.Listings.ListActive(ctx, registry.Filter{}) {
		if err != nil {
			s.report("view products", err)
			return nil
		}
		idx++
		s.printf("\nProduct %d:\n", idx)
		s.printf("Name: %s\n", l.Name)
		s.printf("Description: %s\n", l.Description)
		s.printf("Quantity: %s\n", l.Quantity)
		s.printf("Quality: %s\n", l.Quality)
		s.printf("Price: %s\n", l.Price)
		s.printf("Seller: %s\n", l.Owner)

		if !l.IsAuction {
			s.println("Type: Fixed Price")
			continue
		}
		s.println("Type: Auction")
		if left, err := s.svc.Listings.RemainingTime(l); err == nil {
			days, hours := formatRemaining(left)
			s.printf("Time left: %d days, %d hours\n", days, hours)
		} else {
			s.println("Time left: auction ended")
		}
	}
	if idx == 0 {
		s.println("No products available.")
	}
	return nil
}

func (s *Shell) searchProducts(ctx context.Context) error {
	s.println("\n=== Search Products ===")

	query, err := s.prompt("Enter product name or description to search: ")
	if err != nil {
		return err
	}
	location, err := s.prompt("Enter location to filter (leave blank for all): ")
	if err != nil {
		return err
	}

	var matches []model.Listing
	for l, err := range s.svc.Listings.ListActive(ctx, registry.Filter{Query: query, Location: location}) {
		if err != nil {
			s.report("search", err)
			return nil
		}
		matches = append(matches, l)
	}

	if len(matches) == 0 {
		s.println("No products match your search.")
		return nil
	}

	s.printf("\nFound %d matching products:\n", len(matches))
	for i, l := range matches {
		owner, _, err := s.svc.Accounts.FindOwner(ctx, l.Owner)
		if err != nil {
			s.report("search", err)
			return nil
		}
		s.printf("\nProduct %d:\n", i+1)
		s.printf("Name: %s\n", l.Name)
		s.printf("Description: %s\n", l.Description)
		s.printf("Quantity: %s\n", l.Quantity)
		s.printf("Price: %s\n", l.Price)
		s.printf("Location: %s\n", owner.Location)
		s.printf("Seller: %s (%s)\n", owner.DisplayName, l.Owner)
	}
	return nil
}

func (s *Shell) placeBid(ctx context.Context) error {
	buyer, err := s.prompt("Enter your username (as buyer): ")
	if err != nil {
		return err
	}

	auctions, err := s.svc.Bids.Auctions(ctx)
	if err != nil {
		s.report("place bid", err)
		return nil
	}

	s.println("\n=== Available Auction Products ===")
	if len(auctions) == 0 {
		s.println("No auction products available.")
		return nil
	}
	for i, l := range auctions {
		s.printf("\n%d. %s - Current Price: %s\n", i+1, l.Name, l.Price)
	}

	raw, err := s.prompt("\nEnter product number to bid on: ")
	if err != nil {
		return err
	}
	choice, err := strconv.Atoi(raw)
	if err != nil {
		s.println("Invalid input. Please enter a number.")
		return nil
	}
	if choice < 1 || choice > len(auctions) {
		s.println("Invalid selection.")
		return nil
	}
	selected := auctions[choice-1]

	raw, err = s.prompt("Enter your bid (must be higher than " + selected.Price.String() + "): ")
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		s.println("Invalid input. Please enter a number.")
		return nil
	}

	_, err = s.svc.Bids.PlaceBid(ctx, selected.ID, buyer, amount)
	switch {
	case err == nil:
		s.printf("Bid of %s placed successfully on %s!\n", amount, selected.Name)
	case model.IsBidTooLow(err):
		s.println("Bid must be higher than current price.")
	case errors.Is(err, model.ErrAuctionEnded):
		s.println("This auction has ended.")
	default:
		s.report("place bid", err)
	}
	return nil
}
