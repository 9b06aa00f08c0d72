package shell

import (
	"context"
	"errors"
	"strconv"

	"github.com/rickgao/agri-market/internal/directory"
	"github.com/rickgao/agri-market/internal/model"
	"github.com/rickgao/agri-market/internal/registry"
	"github.com/shopspring/decimal"
)

func (s *Shell) register(ctx context.Context) error {
	s.println("\n=== Farmer Registration ===")

	var (
		r   directory.Registration
		err error
	)
	if r.Username, err = s.prompt("Enter a username: "); err != nil {
		return err
	}
	if _, taken, err := s.svc.Accounts.FindOwner(ctx, r.Username); err != nil {
		s.report("register", err)
		return nil
	} else if taken {
		s.println("Username already exists. Please choose another.")
		return nil
	}
	if r.Password, err = s.prompt("Enter a password: "); err != nil {
		return err
	}
	if r.Name, err = s.prompt("Enter your full name: "); err != nil {
		return err
	}
	if r.Location, err = s.prompt("Enter your location (district): "); err != nil {
		return err
	}
	if r.Phone, err = s.prompt("Enter your phone number: "); err != nil {
		return err
	}

	_, err = s.svc.Accounts.Register(ctx, r)
	switch {
	case errors.Is(err, directory.ErrUsernameTaken):
		s.println("Username already exists. Please choose another.")
	case err != nil:
		s.report("register", err)
	default:
		s.println("Registration successful! Please login.")
	}
	return nil
}

func (s *Shell) login(ctx context.Context) error {
	s.println("\n=== Farmer Login ===")

	username, err := s.prompt("Enter your username: ")
	if err != nil {
		return err
	}
	password, err := s.prompt("Enter your password: ")
	if err != nil {
		return err
	}

	farmer, err := s.svc.Accounts.Login(ctx, username, password)
	switch {
	case errors.Is(err, directory.ErrInvalidCredentials):
		s.println("Invalid username or password.")
		return nil
	case err != nil:
		s.report("login", err)
		return nil
	}

	s.printf("Welcome back, %s!\n", farmer.Name)
	return s.dashboard(ctx, farmer)
}

func (s *Shell) dashboard(ctx context.Context, farmer model.Farmer) error {
	for {
		s.println("\n=== Farmer Dashboard ===")
		s.printf("Welcome, %s!\n", farmer.Name)
		s.println("1. Add New Product")
		s.println("2. View My Products")
		s.println("3. View Notifications")
		s.println("4. Logout")

		choice, err := s.prompt("Enter your choice (1-4): ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = s.addProduct(ctx, farmer)
		case "2":
			err = s.myProducts(ctx, farmer)
		case "3":
			err = s.notifications(ctx, farmer)
		case "4":
			s.println("Logging out...")
			return nil
		default:
			s.println("Invalid choice. Please try again.")
		}
		if err != nil {
			return err
		}
	}
}

func (s *Shell) addProduct(ctx context.Context, farmer model.Farmer) error {
	s.println("\n=== Add New Product ===")

	req := registry.CreateRequest{Owner: farmer.Username}
	var err error
	if req.Name, err = s.prompt("Enter product name: "); err != nil {
		return err
	}
	if req.Description, err = s.prompt("Enter product description: "); err != nil {
		return err
	}
	if req.Quantity, err = s.prompt("Enter quantity (e.g., 10kg, 5 bags): "); err != nil {
		return err
	}
	if req.Quality, err = s.prompt("Enter quality (e.g., Grade A, Organic): "); err != nil {
		return err
	}

	s.println("\nChoose selling method:")
	s.println("1. Fixed Price")
	s.println("2. Auction")
	choice, err := s.prompt("Enter your choice (1 or 2): ")
	if err != nil {
		return err
	}

	switch choice {
	case "1":
		req.Mode = model.FixedPrice
		raw, err := s.prompt("Enter fixed price: ")
		if err != nil {
			return err
		}
		if req.Price, err = decimal.NewFromString(raw); err != nil {
			s.println("Invalid input. Please enter a number.")
			return nil
		}
	case "2":
		req.Mode = model.Auction
		raw, err := s.prompt("Enter starting price: ")
		if err != nil {
			return err
		}
		if req.Price, err = decimal.NewFromString(raw); err != nil {
			s.println("Invalid input. Please enter a number.")
			return nil
		}
		raw, err = s.prompt("Enter auction duration in days: ")
		if err != nil {
			return err
		}
		if req.DurationDays, err = strconv.Atoi(raw); err != nil {
			s.println("Invalid input. Please enter a whole number of days.")
			return nil
		}
	default:
		s.println("Invalid choice. Product not added.")
		return nil
	}

	if _, err := s.svc.Listings.Create(ctx, req); err != nil {
		if model.IsValidation(err) {
			s.printf("Product not added: %v\n", err)
			return nil
		}
		s.report("add product", err)
		return nil
	}
	s.println("Product added successfully!")
	return nil
}

func (s *Shell) myProducts(ctx context.Context, farmer model.Farmer) error {
	mine, err := s.svc.Listings.ListByOwner(ctx, farmer.Username)
	if err != nil {
		s.report("my products", err)
		return nil
	}

	s.println("\n=== My Products ===")
	if len(mine) == 0 {
		s.println("You haven't listed any products yet.")
		return nil
	}

	for _, l := range mine {
		status := "Available"
		if l.Sold {
			status = "Sold"
		}
		s.printf("\n%s - %s\n", l.Name, status)
		s.printf("Price: %s\n", l.Price)
		if !l.IsAuction {
			continue
		}
		if left, err := s.svc.Listings.RemainingTime(l); err == nil {
			days, _ := formatRemaining(left)
			s.printf("Auction ends in: %d days\n", days)
		} else {
			s.println("Auction ended")
		}
	}
	return nil
}

func (s *Shell) notifications(ctx context.Context, farmer model.Farmer) error {
	notes, err := s.svc.Notifications.Derive(ctx, farmer.Username)
	if err != nil {
		s.report("notifications", err)
		return nil
	}

	s.println("\n=== Notifications ===")
	if len(notes) == 0 {
		s.println("No new notifications.")
		return nil
	}
	for _, n := range notes {
		s.printf("- %s\n", n.Text)
	}
	return nil
}
