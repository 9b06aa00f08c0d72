// Package shell is the interactive text menu over the marketplace services.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/rickgao/agri-market/internal/directory"
	"github.com/rickgao/agri-market/internal/model"
	"github.com/rickgao/agri-market/internal/notify"
	"github.com/rickgao/agri-market/internal/registry"
	"github.com/shopspring/decimal"
)

// Accounts registers and authenticates farmers.
type Accounts interface {
	Register(ctx context.Context, r directory.Registration) (model.Farmer, error)
	Login(ctx context.Context, username, password string) (model.Farmer, error)
	FindOwner(ctx context.Context, username string) (model.Owner, bool, error)
}

// Listings creates and queries listings.
type Listings interface {
	Create(ctx context.Context, req registry.CreateRequest) (model.Listing, error)
	ListActive(ctx context.Context, f registry.Filter) iter.Seq2[model.Listing, error]
	ListByOwner(ctx context.Context, owner string) ([]model.Listing, error)
	RemainingTime(l model.Listing) (time.Duration, error)
}

// Bids places bids on auctions.
type Bids interface {
	Auctions(ctx context.Context) ([]model.Listing, error)
	PlaceBid(ctx context.Context, listingID int64, bidder string, amount decimal.Decimal) (model.Bid, error)
}

// Notifications derives a seller's ended-auction notices.
type Notifications interface {
	Derive(ctx context.Context, owner string) ([]notify.Notification, error)
}

// Services are the collaborators the shell drives.
type Services struct {
	Accounts      Accounts
	Listings      Listings
	Bids          Bids
	Notifications Notifications
}

// Shell reads menu choices from in and writes prompts and results to out.
type Shell struct {
	svc    Services
	in     *bufio.Scanner
	out    io.Writer
	logger *slog.Logger
}

// errQuit ends the session when input runs out.
var errQuit = errors.New("input closed")

// New creates a Shell.
func New(in io.Reader, out io.Writer, svc Services, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{
		svc:    svc,
		in:     bufio.NewScanner(in),
		out:    out,
		logger: logger,
	}
}

// Run shows the main menu until the user exits or input ends.
func (s *Shell) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.println("\n=== Agricultural Product Marketing Platform ===")
		s.println("1. Farmer Registration")
		s.println("2. Farmer Login")
		s.println("3. View All Products")
		s.println("4. Search Products")
		s.println("5. Place Bid (for Buyers)")
		s.println("6. Exit")

		choice, err := s.prompt("Enter your choice (1-6): ")
		if err != nil {
			return s.finish(err)
		}

		switch choice {
		case "1":
			err = s.register(ctx)
		case "2":
			err = s.login(ctx)
		case "3":
			err = s.viewProducts(ctx)
		case "4":
			err = s.searchProducts(ctx)
		case "5":
			err = s.placeBid(ctx)
		case "6":
			s.println("Thank you for using our platform. Goodbye!")
			return nil
		default:
			s.println("Invalid choice. Please try again.")
		}
		if err != nil {
			return s.finish(err)
		}
	}
}

// finish maps end of input to a clean exit.
func (s *Shell) finish(err error) error {
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

func (s *Shell) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func (s *Shell) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}

// prompt writes label and returns the next input line without surrounding space.
func (s *Shell) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", errQuit
	}
	return strings.TrimSpace(s.in.Text()), nil
}

// report prints a failed operation. Persistence failures are also logged.
func (s *Shell) report(op string, err error) {
	if model.IsPersistence(err) {
		s.logger.Error("operation failed", "op", op, "error", err)
	}
	s.printf("Error: %v\n", err)
}

func formatRemaining(d time.Duration) (days, hours int) {
	days = int(d / (24 * time.Hour))
	hours = int((d % (24 * time.Hour)) / time.Hour)
	return days, hours
}
