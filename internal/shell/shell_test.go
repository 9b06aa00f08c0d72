package shell

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rickgao/agri-market/internal/bidding"
	"github.com/rickgao/agri-market/internal/clock"
	"github.com/rickgao/agri-market/internal/directory"
	"github.com/rickgao/agri-market/internal/notify"
	"github.com/rickgao/agri-market/internal/registry"
	"github.com/rickgao/agri-market/internal/store/memory"
	"golang.org/x/crypto/bcrypt"
)

type harness struct {
	store *memory.Store
	clock *clock.Manual
	svc   Services
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := memory.New()
	c := clock.NewManual(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
	dir := directory.New(s, directory.WithHashCost(bcrypt.MinCost))
	return &harness{
		store: s,
		clock: c,
		svc: Services{
			Accounts:      dir,
			Listings:      registry.New(s, dir, registry.WithClock(c)),
			Bids:          bidding.New(s, bidding.WithClock(c)),
			Notifications: notify.New(s, notify.WithClock(c)),
		},
	}
}

// run feeds lines to a fresh shell and returns everything it printed.
func (h *harness) run(t *testing.T, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	if err := New(in, &out, h.svc, nil).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

func assertContains(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, w := range wants {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q\n--- output ---\n%s", w, out)
		}
	}
}

// Input scripts for common steps.
var (
	registerAsha = []string{"1", "asha", "pw", "Asha Patil", "Pune", "555"}
	loginAsha    = []string{"2", "asha", "pw"}
)

func script(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestRun_ExitAndEOF(t *testing.T) {
	h := newHarness(t)
	assertContains(t, h.run(t, "6"), "Goodbye!")

	// Input ending without an explicit exit is a clean shutdown.
	out := h.run(t, "9")
	assertContains(t, out, "Invalid choice. Please try again.")
}

func TestRun_RegisterAndLogin(t *testing.T) {
	h := newHarness(t)

	out := h.run(t, script(registerAsha, registerAsha[:2], loginAsha, []string{"4", "6"})...)
	assertContains(t, out,
		"Registration successful! Please login.",
		"Username already exists. Please choose another.",
		"Welcome back, Asha Patil!",
		"=== Farmer Dashboard ===",
		"Logging out...",
	)

	out = h.run(t, "2", "asha", "wrong", "6")
	assertContains(t, out, "Invalid username or password.")
}

func TestRun_AuctionScenario(t *testing.T) {
	h := newHarness(t)

	out := h.run(t, script(
		registerAsha,
		loginAsha,
		[]string{"1", "Mango", "Alphonso", "10kg", "Grade A", "2", "100", "1"},
		[]string{"4"},
		[]string{"5", "buyer1", "1", "90"},
		[]string{"5", "buyer2", "1", "150"},
		[]string{"6"},
	)...)
	assertContains(t, out,
		"Product added successfully!",
		"1. Mango - Current Price: 100",
		"Bid must be higher than current price.",
		"Bid of 150 placed successfully on Mango!",
	)

	out = h.run(t, script(loginAsha, []string{"3", "4", "6"})...)
	assertContains(t, out, "No new notifications.")

	h.clock.Advance(25 * time.Hour)
	out = h.run(t, script(loginAsha, []string{"3", "2", "4", "6"})...)
	assertContains(t, out,
		"- Auction ended for Mango. Highest bid: 150 by buyer2",
		"Mango - Available",
		"Price: 150",
		"Auction ended",
	)
}

func TestRun_ViewAndSearch(t *testing.T) {
	h := newHarness(t)

	h.run(t, script(
		registerAsha,
		loginAsha,
		[]string{"1", "Rice", "Basmati", "20kg", "Organic", "1", "40"},
		[]string{"1", "Onion", "Red", "5 bags", "Grade B", "2", "20", "3"},
		[]string{"4", "6"},
	)...)

	out := h.run(t, "3", "6")
	assertContains(t, out,
		"Product 1:", "Name: Rice", "Type: Fixed Price",
		"Product 2:", "Name: Onion", "Type: Auction", "Time left: 3 days, 0 hours",
	)

	out = h.run(t, "4", "basmati", "pune", "6")
	assertContains(t, out,
		"Found 1 matching products:",
		"Location: Pune",
		"Seller: Asha Patil (asha)",
	)

	out = h.run(t, "4", "rice", "nashik", "6")
	assertContains(t, out, "No products match your search.")
}

func TestRun_MalformedInput(t *testing.T) {
	h := newHarness(t)

	out := h.run(t, script(
		registerAsha,
		loginAsha,
		[]string{"1", "Rice", "", "", "", "1", "forty"},
		[]string{"1", "Rice", "", "", "", "2", "10", "two"},
		[]string{"1", "Rice", "", "", "", "3"},
		[]string{"1", "Rice", "", "", "", "2", "10", "0"},
		[]string{"4"},
		[]string{"5", "buyer", "x"},
		[]string{"6"},
	)...)
	assertContains(t, out,
		"Invalid input. Please enter a number.",
		"Invalid input. Please enter a whole number of days.",
		"Invalid choice. Product not added.",
		"Product not added: invalid duration",
		"No auction products available.",
	)

	listings, err := h.store.LoadListings(context.Background())
	if err != nil {
		t.Fatalf("LoadListings: %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("malformed input stored %d listings", len(listings))
	}
}

func TestRun_InvalidBidSelection(t *testing.T) {
	h := newHarness(t)

	out := h.run(t, script(
		registerAsha,
		loginAsha,
		[]string{"1", "Mango", "", "", "", "2", "100", "1", "4"},
		[]string{"5", "buyer", "7"},
		[]string{"5", "buyer", "1", "abc"},
		[]string{"6"},
	)...)
	assertContains(t, out,
		"Invalid selection.",
		"Invalid input. Please enter a number.",
	)
}

func TestRun_LateBidRejected(t *testing.T) {
	h := newHarness(t)

	h.run(t, script(
		registerAsha,
		loginAsha,
		[]string{"1", "Mango", "", "", "", "2", "100", "1", "4", "6"},
	)...)
	h.clock.Advance(48 * time.Hour)

	out := h.run(t, "5", "buyer", "1", "500", "6")
	assertContains(t, out, "This auction has ended.")
}

func TestRun_PersistenceErrorReported(t *testing.T) {
	h := newHarness(t)
	h.store.FailLoad["listings"] = errors.New("disk gone")

	out := h.run(t, "3", "6")
	assertContains(t, out, "Error: load listings: disk gone", "Goodbye!")
}
