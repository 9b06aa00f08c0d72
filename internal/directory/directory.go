// Package directory is the owner directory: farmer registration, login and
// the owner lookup the listing registry uses for location search.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/rickgao/agri-market/internal/model"
	"github.com/rickgao/agri-market/internal/store"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Registration is the input to Register.
type Registration struct {
	Username string
	Password string
	Name     string
	Location string
	Phone    string
}

// Directory manages farmer accounts.
type Directory struct {
	farmers  store.FarmerStore
	logger   *slog.Logger
	hashCost int

	mu sync.Mutex
}

// Option configures a Directory.
type Option func(*Directory)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Directory) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithHashCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(d *Directory) {
		d.hashCost = cost
	}
}

// New creates a Directory backed by farmers.
func New(farmers store.FarmerStore, opts ...Option) *Directory {
	d := &Directory{
		farmers:  farmers,
		logger:   slog.Default(),
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register creates a new, unverified farmer account.
func (d *Directory) Register(ctx context.Context, r Registration) (model.Farmer, error) {
	r.Username = strings.TrimSpace(r.Username)
	r.Name = strings.TrimSpace(r.Name)
	switch {
	case r.Username == "":
		return model.Farmer{}, model.NewValidationError("username", "must not be empty")
	case r.Password == "":
		return model.Farmer{}, model.NewValidationError("password", "must not be empty")
	case r.Name == "":
		return model.Farmer{}, model.NewValidationError("name", "must not be empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	farmers, err := d.farmers.LoadFarmers(ctx)
	if err != nil {
		return model.Farmer{}, err
	}
	for _, f := range farmers {
		if f.Username == r.Username {
			return model.Farmer{}, ErrUsernameTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), d.hashCost)
	if err != nil {
		return model.Farmer{}, fmt.Errorf("hash password: %w", err)
	}

	f := model.Farmer{
		Username:     r.Username,
		PasswordHash: string(hash),
		Name:         r.Name,
		Location:     strings.TrimSpace(r.Location),
		Phone:        strings.TrimSpace(r.Phone),
		Certificates: []string{},
	}
	if err := d.farmers.SaveFarmers(ctx, append(farmers, f)); err != nil {
		return model.Farmer{}, err
	}

	d.logger.Info("farmer registered", "username", f.Username, "location", f.Location)
	return f, nil
}

// Login checks username and password and returns the farmer record.
func (d *Directory) Login(ctx context.Context, username, password string) (model.Farmer, error) {
	f, ok, err := d.find(ctx, strings.TrimSpace(username))
	if err != nil {
		return model.Farmer{}, err
	}
	if !ok {
		return model.Farmer{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(f.PasswordHash), []byte(password)); err != nil {
		d.logger.Debug("login rejected", "username", f.Username)
		return model.Farmer{}, ErrInvalidCredentials
	}
	return f, nil
}

// FindOwner looks up a seller by username.
func (d *Directory) FindOwner(ctx context.Context, username string) (model.Owner, bool, error) {
	f, ok, err := d.find(ctx, username)
	if err != nil || !ok {
		return model.Owner{}, false, err
	}
	return f.Owner(), true, nil
}

func (d *Directory) find(ctx context.Context, username string) (model.Farmer, bool, error) {
	farmers, err := d.farmers.LoadFarmers(ctx)
	if err != nil {
		return model.Farmer{}, false, err
	}
	for _, f := range farmers {
		if f.Username == username {
			return f, true, nil
		}
	}
	return model.Farmer{}, false, nil
}
