package config

import (
	"log/slog"
	"strings"
)

// Storage backends.
const (
	BackendJSON     = "json"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config is the root configuration for the marketplace CLI.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Auction AuctionConfig `yaml:"auction"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Backend    string   `yaml:"backend"`     // json, sqlite, postgres, memory
	DataDir    string   `yaml:"data_dir"`    // json: directory holding the collection files
	SQLitePath string   `yaml:"sqlite_path"` // sqlite: database file
	Postgres   DBConfig `yaml:"postgres"`
}

// DBConfig holds a single PostgreSQL connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// AuctionConfig holds bid acceptance rules.
type AuctionConfig struct {
	// AcceptLateBids keeps accepting bids after an auction's end time.
	AcceptLateBids bool `yaml:"accept_late_bids"`
}

// LoggingConfig holds slog settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// SlogLevel maps the configured level onto slog. Unknown values map to info.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
