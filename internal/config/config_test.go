package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	yaml := `
storage:
  backend: postgres
  postgres:
    host: localhost
    port: 5433
    name: market
    user: farmer
    password: testpass
auction:
  accept_late_bids: true
logging:
  level: debug
  format: json
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Storage.Backend != BackendPostgres {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, BackendPostgres)
	}
	if cfg.Storage.Postgres.Port != 5433 {
		t.Errorf("Storage.Postgres.Port = %d, want %d", cfg.Storage.Postgres.Port, 5433)
	}
	if !cfg.Auction.AcceptLateBids {
		t.Error("Auction.AcceptLateBids = false, want true")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_MARKET_DATA", "/var/lib/agrimarket")

	yaml := `
storage:
  backend: json
  data_dir: ${TEST_MARKET_DATA}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Storage.DataDir != "/var/lib/agrimarket" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/var/lib/agrimarket")
	}
}

func TestLoadWithDotEnv(t *testing.T) {
	dir := t.TempDir()
	const key = "TEST_MARKET_SQLITE_PATH"
	// godotenv sets the variable directly; make sure it is cleaned up.
	t.Setenv(key, "")
	os.Unsetenv(key)

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(key+"=/tmp/market.db\n"), 0644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	path := filepath.Join(dir, "config.yaml")
	yaml := `
storage:
  backend: sqlite
  sqlite_path: ${TEST_MARKET_SQLITE_PATH}
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.SQLitePath != "/tmp/market.db" {
		t.Errorf("Storage.SQLitePath = %q, want %q", cfg.Storage.SQLitePath, "/tmp/market.db")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load of missing file succeeded, want error")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
storage:
  backend: postgres
  postgres:
    host: localhost
    name: market
    user: farmer
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Storage.DataDir != DefaultDataDir {
		t.Errorf("Storage.DataDir = %q, want default %q", cfg.Storage.DataDir, DefaultDataDir)
	}
	if cfg.Storage.Postgres.Port != DefaultDBPort {
		t.Errorf("Storage.Postgres.Port = %d, want default %d", cfg.Storage.Postgres.Port, DefaultDBPort)
	}
	if cfg.Storage.Postgres.MaxConns != DefaultMaxConns {
		t.Errorf("Storage.Postgres.MaxConns = %d, want default %d", cfg.Storage.Postgres.MaxConns, DefaultMaxConns)
	}
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Logging.Level = %q, want default %q", cfg.Logging.Level, DefaultLogLevel)
	}
}

func TestLoadWithDefaultsEmptyPath(t *testing.T) {
	cfg, err := LoadAndValidate("")
	if err != nil {
		t.Fatalf("LoadAndValidate(\"\") failed: %v", err)
	}
	if cfg.Storage.Backend != BackendJSON {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, BackendJSON)
	}
	if cfg.Auction.AcceptLateBids {
		t.Error("Auction.AcceptLateBids defaults to true, want false")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Storage.Backend = "csv" },
			wantErr: `storage.backend must be one of json, sqlite, postgres, memory, got "csv"`,
		},
		{
			name:    "json without data dir",
			mutate:  func(c *Config) { c.Storage.DataDir = "" },
			wantErr: "storage.data_dir is required for the json backend",
		},
		{
			name: "missing postgres host",
			mutate: func(c *Config) {
				c.Storage.Backend = BackendPostgres
			},
			wantErr: "storage.postgres.host is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Storage.Backend = BackendPostgres
				c.Storage.Postgres = DBConfig{Host: "localhost", Port: 5432, Name: "db", User: "user", MaxConns: 2, MinConns: 5}
			},
			wantErr: "storage.postgres.min_conns (5) cannot exceed max_conns (2)",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: `logging.level must be one of debug, info, warn, error, got "verbose"`,
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: `logging.format must be text or json, got "xml"`,
		},
		{
			name:    "memory backend",
			mutate:  func(c *Config) { c.Storage.Backend = BackendMemory },
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := (LoggingConfig{Level: tt.level}).SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
