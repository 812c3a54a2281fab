package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Config struct {
	DSN      string
	MaxConns int
	Timeout  time.Duration
}

// Enabled reports whether a DSN was provided. The audit store is optional.
func (c Config) Enabled() bool { return c.DSN != "" }

// ConfigFromEnv reads DB config from environment variables. An empty
// DATABASE_URL leaves the database disabled.
func ConfigFromEnv() Config {
	return Config{DSN: os.Getenv("DATABASE_URL"), MaxConns: 5, Timeout: 5 * time.Second}
}

// Connect opens a postgres pool wrapped in sqlx and verifies connectivity with a ping.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}
