package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/newrelic/go-agent/v3/integrations/nrpq"
)

// PostgresOptions configures the connection pool.
type PostgresOptions struct {
	URL             string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type PostgresDB struct {
	*sqlx.DB
}

// NewPostgres opens a pool over the New Relic instrumented driver and pings
// it before returning.
func NewPostgres(ctx context.Context, opts PostgresOptions) (*PostgresDB, error) {
	db, err := sqlx.Open("nrpostgres", opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = time.Hour
	}
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresDB{DB: db}, nil
}

func (p *PostgresDB) Close() error {
	return p.DB.Close()
}

func (p *PostgresDB) Health(ctx context.Context) error {
	return p.PingContext(ctx)
}
