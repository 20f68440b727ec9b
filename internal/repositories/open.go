package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"
)

type OpenOptions struct {
	Driver        string // postgres | sqlite | rest
	DSN           string // postgres DSN or sqlite file path
	Table         string
	RESTURL       string
	APIKey        string
	SelectRetries int
	Timeout       time.Duration
	// EnsureSchema creates the table for the SQL drivers.
	EnsureSchema bool
}

// sqlOpen is swapped in tests to observe the pool.
var sqlOpen = sql.Open

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the configured table. The returned closer releases the
// underlying connection pool, if any.
func Open(ctx context.Context, opts OpenOptions) (OpportunityTable, io.Closer, error) {
	switch opts.Driver {
	case "rest":
		if opts.RESTURL == "" {
			return nil, nil, fmt.Errorf("table.rest_url is required for the rest driver")
		}
		return NewRESTTable(RESTOptions{
			BaseURL:       opts.RESTURL,
			Table:         opts.Table,
			APIKey:        opts.APIKey,
			SelectRetries: opts.SelectRetries,
			Timeout:       opts.Timeout,
		}), nopCloser{}, nil

	case "postgres", "sqlite":
		var (
			db  *sql.DB
			err error
		)
		if opts.Driver == "postgres" {
			db, err = sqlOpen("postgres", opts.DSN)
			if err == nil {
				if err = db.PingContext(ctx); err != nil {
					_ = db.Close()
				}
			}
		} else {
			db, err = OpenSQLite(opts.DSN)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("open %s table: %w", opts.Driver, err)
		}
		t := NewSQLTable(db, Dialect(opts.Driver), opts.Table)
		if opts.EnsureSchema {
			if err := t.EnsureSchema(ctx); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return t, db, nil

	default:
		return nil, nil, fmt.Errorf("unknown table driver %q", opts.Driver)
	}
}
