package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const identitiesSchema = `CREATE TABLE IF NOT EXISTS identities (
	id                     TEXT PRIMARY KEY,
	display_name           TEXT NOT NULL,
	credentials_changed_at TIMESTAMPTZ
)`

type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres - opens a connection pool and checks the connection.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &Postgres{Pool: pool}, nil
}

// Init - creates the tables the service reads from.
func (that *Postgres) Init(ctx context.Context) error {
	if _, err := that.Pool.Exec(ctx, identitiesSchema); err != nil {
		return fmt.Errorf("can't create table: %w", err)
	}

	return nil
}

func (that *Postgres) Close() {
	that.Pool.Close()
}
