package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
)

var ErrIdentityNotFound = errors.New("identity not found")

type IdentityRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Identity, error)
}

type dbIdentity struct {
	pool *pgxpool.Pool
}

func NewIdentityRepository(pool *pgxpool.Pool) IdentityRepository {
	return &dbIdentity{
		pool: pool,
	}
}

func (that *dbIdentity) GetByID(ctx context.Context, id string) (*entity.Identity, error) {
	query := `SELECT id, display_name, credentials_changed_at FROM identities WHERE id = $1`

	var (
		identity  entity.Identity
		changedAt *time.Time
	)

	err := that.pool.QueryRow(ctx, query, id).Scan(&identity.ID, &identity.DisplayName, &changedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrIdentityNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("can't find identity: %w", err)
	}

	identity.CredentialsChangedAt = changedAt

	return &identity, nil
}
