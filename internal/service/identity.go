package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
	"github.com/rocketscienceinc/xiangqi-backend/internal/pkg"
	"github.com/rocketscienceinc/xiangqi-backend/internal/repository"
)

var (
	ErrNoToken         = errors.New("no token")
	ErrUnknownIdentity = errors.New("unknown identity")
	ErrTokenRevoked    = errors.New("token issued before credentials change")
)

type identityRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Identity, error)
}

type tokenVerifier interface {
	VerifyToken(token string) (*Claims, error)
}

// IdentityBinder resolves the identity of a connection once, at handshake time.
type IdentityBinder struct {
	logger *zap.Logger

	auth       tokenVerifier
	identities identityRepository

	allowAnonymous bool
}

func NewIdentityBinder(logger *zap.Logger, auth tokenVerifier, identities identityRepository, allowAnonymous bool) *IdentityBinder {
	return &IdentityBinder{
		logger:         logger.With(zap.String("component", "identity-binder")),
		auth:           auth,
		identities:     identities,
		allowAnonymous: allowAnonymous,
	}
}

func (that *IdentityBinder) AllowAnonymous() bool {
	return that.allowAnonymous
}

// Bind - builds the binding for a new connection. It never fails: any problem with
// the token leaves the binding unauthenticated.
func (that *IdentityBinder) Bind(ctx context.Context, connID, token string) *entity.Binding {
	log := that.logger.With(zap.String("method", "Bind"), zap.String("conn_id", connID))

	binding := &entity.Binding{ConnID: connID}

	identity, err := that.Authenticate(ctx, token)
	if err == nil {
		binding.Identity = identity
		binding.Authenticated = true

		log.Debug("connection authenticated", zap.String("identity_id", identity.ID))

		return binding
	}

	if IsRejectedCredential(err) {
		log.Debug("connection is unauthenticated", zap.Error(err))
	} else {
		log.Error("failed to resolve identity", zap.Error(err))
	}

	if that.allowAnonymous {
		binding.Identity = &entity.Identity{
			ID:          pkg.GenerateID(),
			DisplayName: entity.AnonymousName,
		}
	}

	return binding
}

// Authenticate - verifies the token and loads the identity it names.
func (that *IdentityBinder) Authenticate(ctx context.Context, token string) (*entity.Identity, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	claims, err := that.auth.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	identity, err := that.identities.GetByID(ctx, claims.Subject)
	if errors.Is(err, repository.ErrIdentityNotFound) {
		return nil, ErrUnknownIdentity
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	if identity.CredentialsChangedAfter(claims.IssuedAt.Time) {
		return nil, ErrTokenRevoked
	}

	return identity, nil
}

// IsRejectedCredential - reports whether err means the caller has no usable credential,
// as opposed to a failure to check it.
func IsRejectedCredential(err error) bool {
	return errors.Is(err, ErrNoToken) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrUnknownIdentity) ||
		errors.Is(err, ErrTokenRevoked)
}
