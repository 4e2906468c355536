package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
	"github.com/rocketscienceinc/xiangqi-backend/internal/pkg"
	"github.com/rocketscienceinc/xiangqi-backend/internal/service"
)

type identityKey struct{}

// IdentityFrom - returns the identity attached by requireIdentity, if any.
func IdentityFrom(ctx context.Context) (*entity.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*entity.Identity)
	return identity, ok
}

// requireIdentity - resolves the bearer token. Requests without a valid token are
// refused unless anonymous play is enabled. A failure to check the token is a 500.
func requireIdentity(logger *zap.Logger, auth authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := auth.Authenticate(r.Context(), pkg.TokenFromRequest(r))
			if err == nil {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, identity)))
				return
			}

			if !service.IsRejectedCredential(err) {
				writeError(w, logger, apperror.Infrastructure(err))
				return
			}

			logger.Debug("request is unauthenticated", zap.String("path", r.URL.Path), zap.Error(err))

			if auth.AllowAnonymous() {
				next.ServeHTTP(w, r)
				return
			}

			writeError(w, logger, apperror.ErrAuthRequired)
		})
	}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(started)),
			)
		})
	}
}
