package rest

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// HealthCheck reports whether a backing store is reachable.
type HealthCheck func(ctx context.Context) error

type PingHandler interface {
	PingHandler(w http.ResponseWriter, r *http.Request)
}

type pingHandler struct {
	logger *zap.Logger
	checks []HealthCheck
}

func NewPingHandler(logger *zap.Logger, checks ...HealthCheck) PingHandler {
	return &pingHandler{
		logger: logger,
		checks: checks,
	}
}

// PingHandler - answers pong while every backing store responds.
func (that *pingHandler) PingHandler(w http.ResponseWriter, r *http.Request) {
	for _, check := range that.checks {
		if err := check(r.Context()); err != nil {
			that.logger.Warn("health check failed", zap.Error(err))
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Debug("failed to write pong", zap.Error(err))
	}
}
