// Package health provides health check endpoints.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/starquake/quizbench/internal/httputil"
)

// Pinger is implemented by anything whose reachability the health check reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleHealthz returns a handler that serves health check responses.
func HandleHealthz(logger *slog.Logger, store Pinger) http.Handler {
	type healthStatus struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		httpStatus := http.StatusOK
		health := healthStatus{
			Status: "ok",
			Checks: make(map[string]string),
		}

		if err := store.Ping(ctx); err != nil {
			logger.WarnContext(ctx, "store ping failed", slog.Any("err", err))
			health.Status = "degraded"
			health.Checks["store"] = fmt.Sprintf("unhealthy: %v", err)
			httpStatus = http.StatusServiceUnavailable
		} else {
			health.Checks["store"] = "healthy"
		}

		logger.DebugContext(ctx, "health check performed", slog.String("status", health.Status))
		if err := httputil.EncodeJSON(w, httpStatus, health); err != nil {
			logger.ErrorContext(ctx, "error encoding health status", slog.Any("err", err))
		}
	})
}
