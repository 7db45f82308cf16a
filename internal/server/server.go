// Package server contains everything related to the Server
package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/starquake/quizbench/internal/api"
	"github.com/starquake/quizbench/internal/config"
	"github.com/starquake/quizbench/internal/member"
	"github.com/starquake/quizbench/internal/metrics"
	"github.com/starquake/quizbench/internal/middleware"
	"github.com/starquake/quizbench/internal/store"
)

// NewServer creates a new server. When metrics are enabled, the request and quiz metrics are registered on reg and
// served on /metrics.
func NewServer(logger *slog.Logger, cfg *config.Config, stores *store.Stores, reg *prometheus.Registry) http.Handler {
	service := member.NewService(stores.Members, logger)

	var collector *metrics.Collector
	var recorder api.DispatchRecorder = api.NopRecorder{}
	var gatherer prometheus.Gatherer
	if cfg.MetricsEnabled {
		collector = metrics.NewCollector(reg)
		recorder = collector
		gatherer = reg
	}

	mux := http.NewServeMux()
	addRoutes(mux, logger, cfg, stores, service, recorder, gatherer)

	return wrap(mux, logger, collector)
}

// wrap puts the middleware around h. Recovery is innermost so a recovered panic carries the request ID and is
// logged and counted as a 500. A nil collector skips the metrics middleware.
func wrap(h http.Handler, logger *slog.Logger, collector *metrics.Collector) http.Handler {
	mws := []middleware.Middleware{middleware.RequestID(), middleware.Logging(logger)}
	if collector != nil {
		mws = append(mws, middleware.Metrics(collector))
	}
	mws = append(mws, middleware.Recovery(logger))

	return middleware.Chain(h, mws...)
}
