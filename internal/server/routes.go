package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/starquake/quizbench/cmd/server/health"
	"github.com/starquake/quizbench/internal/admin"
	"github.com/starquake/quizbench/internal/api"
	"github.com/starquake/quizbench/internal/client"
	"github.com/starquake/quizbench/internal/config"
	"github.com/starquake/quizbench/internal/member"
	"github.com/starquake/quizbench/internal/metrics"
	"github.com/starquake/quizbench/internal/store"
	"github.com/starquake/quizbench/internal/web"
)

// addRoutes registers all routes. A nil gatherer leaves /metrics unregistered.
func addRoutes(
	mux *http.ServeMux,
	logger *slog.Logger,
	cfg *config.Config,
	stores *store.Stores,
	service *member.Service,
	recorder api.DispatchRecorder,
	gatherer prometheus.Gatherer,
) {
	mux.Handle("GET /quiz", api.HandleQuizGet(logger, recorder))
	mux.Handle("POST /quiz", api.HandleQuizPost(logger, recorder))

	mux.Handle("GET /test", api.HandleMemberList(logger, service))
	mux.Handle("GET /members", api.HandleMemberList(logger, service))
	mux.Handle("POST /members", api.HandleMemberCreate(logger, service))
	mux.Handle("POST /members/batch", api.HandleMembersBulkCreate(logger, service))
	mux.Handle("DELETE /members", api.HandleMembersDeleteAll(logger, service))
	mux.Handle("GET /members/{id}", api.HandleMemberGet(logger, service))
	mux.Handle("PUT /members/{id}", api.HandleMemberUpdate(logger, service))
	mux.Handle("DELETE /members/{id}", api.HandleMemberDelete(logger, service))

	mux.Handle("GET /healthz", health.HandleHealthz(logger, stores.Members))
	if gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(gatherer))
	}

	adminHandle := mux.Handle
	if cfg.IsProduction() {
		m := web.NewMinifier()
		adminHandle = func(pattern string, h http.Handler) { mux.Handle(pattern, m.Middleware(h)) }
	}
	adminHandle("GET /admin", admin.HandleIndex(logger, service))
	adminHandle("GET /admin/members", admin.HandleMemberList(logger, service))
	adminHandle("GET /admin/members/new", admin.HandleMemberCreate(logger))
	adminHandle("POST /admin/members", admin.HandleMemberSave(logger, service))
	adminHandle("GET /admin/members/{memberId}", admin.HandleMemberView(logger, service))
	adminHandle("GET /admin/members/{memberId}/edit", admin.HandleMemberEdit(logger, service))
	adminHandle("POST /admin/members/{memberId}", admin.HandleMemberSave(logger, service))
	adminHandle("POST /admin/members/{memberId}/delete", admin.HandleMemberDelete(logger, service))

	mux.Handle("GET /client/", client.Handler(cfg.IsProduction()))
}
