package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/illust-harvester/internal/delivery/http/handler"
	"github.com/user/illust-harvester/internal/delivery/http/middleware"
	"github.com/user/illust-harvester/pkg/metrics"
)

func New(h *handler.Handler, ws http.Handler, logger *zap.Logger) http.Handler {
	metrics.Init()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws/{channel}", ws.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(60 * time.Second))

		r.Get("/health", h.HandleHealthCheck)
		r.Post("/ranking", h.HandleSubmitRanking)
		r.Post("/search", h.HandleSubmitSearch)
		r.Get("/jobs/{id}", h.HandleGetJob)
		r.Get("/jobs/{id}/failures", h.HandleListFailures)
		r.Get("/file/read", h.HandleReadAuditLog)
		r.Delete("/file/delete", h.HandleDeleteAuditRecord)
	})

	return r
}
