// Package http wires the chi router. The transport layer is thin: decode,
// call the gateway, encode. All authorization and audit logic lives behind
// the gateway boundary.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"labtrace/pkg/platform/middleware/auth"
	"labtrace/pkg/platform/middleware/metadata"
	"labtrace/pkg/platform/middleware/requestid"
	"labtrace/pkg/platform/middleware/requesttime"
)

// NewRouter assembles the full route tree. Health and metrics stay outside
// the authenticated subtree.
func NewRouter(h *Handler, verifier auth.TokenVerifier, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.RequireActor(verifier, logger))

		r.Get("/permissions", h.handlePermissions)
		r.Get("/audit", h.handleAuditQuery)

		r.Route("/{kind}", func(r chi.Router) {
			r.Post("/", h.handleCreate)
			r.Get("/{id}", h.handleGet)
			r.Post("/{id}/transitions", h.handleTransition)
		})

		r.Post("/notebooks/{id}/access", h.handleNotebookAccess)
		r.Post("/users/{id}/role", h.handleRoleChange)
	})

	return r
}
