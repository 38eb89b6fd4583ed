package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	mw "github.com/kiranshivaraju/notable/internal/api/middleware"
	"github.com/kiranshivaraju/notable/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
// A nil handler is served as 501.
type Dependencies struct {
	Auth *mw.Auth

	Health http.HandlerFunc
	Query  http.HandlerFunc

	CreateScan http.HandlerFunc
	ListScans  http.HandlerFunc

	GetAudit      http.HandlerFunc
	RunAudit      http.HandlerFunc
	UpdateProfile http.HandlerFunc

	Recommendations http.HandlerFunc

	CreateKey http.HandlerFunc
	ListKeys  http.HandlerFunc
	RevokeKey http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Get("/api/v1/health", orNotImplemented(deps.Health))

	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)

		r.Post("/api/v1/query", orNotImplemented(deps.Query))

		r.Post("/api/v1/scans", orNotImplemented(deps.CreateScan))
		r.Get("/api/v1/scans", orNotImplemented(deps.ListScans))

		r.Get("/api/v1/audit", orNotImplemented(deps.GetAudit))
		r.Post("/api/v1/audit", orNotImplemented(deps.RunAudit))
		r.Put("/api/v1/audit/{platform}", orNotImplemented(deps.UpdateProfile))

		r.Get("/api/v1/recommendations", orNotImplemented(deps.Recommendations))

		r.Post("/api/v1/keys", orNotImplemented(deps.CreateKey))
		r.Get("/api/v1/keys", orNotImplemented(deps.ListKeys))
		r.Delete("/api/v1/keys/{keyID}", orNotImplemented(deps.RevokeKey))
	})

	return r
}

func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
