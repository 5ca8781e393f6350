package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/tablescope/tablescope/internal/api/middleware"
	"github.com/tablescope/tablescope/internal/api/response"
)

// Dependencies holds all handler dependencies for the router.
type Dependencies struct {
	HealthHandler    http.HandlerFunc
	UploadHandler    http.HandlerFunc
	AnalyzeHandler   http.HandlerFunc
	JobStatusHandler http.HandlerFunc
	JobResultHandler http.HandlerFunc
	JobDeleteHandler http.HandlerFunc
}

// NewRouter builds the Chi router with the middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	r.Post("/api/v1/upload", orNotImplemented(deps.UploadHandler))

	r.Post("/api/v1/analyze", orNotImplemented(deps.AnalyzeHandler))
	r.Get("/api/v1/analyze/{jobID}", orNotImplemented(deps.JobStatusHandler))
	r.Get("/api/v1/analyze/{jobID}/result", orNotImplemented(deps.JobResultHandler))
	r.Delete("/api/v1/analyze/{jobID}", orNotImplemented(deps.JobDeleteHandler))

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
