package handler

import (
	"net/http"
	"time"

	"github.com/tablescope/tablescope/internal/api/response"
	"github.com/tablescope/tablescope/internal/store"
)

// NewHealthHandler returns the handler for GET /api/v1/health. The store is
// the only hard dependency; the LLM provider is reported but never probed,
// since insight generation is a degradable stage anyway.
func NewHealthHandler(st store.Store, providerName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		storeStatus := "ok"
		if err := st.Ping(r.Context()); err != nil {
			status = "degraded"
			storeStatus = err.Error()
		}

		payload := map[string]any{
			"status":    status,
			"store":     storeStatus,
			"provider":  providerName,
			"timestamp": time.Now().UTC(),
		}
		if status == "ok" {
			response.JSON(w, payload)
			return
		}
		response.Error(w, http.StatusServiceUnavailable, "DEGRADED", "Job store is unreachable", payload)
	}
}
