package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/kiranshivaraju/nichescout/internal/api/response"
)

const healthTimeout = 2 * time.Second

type healthResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	LiveMode bool              `json:"liveMode"`
}

// NewHealthHandler returns an http.HandlerFunc for GET /api/health. Every
// named dependency is pinged; any failure answers 503.
func NewHealthHandler(deps map[string]Pinger, liveMode bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		healthy := true
		for name, p := range deps {
			if p == nil {
				continue
			}
			if err := p.Ping(ctx); err != nil {
				checks[name] = "error: " + err.Error()
				healthy = false
				continue
			}
			checks[name] = "ok"
		}

		if !healthy {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED", "One or more dependencies are unhealthy", checks)
			return
		}
		response.JSON(w, healthResponse{Status: "ok", Checks: checks, LiveMode: liveMode})
	}
}
