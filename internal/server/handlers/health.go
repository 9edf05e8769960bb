package handlers

import (
	"net/http"
	"time"

	"github.com/agentstation/stonemap/internal/server/response"
)

// HandleHealth handles GET /health (liveness).
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "stonemap-api",
		"version": "v1",
	})
}

// HandleReady handles GET /api/v1/ready. The server is ready once the
// catalog is loaded and indexed.
func (h *Handlers) HandleReady(w http.ResponseWriter, _ *http.Request) {
	if h.catalog == nil || h.index.Len() != h.catalog.Len() {
		response.ServiceUnavailable(w, "Catalog not indexed")
		return
	}
	response.OK(w, map[string]any{
		"status": "ready",
		"sites":  h.catalog.Len(),
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
		"cache": map[string]any{
			"items": h.cache.ItemCount(),
		},
	})
}
