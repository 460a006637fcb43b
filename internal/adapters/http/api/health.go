package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/hiscore/pkg/metrics"
)

// StorageStatus reports storage availability for the health check.
type StorageStatus interface {
	Available() bool
	Backend() string
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	storage StorageStatus
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(storage StorageStatus) *HealthHandler {
	return &HealthHandler{storage: storage}
}

type healthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	Backend string `json:"backend"`
}

// HandleHealth handles GET /healthz. The process is healthy while offline, so
// the status code is 200 either way and the body says which mode is active.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, "api.healthz", "GET, HEAD")
		return
	}

	resp := healthResponse{Status: "ok", Storage: "available", Backend: h.storage.Backend()}
	if !h.storage.Available() {
		resp.Status = "degraded"
		resp.Storage = "offline"
	}
	writeJSON(w, http.StatusOK, resp)
}

// MetricsHandler serves the custom registry in Prometheus exposition format.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
