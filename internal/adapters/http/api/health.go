package api

import (
	"net/http"

	"github.com/okian/fsingest/internal/app"
	"github.com/okian/fsingest/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ProgressProvider reports the state of the running batch.
type ProgressProvider interface {
	Progress() app.Progress
}

// HealthHandler serves the batch progress.
type HealthHandler struct {
	progress ProgressProvider
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(p ProgressProvider) *HealthHandler {
	return &HealthHandler{progress: p}
}

// HandleHealth handles GET /healthz. A failed batch answers 503 so health checks
// can tell it apart from one still running.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Code: "method_not_allowed", Message: "use GET"})
		return
	}
	p := h.progress.Progress()
	status := http.StatusOK
	if p.Phase == app.PhaseFailed {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, p)
}

// MetricsHandler serves the pipeline metrics in Prometheus exposition format.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
