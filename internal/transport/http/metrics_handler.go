package http

import (
	"net/http"

	apierrors "stockdash/internal/errors"
)

// MetricsHandler serves the Prometheus scrape endpoint
type MetricsHandler struct {
	exporter http.Handler
}

// NewMetricsHandler wraps the Prometheus exporter handler. A nil exporter
// means metrics export is disabled.
func NewMetricsHandler(exporter http.Handler) *MetricsHandler {
	return &MetricsHandler{exporter: exporter}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		problem := apierrors.NewProblemDetails(http.StatusServiceUnavailable,
			apierrors.TypeServiceDown, "Metrics Disabled",
			"The metrics exporter is not enabled", r.URL.Path)
		_ = problem.Write(w)
		return
	}
	h.exporter.ServeHTTP(w, r)
}
