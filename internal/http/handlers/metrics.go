package handlers

import "net/http"

// ServeMetrics exposes the Prometheus registry.
func (a *App) ServeMetrics(w http.ResponseWriter, r *http.Request) {
	a.Metrics.Handler().ServeHTTP(w, r)
}
