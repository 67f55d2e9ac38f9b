package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"foodscan/internal/analysis"
	"foodscan/internal/metrics"
)

// Analyzer runs the analysis pipeline for one request.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

type App struct {
	Analyzer      Analyzer
	Logger        zerolog.Logger
	Metrics       *metrics.Analysis
	MaxImageBytes int64
	Provider      string
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// error writes the {"error": msg} body every failure uses.
func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}
