package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"foodscan/internal/http/handlers"
	"foodscan/internal/middleware"
)

type Options struct {
	Logger          zerolog.Logger
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	// CORS runs first so pre-flight requests never reach routing.
	r.Use(
		middleware.CORS,
		middleware.RequestID,
		chimw.RealIP,
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/metrics", app.ServeMetrics)

	limited := r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	limited.Post("/v1/analyze-food", app.AnalyzeFood)
	limited.Post("/functions/v1/analyze-food", app.AnalyzeFood)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	})

	return r
}
