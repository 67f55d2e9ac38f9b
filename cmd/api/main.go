package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"foodscan/internal/adapter/repo"
	"foodscan/internal/analysis"
	"foodscan/internal/domain"
	"foodscan/internal/http/handlers"
	httpapi "foodscan/internal/http/httpapi"
	"foodscan/internal/identity"
	"foodscan/internal/infra"
	"foodscan/internal/infra/geoip"
	"foodscan/internal/metrics"
	"foodscan/internal/providers/vision"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	ctx := context.Background()

	ledger, closeLedger, err := openLedger(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.LedgerDriver).Msg("failed to open usage ledger")
	}
	defer closeLedger()

	model, closeModel, err := vision.New(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.VisionProvider).Msg("failed to configure vision model")
	}
	defer func() { _ = closeModel() }()

	var resolver domain.IdentityResolver
	if cfg.JWTSecret != "" {
		resolver = identity.NewJWTResolver(cfg.JWTSecret, cfg.JWTAudience)
	} else {
		resolver = identity.NewSupabaseResolver(cfg.SupabaseURL, cfg.SupabaseAnonKey, &http.Client{Timeout: 10 * time.Second})
	}

	geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer func() { _ = geo.Close() }()

	m := metrics.New()
	svc := &analysis.Service{
		Identity: resolver,
		Ledger:   ledger,
		Model:    model,
		Limit:    cfg.DailyLimit,
		Window:   cfg.QuotaWindow,
		Logger:   logger,
		Metrics:  m,
	}
	app := &handlers.App{
		Analyzer:      svc,
		Logger:        logger,
		Metrics:       m,
		MaxImageBytes: cfg.MaxImageBytes,
		Provider:      model.Name(),
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   geo.Lookup(),
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("provider", model.Name()).
			Str("model", model.Model()).
			Str("ledger", cfg.LedgerDriver).
			Int("daily_limit", cfg.DailyLimit).
			Bool("development", cfg.IsDevelopment()).
			Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func openLedger(ctx context.Context, cfg *infra.Config, logger infra.Logger) (domain.UsageLedger, func(), error) {
	switch cfg.LedgerDriver {
	case infra.LedgerSQLite:
		l, err := repo.OpenUsageSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return l, func() { _ = l.Close() }, nil
	case infra.LedgerRedis:
		client, err := repo.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return repo.NewUsageRepositoryRedis(client, cfg.QuotaWindow), func() { _ = client.Close() }, nil
	default:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		runner := infra.NewSQLRunner(pool, logger)
		return repo.NewUsageRepository(runner), pool.Close, nil
	}
}
