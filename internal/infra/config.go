package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	LedgerPostgres = "postgres"
	LedgerSQLite   = "sqlite"
	LedgerRedis    = "redis"

	ProviderGemini = "gemini"
	ProviderVertex = "vertex"
	ProviderOpenAI = "openai"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv        string
	Port          string
	DefaultLocale string
	GeoIPDBPath   string

	// Hosted backend (auth + data).
	SupabaseURL     string
	SupabaseAnonKey string
	JWTSecret       string
	JWTAudience     string

	LedgerDriver string
	DatabaseURL  string
	SQLitePath   string
	RedisURL     string

	VisionProvider        string
	GeminiAPIKey          string
	GeminiModel           string
	GeminiBaseURL         string
	OpenAIAPIKey          string
	OpenAIModel           string
	OpenAIBaseURL         string
	VertexProjectID       string
	VertexLocation        string
	VertexModel           string
	VertexCredentialsFile string
	ModelTimeout          time.Duration

	DailyLimit    int
	QuotaWindow   time.Duration
	MaxImageBytes int64

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "8080"),
		DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		GeoIPDBPath:   os.Getenv("GEOIP_DB_PATH"),

		SupabaseURL:     strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		SupabaseAnonKey: os.Getenv("SUPABASE_ANON_KEY"),
		JWTSecret:       os.Getenv("AUTH_JWT_SECRET"),
		JWTAudience:     getEnv("AUTH_JWT_AUDIENCE", "authenticated"),

		LedgerDriver: strings.ToLower(getEnv("LEDGER_DRIVER", LedgerPostgres)),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		SQLitePath:   getEnv("SQLITE_PATH", "foodscan.db"),
		RedisURL:     os.Getenv("REDIS_URL"),

		VisionProvider:        strings.ToLower(getEnv("VISION_PROVIDER", ProviderGemini)),
		GeminiAPIKey:          strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:         getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OpenAIAPIKey:          strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		VertexProjectID:       os.Getenv("VERTEX_PROJECT_ID"),
		VertexLocation:        getEnv("VERTEX_LOCATION", "us-central1"),
		VertexModel:           getEnv("VERTEX_MODEL", "gemini-1.5-flash"),
		VertexCredentialsFile: os.Getenv("VERTEX_CREDENTIALS_FILE"),
		ModelTimeout:          time.Second * time.Duration(getEnvInt("MODEL_TIMEOUT_SECONDS", 60)),

		DailyLimit:    getEnvInt("ANALYSIS_DAILY_LIMIT", 5),
		QuotaWindow:   time.Hour * time.Duration(getEnvInt("ANALYSIS_WINDOW_HOURS", 24)),
		MaxImageBytes: int64(getEnvInt("MAX_IMAGE_BYTES", 10<<20)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 90)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_ANON_KEY is required")
	}

	switch cfg.VisionProvider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required")
		}
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required")
		}
	case ProviderVertex:
		if cfg.VertexProjectID == "" {
			return nil, fmt.Errorf("VERTEX_PROJECT_ID is required")
		}
	default:
		return nil, fmt.Errorf("unsupported VISION_PROVIDER %q", cfg.VisionProvider)
	}

	switch cfg.LedgerDriver {
	case LedgerPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	case LedgerRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required")
		}
	case LedgerSQLite:
	default:
		return nil, fmt.Errorf("unsupported LEDGER_DRIVER %q", cfg.LedgerDriver)
	}

	if cfg.DailyLimit <= 0 {
		return nil, fmt.Errorf("ANALYSIS_DAILY_LIMIT must be positive")
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c != nil && isDevelopment(c.AppEnv)
}

func isDevelopment(appEnv string) bool {
	return strings.EqualFold(strings.TrimSpace(appEnv), "development")
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
