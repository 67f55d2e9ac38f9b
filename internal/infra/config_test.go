package infra

import (
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SUPABASE_URL", "https://project.supabase.co/")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("VISION_PROVIDER", "")
	t.Setenv("LEDGER_DRIVER", "")
	t.Setenv("ANALYSIS_DAILY_LIMIT", "")
	t.Setenv("ANALYSIS_WINDOW_HOURS", "")
	t.Setenv("MODEL_TIMEOUT_SECONDS", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.SupabaseURL != "https://project.supabase.co" {
		t.Fatalf("SupabaseURL = %q", cfg.SupabaseURL)
	}
	if cfg.VisionProvider != ProviderGemini {
		t.Fatalf("VisionProvider = %q, want %q", cfg.VisionProvider, ProviderGemini)
	}
	if cfg.LedgerDriver != LedgerPostgres {
		t.Fatalf("LedgerDriver = %q, want %q", cfg.LedgerDriver, LedgerPostgres)
	}
	if cfg.DailyLimit != 5 {
		t.Fatalf("DailyLimit = %d, want 5", cfg.DailyLimit)
	}
	if cfg.QuotaWindow != 24*time.Hour {
		t.Fatalf("QuotaWindow = %s, want 24h", cfg.QuotaWindow)
	}
	if cfg.ModelTimeout != 60*time.Second {
		t.Fatalf("ModelTimeout = %s, want 60s", cfg.ModelTimeout)
	}
}

func TestLoadConfigFailsClosedWithoutModelKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when GEMINI_API_KEY is missing")
	}
}

func TestLoadConfigRequiresBackend(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "url", key: "SUPABASE_URL"},
		{name: "anon key", key: "SUPABASE_ANON_KEY"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tc.key, "")
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected error when %s is missing", tc.key)
			}
		})
	}
}

func TestLoadConfigProviderCredentials(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		env      map[string]string
		wantErr  bool
	}{
		{name: "openai without key", provider: "openai", wantErr: true},
		{name: "openai with key", provider: "openai", env: map[string]string{"OPENAI_API_KEY": "sk"}},
		{name: "vertex without project", provider: "vertex", wantErr: true},
		{name: "vertex with project", provider: "vertex", env: map[string]string{"VERTEX_PROJECT_ID": "proj"}},
		{name: "unknown provider", provider: "llava", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv("VISION_PROVIDER", tc.provider)
			t.Setenv("OPENAI_API_KEY", "")
			t.Setenv("VERTEX_PROJECT_ID", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadConfigLedgerDrivers(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("LEDGER_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("sqlite ledger should not need DATABASE_URL: %v", err)
	}
	if cfg.SQLitePath != "foodscan.db" {
		t.Fatalf("SQLitePath = %q", cfg.SQLitePath)
	}

	t.Setenv("LEDGER_DRIVER", "redis")
	t.Setenv("REDIS_URL", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when REDIS_URL is missing")
	}
}

func TestConfigIsDevelopment(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"development", true},
		{" Development ", true},
		{"production", false},
		{"cli", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := (&Config{AppEnv: tc.env}).IsDevelopment(); got != tc.want {
			t.Errorf("IsDevelopment(%q) = %v, want %v", tc.env, got, tc.want)
		}
	}
	var nilCfg *Config
	if nilCfg.IsDevelopment() {
		t.Error("nil config reported development")
	}
}
