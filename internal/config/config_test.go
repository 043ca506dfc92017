package config

import (
	"strings"
	"testing"
	"time"
)

// setRequired sets the env vars without which Load refuses to start.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Fatalf("Port default = %q", cfg.Port)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode default = %q", cfg.GinMode)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel default = %q", cfg.LogLevel)
	}
	if cfg.APIBasePath != "/" {
		t.Fatalf("APIBasePath default = %q", cfg.APIBasePath)
	}
	if cfg.DBPath != "app.db" {
		t.Fatalf("DBPath default = %q", cfg.DBPath)
	}
	if cfg.HistoryLimit != 100 {
		t.Fatalf("HistoryLimit default = %d", cfg.HistoryLimit)
	}
	if cfg.Auth.TokenTTL != 1440*time.Minute {
		t.Fatalf("TokenTTL default = %v", cfg.Auth.TokenTTL)
	}
	if cfg.LLM.Backend != "ollama" {
		t.Fatalf("LLM.Backend default = %q", cfg.LLM.Backend)
	}
	if cfg.LLM.MaxTokens != 200 || cfg.LLM.RepeatPenalty != 1.2 || cfg.LLM.RepeatLastN != 64 {
		t.Fatalf("generation defaults mismatch: %+v", cfg.LLM)
	}
	if cfg.LLM.Temperature != 0.7 || cfg.LLM.TopK != 40 || cfg.LLM.TopP != 0.9 {
		t.Fatalf("sampling defaults mismatch: %+v", cfg.LLM)
	}
	if cfg.IdempotencyTTL != 24*time.Hour {
		t.Fatalf("IdempotencyTTL default = %v", cfg.IdempotencyTTL)
	}
	if cfg.OTEL.Enabled {
		t.Fatal("OTEL should be disabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9999")
	t.Setenv("GIN_MODE", "test")
	t.Setenv("LOG_LEVEL", "warning") // normalized to warn
	t.Setenv("TOKEN_TTL_MINUTES", "60")
	t.Setenv("LLM_BACKEND", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_MODEL", "gpt-4o-mini")
	t.Setenv("GEN_MAX_TOKENS", "512")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "9999" || cfg.GinMode != "test" {
		t.Fatalf("server overrides not applied: %+v", cfg)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LOG_LEVEL=warning should normalize to warn, got %q", cfg.LogLevel)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Fatalf("TokenTTL = %v", cfg.Auth.TokenTTL)
	}
	if cfg.LLM.Backend != "openai" || cfg.LLM.Model != "gpt-4o-mini" || cfg.LLM.MaxTokens != 512 {
		t.Fatalf("LLM overrides not applied: %+v", cfg.LLM)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("CORS parsing mismatch: %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_BoolParsing(t *testing.T) {
	setRequired(t)
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("OTEL_ENABLED", "on")
	t.Setenv("ENABLE_HSTS", "off")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.LogPretty || !cfg.OTEL.Enabled {
		t.Fatalf("truthy values not recognized: pretty=%v otel=%v", cfg.LogPretty, cfg.OTEL.Enabled)
	}
	if cfg.Security.EnableHSTS {
		t.Fatal("ENABLE_HSTS=off should disable HSTS")
	}
}

func TestLoad_BaseURLFallsBackToOllamaHost(t *testing.T) {
	setRequired(t)
	t.Setenv("LLM_BASE_URL", "")
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLM.BaseURL != "http://gpu-box:11434" {
		t.Fatalf("BaseURL = %q, want the OLLAMA_HOST value", cfg.LLM.BaseURL)
	}

	// With neither set, the local daemon default applies.
	t.Setenv("OLLAMA_HOST", "")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLM.BaseURL != "http://localhost:11434" {
		t.Fatalf("BaseURL default = %q", cfg.LLM.BaseURL)
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET"},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"bad backend", map[string]string{"LLM_BACKEND": "bard"}, "LLM_BACKEND"},
		{"openai without key", map[string]string{"LLM_BACKEND": "openai"}, "OPENAI_API_KEY"},
		{"zero ttl", map[string]string{"TOKEN_TTL_MINUTES": "0"}, "TOKEN_TTL_MINUTES"},
		{"bad top_p", map[string]string{"GEN_TOP_P": "1.5"}, "GEN_TOP_P"},
		{"bad penalty", map[string]string{"GEN_REPEAT_PENALTY": "0.5"}, "GEN_REPEAT_PENALTY"},
		{"bad burst", map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		{"bad history", map[string]string{"HISTORY_LIMIT": "0"}, "HISTORY_LIMIT"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatalf("expected error mentioning %s", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %s", err, tc.want)
			}
		})
	}
}

func TestMustLoad_PanicsOnInvalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	_ = MustLoad()
}

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":        "/",
		"/":       "/",
		"api":     "/api",
		"/api/":   "/api",
		"/api/v1": "/api/v1",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}
