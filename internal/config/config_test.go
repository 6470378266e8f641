package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, b := range envBindings() {
		t.Setenv(b.EnvVar, "")
		os.Unsetenv(b.EnvVar)
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("expected :8080, got %q", cfg.ListenAddr)
	}
	if cfg.BackendURL != "" {
		t.Errorf("expected empty backend url, got %q", cfg.BackendURL)
	}
	if cfg.ProductLimit != 24 {
		t.Errorf("expected limit 24, got %d", cfg.ProductLimit)
	}
	if cfg.BackendTimeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.BackendTimeout)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("expected 30m ttl, got %v", cfg.SessionTTL)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("expected json log format, got %q", cfg.LogFormat)
	}
	if cfg.CatalogTimeout != 5*time.Second {
		t.Errorf("expected 5s catalog timeout, got %v", cfg.CatalogTimeout)
	}
	if cfg.PageRateLimit != 60 {
		t.Errorf("expected page rate limit 60, got %d", cfg.PageRateLimit)
	}
	if got := cfg.BackendBase(); got != "http://localhost:8080" {
		t.Errorf("expected the public origin as backend base, got %q", got)
	}
}

func TestConfig_BackendBase(t *testing.T) {
	cfg := &Config{BackendURL: "https://api.example.com", PublicOrigin: "https://shop.example.com"}
	if got := cfg.BackendBase(); got != "https://api.example.com" {
		t.Errorf("expected BACKEND_URL to win, got %q", got)
	}
	cfg.BackendURL = ""
	if got := cfg.BackendBase(); got != "https://shop.example.com" {
		t.Errorf("expected PUBLIC_ORIGIN, got %q", got)
	}
}

func TestLoad_RelativeBackendNeedsPublicOrigin(t *testing.T) {
	t.Setenv("BACKEND_URL", "")
	t.Setenv("PUBLIC_ORIGIN", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err == nil || !strings.Contains(err.Error(), "PUBLIC_ORIGIN") {
		t.Fatalf("expected PUBLIC_ORIGIN error, got %v", err)
	}

	t.Setenv("PUBLIC_ORIGIN", "https://shop.example.com/")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.BackendBase(); got != "https://shop.example.com" {
		t.Errorf("expected trimmed public origin, got %q", got)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":3000")
	t.Setenv("BACKEND_URL", "https://api.example.com/")
	t.Setenv("BACKEND_TIMEOUT", "5s")
	t.Setenv("PRODUCT_LIMIT", "12")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("INQUIRY_RATE_LIMIT", "3")
	t.Setenv("METRICS_ADDR", "")
	t.Setenv("LOG_FORMAT", "TEXT")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ListenAddr != ":3000" {
		t.Errorf("expected :3000, got %q", cfg.ListenAddr)
	}
	if cfg.BackendURL != "https://api.example.com" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.BackendURL)
	}
	if cfg.BackendTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.BackendTimeout)
	}
	if cfg.ProductLimit != 12 {
		t.Errorf("expected 12, got %d", cfg.ProductLimit)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("expected 1h, got %v", cfg.SessionTTL)
	}
	if cfg.InquiryRateLimit != 3 {
		t.Errorf("expected 3, got %d", cfg.InquiryRateLimit)
	}
	if cfg.MetricsAddr != "" {
		t.Errorf("expected metrics disabled, got %q", cfg.MetricsAddr)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("expected text, got %q", cfg.LogFormat)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	os.Unsetenv("BACKEND_URL")
	t.Cleanup(func() { os.Unsetenv("BACKEND_URL") })

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BACKEND_URL=http://backend.local:8000\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BackendURL != "http://backend.local:8000" {
		t.Errorf("expected .env value, got %q", cfg.BackendURL)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("BACKEND_URL", "not a url")
	t.Setenv("PRODUCT_LIMIT", "0")
	t.Setenv("LOG_FORMAT", "xml")
	t.Setenv("BACKEND_TIMEOUT", "0s")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"BACKEND_URL", "PRODUCT_LIMIT", "LOG_FORMAT", "BACKEND_TIMEOUT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s: %v", want, err)
		}
	}
}
