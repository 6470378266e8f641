// Package config loads storefront settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the storefront's runtime configuration.
type Config struct {
	ListenAddr string
	// BackendURL is the base of the catalog backend. Empty means the backend
	// is reached relative to the storefront's own origin.
	BackendURL string
	// PublicOrigin is the storefront's own scheme://host. Request headers are
	// never used for this.
	PublicOrigin   string
	BackendTimeout time.Duration
	// CatalogTimeout bounds the product fetch that GET / waits on.
	CatalogTimeout time.Duration
	ProductLimit   int

	SessionTTL       time.Duration
	InquiryRateLimit int
	PageRateLimit    int

	// MetricsAddr is where /metrics listens. Empty disables it.
	MetricsAddr string

	LogLevel  string
	LogFormat string
}

// envBinding maps a config key to its environment variable.
type envBinding struct {
	Key    string
	EnvVar string
}

func envBindings() []envBinding {
	return []envBinding{
		{"listen_addr", "LISTEN_ADDR"},
		{"backend.url", "BACKEND_URL"},
		{"public_origin", "PUBLIC_ORIGIN"},
		{"backend.timeout", "BACKEND_TIMEOUT"},
		{"catalog.timeout", "CATALOG_TIMEOUT"},
		{"catalog.limit", "PRODUCT_LIMIT"},
		{"session.ttl", "SESSION_TTL"},
		{"inquiry.rate_limit", "INQUIRY_RATE_LIMIT"},
		{"page.rate_limit", "PAGE_RATE_LIMIT"},
		{"metrics.addr", "METRICS_ADDR"},
		{"log.level", "LOG_LEVEL"},
		{"log.format", "LOG_FORMAT"},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("backend.url", "")
	v.SetDefault("public_origin", "http://localhost:8080")
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("catalog.timeout", 5*time.Second)
	v.SetDefault("catalog.limit", 24)
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("inquiry.rate_limit", 10)
	v.SetDefault("page.rate_limit", 60)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("log.level", "INFO")
	v.SetDefault("log.format", "json")
}

// Load reads .env files (when present) and the process environment.
// Files named in envFiles are loaded in order; existing variables win.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	}

	v := viper.New()
	// METRICS_ADDR= and BACKEND_URL= are meaningful empty values.
	v.AllowEmptyEnv(true)
	setDefaults(v)
	for _, b := range envBindings() {
		if err := v.BindEnv(b.Key, b.EnvVar); err != nil {
			return nil, fmt.Errorf("bind %s: %w", b.EnvVar, err)
		}
	}

	cfg := &Config{
		ListenAddr:       v.GetString("listen_addr"),
		BackendURL:       strings.TrimRight(strings.TrimSpace(v.GetString("backend.url")), "/"),
		PublicOrigin:     strings.TrimRight(strings.TrimSpace(v.GetString("public_origin")), "/"),
		BackendTimeout:   v.GetDuration("backend.timeout"),
		CatalogTimeout:   v.GetDuration("catalog.timeout"),
		ProductLimit:     v.GetInt("catalog.limit"),
		SessionTTL:       v.GetDuration("session.ttl"),
		InquiryRateLimit: v.GetInt("inquiry.rate_limit"),
		PageRateLimit:    v.GetInt("page.rate_limit"),
		MetricsAddr:      v.GetString("metrics.addr"),
		LogLevel:         v.GetString("log.level"),
		LogFormat:        strings.ToLower(v.GetString("log.format")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BackendBase is the base URL the backend client calls: BACKEND_URL, or the
// storefront's own PUBLIC_ORIGIN when that is empty.
func (c *Config) BackendBase() string {
	if c.BackendURL != "" {
		return c.BackendURL
	}
	return c.PublicOrigin
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.ListenAddr == "" {
		errs = append(errs, errors.New("LISTEN_ADDR must not be empty"))
	}
	if c.BackendURL != "" && !isAbsoluteURL(c.BackendURL) {
		errs = append(errs, fmt.Errorf("BACKEND_URL %q must be an absolute URL", c.BackendURL))
	}
	if c.BackendURL == "" && !isAbsoluteURL(c.PublicOrigin) {
		errs = append(errs, fmt.Errorf("PUBLIC_ORIGIN %q must be an absolute URL when BACKEND_URL is empty", c.PublicOrigin))
	}
	// Form posts finish their backend call even if the visitor navigates
	// away, so the call needs its own bound.
	if c.BackendTimeout <= 0 {
		errs = append(errs, errors.New("BACKEND_TIMEOUT must be positive"))
	}
	if c.CatalogTimeout <= 0 {
		errs = append(errs, errors.New("CATALOG_TIMEOUT must be positive"))
	}
	if c.ProductLimit <= 0 {
		errs = append(errs, fmt.Errorf("PRODUCT_LIMIT must be positive, got %d", c.ProductLimit))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.InquiryRateLimit <= 0 {
		errs = append(errs, fmt.Errorf("INQUIRY_RATE_LIMIT must be positive, got %d", c.InquiryRateLimit))
	}
	if c.PageRateLimit <= 0 {
		errs = append(errs, fmt.Errorf("PAGE_RATE_LIMIT must be positive, got %d", c.PageRateLimit))
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
