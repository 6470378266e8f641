package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skfurniture/storefront/internal/config"
	"github.com/skfurniture/storefront/internal/handler"
	"github.com/skfurniture/storefront/internal/logging"
	"github.com/skfurniture/storefront/internal/metrics"
	"github.com/skfurniture/storefront/internal/page"
	"github.com/skfurniture/storefront/internal/web"
	"github.com/skfurniture/storefront/pkg/backend"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("INFO", "json")
		logging.Fatal("failed to load config", "error", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	renderer, err := web.NewRenderer()
	if err != nil {
		logging.Fatal("failed to parse templates", "error", err)
	}

	// Empty BACKEND_URL: the backend is reached on the storefront's own
	// PUBLIC_ORIGIN.
	backendClient := backend.NewClient(cfg.BackendBase(), cfg.BackendTimeout)
	pages := page.NewStore(cfg.SessionTTL, cfg.SessionTTL/2)

	h := handler.New(pages)
	storefrontHandler := handler.NewStorefrontHandler(pages, backendClient, renderer, cfg.ProductLimit, cfg.CatalogTimeout)

	limiter := handler.NewRateLimiter(cfg.InquiryRateLimit, 1)
	defer limiter.Stop()
	// Every GET / mounts a page session, so page views are limited too.
	pageLimiter := handler.NewRateLimiter(cfg.PageRateLimit, 1)
	defer pageLimiter.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.Health)
	mux.Handle("GET /static/", web.Static())
	mux.Handle("GET /{$}", pageLimiter.Middleware(http.HandlerFunc(storefrontHandler.Index)))

	// Form posts are rate limited per client IP.
	mux.Handle("POST /inquire", limiter.Middleware(http.HandlerFunc(storefrontHandler.Inquire)))
	mux.Handle("POST /contact", limiter.Middleware(http.HandlerFunc(storefrontHandler.Contact)))

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.RequestLogger(handler.SecurityHeaders(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Leaves room for a full backend call inside a form post.
		WriteTimeout: cfg.BackendTimeout + 10*time.Second,
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = metrics.NewServer(cfg.MetricsAddr)
		go func() {
			slog.Info("metrics listening", "addr", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server error", "error", err)
			}
		}()
	}

	go func() {
		slog.Info("storefront listening",
			"addr", server.Addr,
			"backend_url", cfg.BackendBase(),
			"product_limit", cfg.ProductLimit,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("metrics shutdown error", "error", err)
		}
	}
}
