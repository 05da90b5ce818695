// Package main is the entry point for the Mentoro server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mentorocms/internal/authz"
	"mentorocms/internal/cache"
	"mentorocms/internal/config"
	"mentorocms/internal/database"
	"mentorocms/internal/editorial"
	"mentorocms/internal/handlers"
	"mentorocms/internal/middleware"
	"mentorocms/internal/router"
	"mentorocms/internal/session"
	"mentorocms/internal/store"
	"mentorocms/internal/workflow"
)

// Login attempts allowed per client IP and window.
const (
	loginLimit  = 10
	loginWindow = time.Minute
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables and the editorial policy.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"languages", cfg.Editorial.Languages,
		"editor_groups", cfg.Editorial.EditorGroups,
	)

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development accounts (no-op if they already exist).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Valkey holds sessions and cached public pages.
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyAddr(), cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)
	pageCache := cache.NewPageCache(valkeyClient, cfg.Editorial.PageCacheTTL())

	userStore := store.NewUserStore(db)
	revisionStore := store.NewRevisionStore(db)
	cacheLogStore := store.NewCacheLogStore(db)

	machine := workflow.NewMachine(authz.NewPolicy(cfg.Editorial.EditorGroups))
	svc := editorial.New(machine, editorial.NewSQLStore(db), editorial.Options{
		Languages:       cfg.Editorial.Languages,
		DefaultLanguage: cfg.Editorial.DefaultLanguage,
		Cache:           pageCache,
		CacheLog:        cacheLogStore,
	})

	loginLimiter := middleware.NewRateLimiter(loginLimit, loginWindow)
	defer loginLimiter.Stop()

	r := router.New(router.Deps{
		Sessions:      sessionStore,
		Users:         userStore,
		SecureCookies: secureCookies,
		LoginLimiter:  loginLimiter,
		Auth:          handlers.NewAuth(sessionStore, userStore),
		Editorial:     handlers.NewEditorial(svc, revisionStore, cacheLogStore),
		UserAdmin:     handlers.NewUsers(userStore),
		Public:        handlers.NewPublic(svc, pageCache),
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
