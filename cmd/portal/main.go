// Package main is the entry point for the campus grievance portal client.
// It keeps a portal session, listens on the live notification channel and
// raises toasts for pushed events, and serves a small local API.
//
// Architecture:
//   - The auth session is the single owner of token and user
//   - The live channel follows the session; one connection per signed-in user
//   - Toasts fan out to the log, an in-memory history and the optional archive
//   - A polling fallback covers periods when the live channel is down
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aawaaz/grievance-portal/internal/assets"
	"github.com/aawaaz/grievance-portal/internal/auth"
	"github.com/aawaaz/grievance-portal/internal/cache"
	"github.com/aawaaz/grievance-portal/internal/client"
	"github.com/aawaaz/grievance-portal/internal/config"
	"github.com/aawaaz/grievance-portal/internal/database"
	"github.com/aawaaz/grievance-portal/internal/handlers"
	"github.com/aawaaz/grievance-portal/internal/live"
	"github.com/aawaaz/grievance-portal/internal/logger"
	"github.com/aawaaz/grievance-portal/internal/normalize"
	"github.com/aawaaz/grievance-portal/internal/services"
	"github.com/aawaaz/grievance-portal/internal/store"
	"github.com/aawaaz/grievance-portal/internal/toast"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	sugar := log.Sugar()

	sugar.Infow("Starting grievance portal client",
		"port", cfg.Port,
		"env", cfg.Environment,
		"api_url", cfg.APIBaseURL,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Toast fan-out
	history := toast.NewHistory(100)
	var notifier toast.Notifier = toast.Multi{toast.NewLogNotifier(sugar), history}

	// Optional archive
	var archivePinger handlers.Pinger
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPool(ctx, cfg.DatabaseURL, sugar)
		if err != nil {
			sugar.Fatalf("Failed to connect to archive database: %v", err)
		}
		defer pool.Close()

		archive := services.NewArchive(notifier, pool, sugar)
		if err := archive.EnsureSchema(ctx); err != nil {
			sugar.Fatalf("Failed to prepare archive: %v", err)
		}
		notifier = archive
		archivePinger = archive
	}

	// Session and API client
	session := auth.NewSession()
	norm := normalize.New(assets.FromAPIBase(cfg.APIBaseURL))

	opts := []client.Option{
		client.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		client.WithUnauthorizedHook(session.Logout),
	}
	var cachePinger handlers.Pinger
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(cfg.RedisURL, sugar)
		if err != nil {
			sugar.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rc.Close()
		opts = append(opts, client.WithCache(rc, cfg.CacheTTL))
		cachePinger = rc
	}
	api := client.New(cfg.APIBaseURL, session, norm, sugar, opts...)

	// Live channel follows the session
	endpoint := cfg.LiveURL
	if endpoint == "" {
		endpoint = live.Endpoint(cfg.APIBaseURL)
	}
	channel := live.NewChannel(endpoint, live.NewWSDialer(cfg.HTTPTimeout), notifier, live.Options{
		Attempts: cfg.ReconnectAttempts,
		Delay:    cfg.ReconnectDelay,
		MaxDelay: 5 * time.Second,
	}, sugar)
	unbind := channel.Bind(session)
	defer channel.Close()
	defer unbind()

	if cfg.Token != "" {
		user, err := api.Login(ctx, session, cfg.Token)
		if err != nil {
			sugar.Errorw("Sign-in with PORTAL_TOKEN failed", "error", err)
		} else {
			sugar.Infow("Signed in", "user_id", user.ID, "role", user.Role)
		}
	}

	// Polling fallback
	if state, err := store.Open(cfg.StatePath); err != nil {
		sugar.Warnw("Polling fallback disabled", "path", cfg.StatePath, "error", err)
	} else {
		poller := services.NewPoller(api, state, channel, session, notifier, sugar)
		pollerDone := poller.Run(ctx, cfg.PollInterval)
		// the poller must stop before its state file closes
		defer func() {
			<-pollerDone
			state.Close()
		}()
	}

	// Local API
	complaintSvc := services.NewComplaintService(api, sugar)
	router := handlers.Router{
		Health:         handlers.NewHealthHandler(channel, archivePinger, cachePinger, sugar),
		Status:         handlers.NewStatusHandler(channel, session, history),
		Complaints:     handlers.NewComplaintHandler(complaintSvc, sugar),
		Session:        session,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         log,
	}.Build(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sugar.Infof("Local API listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Forced shutdown", "error", err)
	}

	sugar.Info("Stopped")
}
