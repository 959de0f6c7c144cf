// Package main serves the OAuth2 authorization callback that stores Discord grants.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-training/oauth-callback/pkg/callback"
	"github.com/go-training/oauth-callback/pkg/config"
	"github.com/go-training/oauth-callback/pkg/logger"
	"github.com/go-training/oauth-callback/pkg/provider"
	"github.com/go-training/oauth-callback/pkg/store"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
)

func main() {
	var addr string
	flag.StringVar(&addr, "addr", ":8080", "address to listen on")
	flag.Parse()

	cfg, err := config.Load()
	logger.NewWithLevel(cfg.LogLevel)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Port != "" {
		addr = ":" + cfg.Port
	}
	if os.Getenv("ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// The service still starts so every callback can answer with a Configuration Error page.
	if missing := cfg.Missing(); len(missing) > 0 {
		slog.Warn("Configuration incomplete", "missing", missing)
	}

	storeConfig := store.FromSettings(cfg.Store)
	stores := store.NewLazyFromConfig(storeConfig)
	slog.Info("Using store", "type", storeConfig.Type, "collection", cfg.Store.Collection)

	handler := callback.NewHandler(callback.Options{
		Config: cfg,
		Provider: provider.New(provider.Options{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURI:  cfg.RedirectURI,
			APIBaseURL:   cfg.APIBaseURL,
			AuthorizeURL: cfg.AuthorizeURL,
			Timeout:      cfg.RequestTimeout,
		}),
		Stores:   stores,
		RetryURL: callback.LoginPath,
	})
	router := callback.NewRouter(handler, cfg.CallbackPath)

	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	m := graceful.NewManager()
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			slog.Info("Shutdown signal received, shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("Server forced to shutdown", "err", err)
			}
		}()

		slog.Info("OAuth callback server listening", "addr", addr, "path", cfg.CallbackPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "err", err)
			return err
		}
		return nil
	})
	m.AddShutdownJob(func() error {
		if err := stores.Close(); err != nil {
			slog.Error("Failed to close store", "error", err)
			return err
		}
		slog.Info("Server shutdown gracefully")
		return nil
	})

	<-m.Done()
}
