package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tradewatch/tradewatch/internal/api"
	"github.com/tradewatch/tradewatch/internal/bus"
	"github.com/tradewatch/tradewatch/internal/config"
	"github.com/tradewatch/tradewatch/internal/cursor"
	"github.com/tradewatch/tradewatch/internal/engine"
	"github.com/tradewatch/tradewatch/internal/relay"
	"github.com/tradewatch/tradewatch/internal/session"
	"github.com/tradewatch/tradewatch/internal/transport"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("tradewatch starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.AuthKey == "" {
		slog.Error("TW_AUTH_KEY is required")
		os.Exit(1)
	}
	gw := transport.NewHTTPGateway(transport.Options{
		BaseURL:    cfg.BaseURL,
		AuthKey:    cfg.AuthKey,
		UserAgent:  cfg.UserAgent,
		RetryBase:  cfg.RetryBase,
		MaxRetries: cfg.MaxRetries,
	}, slog.Default())

	sess, err := session.Bootstrap(ctx, gw)
	if err != nil {
		slog.Error("login failed", "error", err)
		os.Exit(1)
	}
	gw.SetSessionCookie(sess.SessionCookie)
	slog.Info("logged in", "user", sess.Username, "user_id", sess.UserID, "locale", sess.Locale)

	// Cursor store: Postgres when a database is configured, a JSON file when a
	// path is, in-memory otherwise.
	var store cursor.Store
	switch {
	case cfg.DatabaseURL != "":
		pg, err := cursor.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		store = pg
		slog.Info("cursor store ready", "backend", "postgres")
	case cfg.CursorPath != "":
		store = cursor.NewFileStore(cfg.CursorPath)
		slog.Info("cursor store ready", "backend", "file", "path", cfg.CursorPath)
	default:
		store = cursor.NewMemoryStore()
		slog.Warn("no cursor persistence configured, messages replay as new after restart")
	}

	b := bus.New(cfg.BusCapacity)
	defer b.Close()

	eng := engine.New(gw, sess, store, b, engine.Config{
		PollInterval:    cfg.PollInterval,
		ErrorRetryDelay: cfg.ErrorRetryDelay,
	}, slog.Default())

	// NATS relay (optional — without it events stay on the in-process bus)
	if cfg.NatsURL != "" {
		rel, err := relay.New(cfg.NatsURL, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer rel.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
		go func() {
			if err := rel.Run(ctx, b.Subscribe()); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("relay stopped", "error", err)
			}
		}()
	} else {
		slog.Warn("NATS not configured, events are not relayed")
	}

	srv := api.NewServer(cfg.Port, eng)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	engineErr := make(chan error, 1)
	go func() {
		engineErr <- eng.Run(ctx)
	}()

	slog.Info("tradewatch ready", "port", cfg.Port, "poll_interval", cfg.PollInterval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutting down")
		cancel()
		<-engineErr
	case err := <-engineErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("engine stopped", "error", err)
			os.Exit(1)
		}
	}
	slog.Info("tradewatch stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
