package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"techbook/internal/api"
	"techbook/internal/app"
	"techbook/internal/config"
	"techbook/internal/database"
	"techbook/internal/logging"
	"techbook/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("TECHBOOK_CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, &logger); err != nil {
		logger.Error().Err(err).Msg("techbook server failed")
		os.Exit(1)
	}
}

// run owns every resource so deferred cleanup happens before main exits.
func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("start booking pipeline: %w", err)
	}
	defer a.Close()

	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, a.Metrics.Handler(), logger)
	}

	if a.SQLite != nil && cfg.Backup.Enabled {
		backups := database.NewBackupService(a.SQLite, cfg.Backup, cfg.Location(), logging.Component(logger, "backup"))
		if err := backups.Start(ctx); err != nil {
			return fmt.Errorf("schedule backups: %w", err)
		}
	}

	if cfg.Telegram.Enabled {
		bot, err := telegram.New(cfg.Telegram.BotToken, cfg.Telegram.Debug, a.Commands, logging.Component(logger, "telegram"))
		if err != nil {
			return fmt.Errorf("create telegram bot: %w", err)
		}
		go bot.Start(ctx)
	}

	var pinger api.Pinger
	if a.SQLite != nil {
		pinger = a.SQLite
	}
	server := api.NewHTTPServer(api.Options{
		Port:                cfg.HTTP.Port,
		DefaultCustomerName: cfg.Booking.DefaultCustomerName,
		DefaultProfession:   cfg.Booking.DefaultProfession,
		Location:            cfg.Location(),
		Version:             cfg.App.Version,
	}, a.Engine, a.Commands, a.Metrics, pinger, logging.Component(logger, "api"))

	logger.Info().
		Str("oracle", cfg.Oracle.Provider).
		Str("database", cfg.Database.Driver).
		Msg("techbook server started")

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info().Msg("techbook server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, handler http.Handler, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
