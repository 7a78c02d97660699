package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"techbook/internal/app"
	"techbook/internal/cli"
	"techbook/internal/config"
	"techbook/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("TECHBOOK_CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so they do not interleave with the prompt.
	logger, err := logging.New(os.Stderr, cfg.Log.Level, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, &logger); err != nil {
		logger.Error().Err(err).Msg("cli terminated")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize language processor: %w", err)
	}
	defer a.Close()

	repl := cli.New(a.Commands, a.Engine, logging.Component(logger, "cli"))
	if err := repl.Run(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
