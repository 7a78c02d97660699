// Package app assembles the booking pipeline from configuration. Both the
// HTTP server and the terminal client start from Build.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"techbook/internal/booking"
	"techbook/internal/command"
	"techbook/internal/config"
	"techbook/internal/entity"
	"techbook/internal/events"
	"techbook/internal/intent"
	"techbook/internal/logging"
	"techbook/internal/metrics"
	"techbook/internal/oracle"
	"techbook/internal/store"
	"techbook/internal/temporal"
)

// App holds the wired components.
type App struct {
	Config   *config.Config
	Store    store.Store
	SQLite   *store.SQLite // nil unless database.driver is sqlite
	Bus      *events.EventBus
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Redis    *redis.Client
	Oracles  *oracle.Set
	Engine   *booking.Engine
	Commands *command.Orchestrator

	logger *zerolog.Logger
}

// Build opens storage, warms up the oracles and wires the pipeline. A
// provider that cannot be warmed up is an error.
func Build(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, logger: logger}
	loc := cfg.Location()

	switch cfg.Database.Driver {
	case "sqlite":
		sq, err := store.NewSQLite(cfg.Database.Path, loc, logging.Component(logger, "store"))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		a.SQLite, a.Store = sq, sq
	default:
		a.Store = store.NewMemory()
	}

	if cfg.Booking.Seed {
		list, err := a.Store.ListActive(ctx)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		if len(list) == 0 {
			if err := store.Seed(ctx, a.Store, loc); err != nil {
				_ = a.Close()
				return nil, err
			}
			logger.Info().Int("count", len(store.SeedBookings(loc))).Msg("seeded demo bookings")
		}
	}

	a.Bus = events.NewEventBus(logging.Component(logger, "events"))
	a.Registry = prometheus.NewRegistry()
	a.Metrics = metrics.New(a.Registry)
	a.Metrics.Subscribe(a.Bus)
	events.SubscribeAudit(a.Bus, logging.Component(logger, "audit"))

	if cfg.Redis.Address != "" && cfg.Oracle.CacheTTLSeconds > 0 {
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	set, err := oracle.FromConfig(ctx, cfg.Oracle, a.Redis, a.Metrics)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Oracles = set
	if set.Warmer != nil {
		err = oracle.Warmup(ctx, cfg.Oracle.Provider, set.Warmer, cfg.Oracle.LoadRetries, cfg.Oracle.Backoff(), logging.Component(logger, "oracle"))
		if err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	a.Engine = booking.NewEngine(a.Store, logging.Component(logger, "engine"), booking.WithPublisher(a.Bus))

	resolver := intent.NewResolver(
		intent.NewRuleEngine(cfg.Intent.RuleBoost),
		intent.NewOracleSource(set.Classifier),
		intent.Options{
			Threshold:    cfg.Intent.Threshold,
			OracleWeight: cfg.Intent.OracleWeight,
			RuleWeight:   cfg.Intent.RuleWeight,
		},
		logging.Component(logger, "intent"),
	)
	times := temporal.New(temporal.Options{
		Location:     loc,
		EarliestHour: cfg.Booking.EarliestHour,
		LatestHour:   cfg.Booking.LatestHour,
		DefaultHour:  cfg.Booking.DefaultHour,
	})

	opts := command.DefaultOptions()
	opts.DefaultCustomerName = cfg.Booking.DefaultCustomerName
	opts.MinLength = cfg.Input.MinLength
	opts.MaxLength = cfg.Input.MaxLength

	a.Commands = command.New(command.Deps{
		Intents:  resolver,
		Entities: entity.NewExtractor(set.NER, cfg.Professions, logging.Component(logger, "entity")),
		Times:    times,
		Bookings: a.Engine,
		Recorder: a.Metrics,
	}, opts, logging.Component(logger, "orchestrator"))

	return a, nil
}

// Close releases the oracle clients, redis and the database.
func (a *App) Close() error {
	var errs []error
	if a.Oracles != nil {
		errs = append(errs, a.Oracles.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.SQLite != nil {
		errs = append(errs, a.SQLite.Close())
	}
	return errors.Join(errs...)
}
