// Package app assembles the identifier service from configuration. The
// server and the uidctl command share it so both allocate against the same
// stores with the same retry policy.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sportsuid/internal/platform/config"
	"sportsuid/internal/platform/postgres"
	"sportsuid/internal/platform/redis"
	"sportsuid/internal/uid/allocator"
	"sportsuid/internal/uid/events"
	"sportsuid/internal/uid/metrics"
	"sportsuid/internal/uid/ports"
	"sportsuid/internal/uid/service"
	"sportsuid/internal/uid/store/counter"
	"sportsuid/internal/uid/store/ledger"
	"sportsuid/pkg/platform/backoff"
	"sportsuid/pkg/platform/circuit"
)

// publishCooldown is how long a failing broker is left alone.
const publishCooldown = 30 * time.Second

// App is a wired service plus the resources it holds.
type App struct {
	Service *service.Service
	Metrics *metrics.Metrics
	// Counter is nil under the optimistic strategy.
	Counter ports.CounterStore
	Ledger  ports.Ledger
	DB      *sql.DB
	Redis   *redis.Client
	Kafka   *events.KafkaPublisher

	logger  *slog.Logger
	closers []func() error
}

// Option adjusts how Build wires the App.
type Option func(*buildOptions)

type buildOptions struct {
	registry  prometheus.Registerer
	publisher bool
}

// WithRegistry registers metrics on reg instead of the default registry.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(o *buildOptions) { o.registry = reg }
}

// WithoutPublisher skips Kafka even when brokers are configured. Used by
// offline tooling.
func WithoutPublisher() Option {
	return func(o *buildOptions) { o.publisher = false }
}

// Build connects the configured backend and returns a ready App. Close must
// be called to release connections.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	bo := buildOptions{registry: prometheus.DefaultRegisterer, publisher: true}
	for _, opt := range opts {
		opt(&bo)
	}

	a := &App{logger: logger, Metrics: metrics.NewWithRegistry(bo.registry)}
	if err := a.connect(ctx, cfg); err != nil {
		_ = a.Close()
		return nil, err
	}

	allocOpts := []allocator.Option{
		allocator.WithLogger(logger),
		allocator.WithMaxAttempts(cfg.Allocator.MaxAttempts),
		allocator.WithBackoff(backoff.NewLinearWithJitter(cfg.Allocator.BaseBackoff, cfg.Allocator.MaxBackoff)),
		allocator.WithRetryObserver(a.Metrics),
	}
	var alloc service.Allocator
	switch cfg.Strategy {
	case config.StrategyOptimistic:
		if a.Ledger == nil {
			_ = a.Close()
			return nil, fmt.Errorf("optimistic strategy needs a ledger, which backend %q does not provide", cfg.Backend)
		}
		a.Counter = nil
		alloc = allocator.NewOptimisticAllocator(a.Ledger,
			append(allocOpts, allocator.WithConflictAttempts(cfg.Allocator.ConflictAttempts))...)
	default:
		var led ports.Ledger
		if cfg.Ledger {
			led = a.Ledger
		}
		alloc = allocator.NewCounterAllocator(a.Counter, led, allocOpts...)
	}

	svcOpts := []service.Option{
		service.WithLogger(logger),
		service.WithMetrics(a.Metrics),
		service.WithAllocationTimeout(cfg.Allocator.Timeout),
		service.WithBatchLimits(cfg.Allocator.BatchConcurrency, cfg.Allocator.MaxBatchSize),
	}
	if a.Ledger != nil {
		svcOpts = append(svcOpts, service.WithLedger(a.Ledger))
	}
	if bo.publisher && len(cfg.Kafka.Brokers) > 0 {
		pub, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, events.WithLogger(logger))
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Kafka = pub
		a.closers = append(a.closers, func() error { pub.Close(); return nil })
		breaker := circuit.New("kafka", circuit.WithCooldown(publishCooldown))
		svcOpts = append(svcOpts, service.WithPublisher(events.NewGuarded(pub, breaker, logger)))
	} else {
		svcOpts = append(svcOpts, service.WithPublisher(events.Noop{}))
	}

	svc, err := service.New(alloc, svcOpts...)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Service = svc

	logger.InfoContext(ctx, "identifier service ready",
		"backend", cfg.Backend,
		"strategy", cfg.Strategy,
		"ledger", a.Ledger != nil,
		"events", a.Kafka != nil,
	)
	return a, nil
}

func (a *App) connect(ctx context.Context, cfg config.Config) error {
	switch cfg.Backend {
	case config.BackendMemory:
		a.Counter = counter.NewInMemoryStore()
		if cfg.UsesLedger() {
			a.Ledger = ledger.NewInMemoryStore()
		}
		a.logger.WarnContext(ctx, "memory backend: identifiers restart from 00001 on every boot")

	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		a.DB = db
		a.closers = append(a.closers, db.Close)
		if cfg.Postgres.Migrate {
			if err := postgres.Migrate(ctx, db, a.logger); err != nil {
				return err
			}
		}
		a.Counter = counter.NewPostgres(db)
		if cfg.UsesLedger() {
			a.Ledger = ledger.NewPostgres(db)
		}

	case config.BackendRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		a.Redis = client
		a.closers = append(a.closers, client.Close)
		a.Counter = counter.NewRedis(client.Client)

	case config.BackendFile:
		a.Counter = counter.NewFile(cfg.File.Path, cfg.File.LockRetryWait)

	default:
		return fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	return nil
}

// Health reports whether the backing stores answer.
func (a *App) Health(ctx context.Context) error {
	var errs []error
	if a.DB != nil {
		if err := a.DB.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Health(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
