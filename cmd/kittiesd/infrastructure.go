package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/kitties-ledger-go/config"
	"github.com/AntonStoeckl/kitties-ledger-go/eventstore/memoryengine"
	"github.com/AntonStoeckl/kitties-ledger-go/eventstore/postgresengine"
	"github.com/AntonStoeckl/kitties-ledger-go/runtime"
	"github.com/AntonStoeckl/kitties-ledger-go/state"
	"github.com/AntonStoeckl/kitties-ledger-go/state/memorystate"
	"github.com/AntonStoeckl/kitties-ledger-go/state/postgresstate"
)

type infrastructure struct {
	backend state.Backend
	sink    runtime.EventSink
	closers []func()
}

func (i infrastructure) close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		i.closers[j]()
	}
}

// postgresConnection holds the one connection kind the configured adapter needs.
type postgresConnection struct {
	pool *pgxpool.Pool
	db   *sqlx.DB
}

func openInfrastructure(ctx context.Context, cfg config.Config, obs observabilityStack) (infrastructure, error) {
	var infra infrastructure
	var conn postgresConnection

	if cfg.UsesPostgres() {
		var err error

		conn, err = openPostgres(ctx, cfg.Postgres)
		if err != nil {
			return infra, err
		}

		infra.closers = append(infra.closers, conn.close)
	}

	backend, err := openBackend(ctx, cfg, conn, obs)
	if err != nil {
		infra.close()
		return infrastructure{}, err
	}
	infra.backend = backend

	sink, err := openEventSink(ctx, cfg, conn, obs)
	if err != nil {
		infra.close()
		return infrastructure{}, err
	}
	infra.sink = sink

	return infra, nil
}

func openPostgres(ctx context.Context, cfg config.PostgresConfig) (postgresConnection, error) {
	if cfg.Adapter != config.AdapterPGX {
		db, err := config.PostgresSQLX(ctx, cfg)
		if err != nil {
			return postgresConnection{}, err
		}

		return postgresConnection{db: db}, nil
	}

	poolConfig, err := config.PostgresPGXPoolConfig(cfg)
	if err != nil {
		return postgresConnection{}, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return postgresConnection{}, fmt.Errorf("creating pgx pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return postgresConnection{}, fmt.Errorf("pinging postgres: %w", err)
	}

	return postgresConnection{pool: pool}, nil
}

func (c postgresConnection) close() {
	if c.pool != nil {
		c.pool.Close()
	}

	if c.db != nil {
		_ = c.db.Close()
	}
}

func openBackend(ctx context.Context, cfg config.Config, conn postgresConnection, obs observabilityStack) (state.Backend, error) {
	if cfg.Backend == config.BackendMemory {
		return memorystate.NewBackend(), nil
	}

	options := []postgresstate.Option{
		postgresstate.WithTableName(cfg.Postgres.StateTable),
		postgresstate.WithLogger(obs.logger),
	}

	var backend *postgresstate.Backend
	var err error

	switch cfg.Postgres.Adapter {
	case config.AdapterPGX:
		backend, err = postgresstate.NewBackendFromPGXPool(conn.pool, options...)
	case config.AdapterSQL:
		backend, err = postgresstate.NewBackendFromSQLDB(conn.db.DB, options...)
	default:
		backend, err = postgresstate.NewBackendFromSQLX(conn.db, options...)
	}

	if err != nil {
		return nil, fmt.Errorf("creating postgres state backend: %w", err)
	}

	if err = backend.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("creating state tables: %w", err)
	}

	return backend, nil
}

func openEventSink(ctx context.Context, cfg config.Config, conn postgresConnection, obs observabilityStack) (runtime.EventSink, error) {
	switch cfg.EventSink {
	case config.EventSinkNone:
		return nil, nil
	case config.EventSinkMemory:
		return memoryengine.NewEventStore(memoryengine.WithLogger(obs.logger)), nil
	}

	options := []postgresengine.Option{
		postgresengine.WithTableName(cfg.Postgres.EventTable),
		postgresengine.WithLogger(obs.logger),
		postgresengine.WithMetrics(obs.metricsCollector),
	}

	if obs.contextualLogger != nil {
		options = append(options, postgresengine.WithContextualLogger(obs.contextualLogger))
	}

	if obs.tracingCollector != nil {
		options = append(options, postgresengine.WithTracing(obs.tracingCollector))
	}

	var eventStore *postgresengine.EventStore
	var err error

	switch cfg.Postgres.Adapter {
	case config.AdapterPGX:
		eventStore, err = postgresengine.NewEventStoreFromPGXPool(conn.pool, options...)
	case config.AdapterSQL:
		eventStore, err = postgresengine.NewEventStoreFromSQLDB(conn.db.DB, options...)
	default:
		eventStore, err = postgresengine.NewEventStoreFromSQLX(conn.db, options...)
	}

	if err != nil {
		return nil, fmt.Errorf("creating postgres event store: %w", err)
	}

	if err = eventStore.EnsureTable(ctx); err != nil {
		return nil, fmt.Errorf("creating event table: %w", err)
	}

	return eventStore, nil
}
