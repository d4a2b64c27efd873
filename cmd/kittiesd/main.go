// Command kittiesd hosts the kitties ledger. It reads one call per line as JSON from stdin,
// dispatches it and writes the outcome as one JSON line to stdout.
//
// Input lines look like:
//
//	{"call":"create","signer":1}
//	{"call":"breed","signer":1,"parent_a":0,"parent_b":1}
//	{"call":"transfer","signer":1,"recipient":2,"kitty_id":0}
//
// Configuration is read from the YAML file given with -config (or KITTIES_CONFIG) and KITTIES_*
// environment variables. Prometheus metrics are served on the configured address.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"

	"github.com/AntonStoeckl/kitties-ledger-go/config"
	"github.com/AntonStoeckl/kitties-ledger-go/eventstore"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/breeding"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/shell"
	"github.com/AntonStoeckl/kitties-ledger-go/observability"
	"github.com/AntonStoeckl/kitties-ledger-go/runtime"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "kittiesd: %v\n", err)
		os.Exit(1)
	}
}

type observabilityStack struct {
	logger           *slog.Logger
	contextualLogger eventstore.ContextualLogger
	metricsCollector eventstore.MetricsCollector
	tracingCollector eventstore.TracingCollector
}

func run(ctx context.Context, configPath string, in io.Reader, out io.Writer, logOut io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(logOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	obs := observabilityStack{logger: logger}

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer shutdownWithTimeout(logger, "tracing", shutdownTracing)

	if cfg.Tracing.Endpoint != "" {
		obs.tracingCollector = observability.NewTracingCollector(otel.Tracer(cfg.Tracing.ServiceName))
		obs.contextualLogger = observability.NewContextualLogger(cfg.Tracing.ServiceName, global.GetLoggerProvider(), logger.Handler())
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	obs.metricsCollector = observability.NewPrometheusCollector(registry, observability.WithNamespace(cfg.Metrics.Namespace))

	if cfg.Metrics.Addr != "" {
		shutdownMetrics := serveMetrics(cfg.Metrics.Addr, registry, logger)
		defer shutdownWithTimeout(logger, "metrics server", shutdownMetrics)
	}

	infra, err := openInfrastructure(ctx, cfg, obs)
	if err != nil {
		return err
	}
	defer infra.close()

	rt, err := runtime.New(ctx, infra.backend, runtimeOptions(cfg, obs, infra.sink)...)
	if err != nil {
		return fmt.Errorf("creating runtime: %w", err)
	}

	logger.Info("kittiesd: ready", "backend", cfg.Backend, "event_sink", cfg.EventSink, "metrics_addr", cfg.Metrics.Addr)

	return serveCalls(ctx, rt, in, out)
}

func runtimeOptions(cfg config.Config, obs observabilityStack, sink runtime.EventSink) []runtime.Option {
	options := []runtime.Option{
		// kittiesd is a single node without a block producer, so wall time is the block time.
		runtime.WithClock(time.Now),
		runtime.WithLogger(obs.logger),
		runtime.WithMetrics(obs.metricsCollector),
		runtime.WithEntropy(breeding.NewBlake2Source([]byte(cfg.EntropySeed))),
		runtime.WithRetryOptions(
			shell.WithMaxAttempts(cfg.Retry.MaxAttempts),
			shell.WithBaseDelay(cfg.Retry.BaseDelay),
			shell.WithJitterFactor(cfg.Retry.JitterFactor),
		),
	}

	if obs.contextualLogger != nil {
		options = append(options, runtime.WithContextualLogger(obs.contextualLogger))
	}

	if obs.tracingCollector != nil {
		options = append(options, runtime.WithTracing(obs.tracingCollector))
	}

	if sink != nil {
		options = append(options, runtime.WithEventSink(sink))
	}

	if len(cfg.Genesis) > 0 {
		options = append(options, runtime.WithGenesis(genesisFrom(cfg.Genesis)))
	}

	return options
}

// genesisFrom expects validated genesis kitties.
func genesisFrom(kitties []config.GenesisKittyConfig) runtime.Genesis {
	genesis := runtime.Genesis{Kitties: make([]runtime.GenesisKitty, 0, len(kitties))}

	for _, kitty := range kitties {
		dna, _ := kitty.Genome()
		genesis.Kitties = append(genesis.Kitties, runtime.GenesisKitty{Owner: kitty.Owner, DNA: dna})
	}

	return genesis
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *slog.Logger) func(context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("kittiesd: metrics server failed", "error", err.Error())
		}
	}()

	return server.Shutdown
}

func shutdownWithTimeout(logger *slog.Logger, name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := shutdown(ctx); err != nil {
		logger.Warn("kittiesd: shutdown failed", "component", name, "error", err.Error())
	}
}
