package runtime

import (
	"errors"
	"time"

	"github.com/AntonStoeckl/kitties-ledger-go/eventstore"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/breeding"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/shell"
)

var (
	// ErrNilEventSink is returned when a nil event sink is supplied.
	ErrNilEventSink = errors.New("event sink must not be nil")

	// ErrNilEntropySource is returned when a nil entropy source is supplied.
	ErrNilEntropySource = errors.New("entropy source must not be nil")

	// ErrNilClock is returned when a nil clock is supplied.
	ErrNilClock = errors.New("clock must not be nil")

	// ErrNoClock is returned by New if no clock is configured with WithClock.
	ErrNoClock = errors.New("no clock configured")
)

// Option defines a functional option for configuring a Runtime.
type Option func(*Runtime) error

// WithEventSink sets the event store every committed event is published to.
func WithEventSink(sink EventSink) Option {
	return func(r *Runtime) error {
		if sink == nil {
			return ErrNilEventSink
		}

		r.sink = sink

		return nil
	}
}

// WithEntropy sets the entropy source for genomes. The default is a blake2b source with an empty seed.
func WithEntropy(entropy breeding.EntropySource) Option {
	return func(r *Runtime) error {
		if entropy == nil {
			return ErrNilEntropySource
		}

		r.entropy = entropy

		return nil
	}
}

// WithClock sets the clock that timestamps events with the host's block time. It is required:
// every node replaying the same calls must pass the same timestamps to produce the same events.
func WithClock(clock func() time.Time) Option {
	return func(r *Runtime) error {
		if clock == nil {
			return ErrNilClock
		}

		r.clock = clock

		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger eventstore.Logger) Option {
	return func(r *Runtime) error {
		r.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger, which is preferred over the logger.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(r *Runtime) error {
		r.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector eventstore.MetricsCollector) Option {
	return func(r *Runtime) error {
		r.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector.
func WithTracing(collector eventstore.TracingCollector) Option {
	return func(r *Runtime) error {
		r.tracingCollector = collector
		return nil
	}
}

// WithRetryOptions configures the concurrency conflict retry of the command handlers and of publishing.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(r *Runtime) error {
		r.retryOptions = opts
		return nil
	}
}

// WithGenesis seeds kitties on first start.
func WithGenesis(genesis Genesis) Option {
	return func(r *Runtime) error {
		r.genesis = &genesis
		return nil
	}
}
