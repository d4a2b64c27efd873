// Package observable provides wrappers that instrument command and query handlers with
// metrics, tracing and logging while the handlers themselves stay free of observability code.
//
// Wrappers are applied at wiring time:
//
//	coreHandler := createkitty.NewCommandHandler(backend, entropy, createkitty.WithRetryOptions(shell.WithMetrics(metricsCollector, "CreateKitty")))
//
//	handler, err := observable.NewCommandWrapper[createkitty.Command](
//		coreHandler,
//		observable.WithCommandMetrics[createkitty.Command](metricsCollector),
//		observable.WithCommandTracing[createkitty.Command](tracingCollector),
//		observable.WithCommandContextualLogging[createkitty.Command](logger),
//	)
//
// Domain rejections (bad origin, unknown kitty, ...) are recorded with status "rejected",
// infrastructure failures with "error", "canceled", "timeout" or "concurrency_conflict".
package observable
