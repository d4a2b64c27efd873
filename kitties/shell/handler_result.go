package shell

import (
	"time"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

// HandlerResult represents the outcome of a command handler execution.
// It carries the emitted event and execution metadata without coupling the handler
// to specific observability implementations.
type HandlerResult struct {
	// Event is the emitted event, nil if the call was aborted or failed.
	Event core.DomainEvent

	// KittyID is the kitty the call created, bred or transferred.
	KittyID core.KittyID

	// RetryAttempts is the total number of attempts made (1 for no retries, 2+ for retries).
	RetryAttempts int

	// TotalRetryDelay is the cumulative time spent in retry backoff delays.
	TotalRetryDelay time.Duration

	// LastErrorType describes the type of the final error encountered during retries.
	// Values: "none" (success), "concurrency_conflict", "context_canceled", "context_deadline_exceeded", "other"
	LastErrorType string

	// RetriesExhausted indicates whether max retry attempts were reached with a retryable error.
	RetriesExhausted bool
}

// NewSuccessResult creates a HandlerResult for a call that emitted event for kittyID.
func NewSuccessResult(retryMetrics RetryMetrics, kittyID core.KittyID, event core.DomainEvent) HandlerResult {
	result := fromRetryMetrics(retryMetrics)
	result.KittyID = kittyID
	result.Event = event

	return result
}

// NewErrorResult creates a HandlerResult for failed operations.
// This is used when the handler returns an error but still wants to report retry metadata.
func NewErrorResult(retryMetrics RetryMetrics) HandlerResult {
	return fromRetryMetrics(retryMetrics)
}

// EventType returns the type of the emitted event, or an empty string.
func (r HandlerResult) EventType() string {
	if r.Event == nil {
		return ""
	}

	return r.Event.EventType()
}

func fromRetryMetrics(retryMetrics RetryMetrics) HandlerResult {
	return HandlerResult{
		RetryAttempts:    retryMetrics.Attempts,
		TotalRetryDelay:  retryMetrics.TotalDelay,
		LastErrorType:    retryMetrics.LastErrorType,
		RetriesExhausted: retryMetrics.RetriesExhausted,
	}
}
