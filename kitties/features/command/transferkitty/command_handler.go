package transferkitty

import (
	"context"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/shell"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/store"
	"github.com/AntonStoeckl/kitties-ledger-go/state"
)

// CommandHandler runs one transfer call as an all-or-nothing unit of work on the state backend.
// Concurrency conflicts on commit are retried with exponential backoff.
type CommandHandler struct {
	backend      state.Backend
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(backend state.Backend, opts ...Option) CommandHandler {
	handler := CommandHandler{
		backend: backend,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the command with retry logic and returns the emitted KittyTransferred event in the result.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	var event core.KittyTransferred

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var execErr error
		event, execErr = h.executeCommand(retryCtx, command)

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return shell.NewErrorResult(retryMetrics), err
	}

	return shell.NewSuccessResult(retryMetrics, event.KittyID, event), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (core.KittyTransferred, error) {
	// AuthCheck phase: unsigned calls never open a state overlay
	if _, err := command.Origin.EnsureSigned(); err != nil {
		return core.KittyTransferred{}, err
	}

	overlay, err := state.Open(ctx, h.backend)
	if err != nil {
		return core.KittyTransferred{}, err
	}
	defer overlay.Discard()

	kitties := store.NewKittyStore(overlay)

	// Load phase
	owner, found, err := kitties.OwnerOf(ctx, command.KittyID)
	if err != nil {
		return core.KittyTransferred{}, err
	}

	// PreconditionCheck phase - delegate to pure core function
	result := Decide(State{KittyExists: found, Owner: owner}, command)
	if err = result.HasError(); err != nil {
		return core.KittyTransferred{}, err
	}

	event, _ := result.Event.(core.KittyTransferred)

	// Mutate phase
	if err = kitties.SetOwner(ctx, event.KittyID, event.Recipient); err != nil {
		return core.KittyTransferred{}, err
	}

	if err = overlay.Commit(ctx); err != nil {
		return core.KittyTransferred{}, err
	}

	return event, nil
}
