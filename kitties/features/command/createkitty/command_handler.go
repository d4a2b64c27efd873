package createkitty

import (
	"context"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/breeding"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/shell"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/store"
	"github.com/AntonStoeckl/kitties-ledger-go/state"
)

// CommandHandler runs one create call as an all-or-nothing unit of work on the state backend.
// Concurrency conflicts on commit are retried with exponential backoff.
type CommandHandler struct {
	backend      state.Backend
	entropy      breeding.EntropySource
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
func NewCommandHandler(backend state.Backend, entropy breeding.EntropySource, opts ...Option) CommandHandler {
	handler := CommandHandler{
		backend: backend,
		entropy: entropy,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the command with retry logic and returns the emitted KittyCreated event in the result.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	var event core.KittyCreated

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

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (core.KittyCreated, error) {
	// AuthCheck phase: unsigned calls never open a state overlay
	if _, err := command.Origin.EnsureSigned(); err != nil {
		return core.KittyCreated{}, err
	}

	overlay, err := state.Open(ctx, h.backend)
	if err != nil {
		return core.KittyCreated{}, err
	}
	defer overlay.Discard()

	allocator := store.NewAllocator(overlay)

	// Load phase
	next, err := allocator.Next(ctx)
	if err != nil {
		return core.KittyCreated{}, err
	}

	// PreconditionCheck phase - delegate to pure core function
	result := Decide(State{NextKittyID: next}, command, h.entropy)
	if err = result.HasError(); err != nil {
		return core.KittyCreated{}, err
	}

	event, _ := result.Event.(core.KittyCreated)

	// Mutate phase
	if err = mutate(ctx, allocator, store.NewKittyStore(overlay), event); err != nil {
		return core.KittyCreated{}, err
	}

	if err = overlay.Commit(ctx); err != nil {
		return core.KittyCreated{}, err
	}

	return event, nil
}

func mutate(ctx context.Context, allocator store.Allocator, kitties store.KittyStore, event core.KittyCreated) error {
	if err := allocator.Claim(ctx, event.KittyID); err != nil {
		return err
	}

	if err := kitties.Put(ctx, event.KittyID, event.Kitty); err != nil {
		return err
	}

	return kitties.SetOwner(ctx, event.KittyID, event.Who)
}
