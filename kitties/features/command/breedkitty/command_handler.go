package breedkitty

import (
	"context"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/breeding"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/shell"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/store"
	"github.com/AntonStoeckl/kitties-ledger-go/state"
)

// CommandHandler runs one breed call as an all-or-nothing unit of work on the state backend.
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

// Handle executes the command with retry logic and returns the emitted KittyBred event in the result.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	var event core.KittyBred

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

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (core.KittyBred, error) {
	// AuthCheck phase: unsigned calls never open a state overlay
	if _, err := command.Origin.EnsureSigned(); err != nil {
		return core.KittyBred{}, err
	}

	overlay, err := state.Open(ctx, h.backend)
	if err != nil {
		return core.KittyBred{}, err
	}
	defer overlay.Discard()

	allocator := store.NewAllocator(overlay)
	kitties := store.NewKittyStore(overlay)

	// Load phase
	s, err := load(ctx, allocator, kitties, command)
	if err != nil {
		return core.KittyBred{}, err
	}

	// PreconditionCheck phase - delegate to pure core function
	result := Decide(s, command, h.entropy)
	if err = result.HasError(); err != nil {
		return core.KittyBred{}, err
	}

	event, _ := result.Event.(core.KittyBred)

	// Mutate phase
	if err = mutate(ctx, allocator, kitties, event); err != nil {
		return core.KittyBred{}, err
	}

	if err = overlay.Commit(ctx); err != nil {
		return core.KittyBred{}, err
	}

	return event, nil
}

func load(ctx context.Context, allocator store.Allocator, kitties store.KittyStore, command Command) (State, error) {
	var s State

	next, err := allocator.Next(ctx)
	if err != nil {
		return State{}, err
	}
	s.NextKittyID = next

	if s.ParentA, err = lookup(ctx, kitties, command.ParentA); err != nil {
		return State{}, err
	}

	if s.ParentB, err = lookup(ctx, kitties, command.ParentB); err != nil {
		return State{}, err
	}

	return s, nil
}

func lookup(ctx context.Context, kitties store.KittyStore, id core.KittyID) (*core.Kitty, error) {
	kitty, found, err := kitties.Get(ctx, id)
	if err != nil || !found {
		return nil, err
	}

	return &kitty, nil
}

func mutate(ctx context.Context, allocator store.Allocator, kitties store.KittyStore, event core.KittyBred) error {
	if err := allocator.Claim(ctx, event.KittyID); err != nil {
		return err
	}

	if err := kitties.Put(ctx, event.KittyID, event.Kitty); err != nil {
		return err
	}

	if err := kitties.SetOwner(ctx, event.KittyID, event.Who); err != nil {
		return err
	}

	return kitties.SetParents(ctx, event.KittyID, event.Parents)
}
