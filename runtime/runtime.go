package runtime

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/kitties-ledger-go/eventstore"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/breeding"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/features/command/breedkitty"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/features/command/createkitty"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/features/command/transferkitty"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/features/query/kittyhistory"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/features/query/ownedkitties"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/shell"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/shell/observable"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/store"
	"github.com/AntonStoeckl/kitties-ledger-go/state"
)

const (
	// EventsPublishedMetric counts events published to the event sink.
	EventsPublishedMetric = "runtime_events_published_total"

	// EventPublishFailuresMetric counts events that could not be published to the event sink.
	EventPublishFailuresMetric = "runtime_event_publish_failures_total"

	publishCommandType = "PublishEvent"

	logMsgEventPublished     = "runtime: event published"
	logMsgEventPublishFailed = "runtime: publishing event failed"
	logMsgGenesisApplied     = "runtime: genesis applied"
	logMsgGenesisSkipped     = "runtime: genesis skipped, ledger already initialized"
	logAttrEventType         = "event_type"
	logAttrCallID            = "call_id"
	logAttrError             = "error"
	logAttrKittyCount        = "kitty_count"
	logAttrNextKittyID       = "next_kitty_id"
)

var (
	// ErrUnknownCall is returned by Dispatch for calls it cannot route.
	ErrUnknownCall = errors.New("unknown call")

	// ErrNoEventSink is returned by the read projections if no event sink is configured.
	ErrNoEventSink = errors.New("no event sink configured")
)

// EventSink is the durable event log committed events are published to.
type EventSink = eventstore.EventStore

// Runtime hosts the kitties ledger on top of a state backend. It is safe for concurrent use;
// calls are serialized.
type Runtime struct {
	mu sync.Mutex

	backend          state.Backend
	sink             EventSink
	entropy          breeding.EntropySource
	clock            func() time.Time
	logger           eventstore.Logger
	contextualLogger eventstore.ContextualLogger
	metricsCollector eventstore.MetricsCollector
	tracingCollector eventstore.TracingCollector
	retryOptions     []shell.RetryOption
	genesis          *Genesis

	createHandler   shell.CommandHandler[createkitty.Command]
	breedHandler    shell.CommandHandler[breedkitty.Command]
	transferHandler shell.CommandHandler[transferkitty.Command]

	ownedKittiesHandler shell.QueryHandler[ownedkitties.Query, ownedkitties.OwnedKitties]
	kittyHistoryHandler shell.QueryHandler[kittyhistory.Query, kittyhistory.KittyHistory]

	events core.DomainEvents
}

// New creates a Runtime on top of backend and applies the genesis if one is configured.
func New(ctx context.Context, backend state.Backend, options ...Option) (*Runtime, error) {
	if backend == nil {
		return nil, state.ErrNilBackend
	}

	r := &Runtime{
		backend: backend,
		entropy: breeding.NewBlake2Source(nil),
		events:  make(core.DomainEvents, 0),
	}

	for _, option := range options {
		if err := option(r); err != nil {
			return nil, err
		}
	}

	if r.clock == nil {
		return nil, ErrNoClock
	}

	if err := r.buildHandlers(); err != nil {
		return nil, err
	}

	if err := r.applyGenesis(ctx); err != nil {
		return nil, fmt.Errorf("applying genesis: %w", err)
	}

	return r, nil
}

// Create creates a kitty owned by the signer and returns its id.
func (r *Runtime) Create(ctx context.Context, origin core.Origin) (core.KittyID, error) {
	result, err := r.Dispatch(ctx, origin, CreateCall{})

	return result.KittyID, err
}

// Breed breeds a kitty owned by the signer from parentA and parentB and returns its id.
func (r *Runtime) Breed(ctx context.Context, origin core.Origin, parentA core.KittyID, parentB core.KittyID) (core.KittyID, error) {
	result, err := r.Dispatch(ctx, origin, BreedCall{ParentA: parentA, ParentB: parentB})

	return result.KittyID, err
}

// Transfer transfers kittyID from the signer to recipient.
func (r *Runtime) Transfer(ctx context.Context, origin core.Origin, recipient core.AccountID, kittyID core.KittyID) error {
	_, err := r.Dispatch(ctx, origin, TransferCall{Recipient: recipient, KittyID: kittyID})

	return err
}

// Dispatch runs one call to completion. Calls are serialized.
// On success, the emitted event is appended to the system event log and published to the event sink.
func (r *Runtime) Dispatch(ctx context.Context, origin core.Origin, call Call) (shell.HandlerResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	occurredAt := r.clock()

	var result shell.HandlerResult
	var err error

	switch c := call.(type) {
	case CreateCall:
		result, err = r.createHandler.Handle(ctx, createkitty.BuildCommand(origin, occurredAt))
	case BreedCall:
		result, err = r.breedHandler.Handle(ctx, breedkitty.BuildCommand(origin, c.ParentA, c.ParentB, occurredAt))
	case TransferCall:
		result, err = r.transferHandler.Handle(ctx, transferkitty.BuildCommand(origin, c.Recipient, c.KittyID, occurredAt))
	default:
		return shell.HandlerResult{}, fmt.Errorf("%w: %T", ErrUnknownCall, call)
	}

	if err != nil {
		return result, err
	}

	r.events = append(r.events, result.Event)
	r.publish(ctx, result.Event)

	return result, nil
}

// NextKittyID returns the id the next create or breed would issue.
func (r *Runtime) NextKittyID(ctx context.Context) (core.KittyID, error) {
	var next core.KittyID

	err := r.read(ctx, func(overlay *state.Overlay) error {
		var readErr error
		next, readErr = store.NewAllocator(overlay).Next(ctx)

		return readErr
	})

	return next, err
}

// Kitty returns the kitty stored under id.
func (r *Runtime) Kitty(ctx context.Context, id core.KittyID) (core.Kitty, bool, error) {
	var kitty core.Kitty
	var found bool

	err := r.read(ctx, func(overlay *state.Overlay) error {
		var readErr error
		kitty, found, readErr = store.NewKittyStore(overlay).Get(ctx, id)

		return readErr
	})

	return kitty, found, err
}

// KittyOwner returns the owner of the kitty with id.
func (r *Runtime) KittyOwner(ctx context.Context, id core.KittyID) (core.AccountID, bool, error) {
	var owner core.AccountID
	var found bool

	err := r.read(ctx, func(overlay *state.Overlay) error {
		var readErr error
		owner, found, readErr = store.NewKittyStore(overlay).OwnerOf(ctx, id)

		return readErr
	})

	return owner, found, err
}

// KittyParents returns the lineage of the kitty with id. Only bred kitties have one.
func (r *Runtime) KittyParents(ctx context.Context, id core.KittyID) (core.Parents, bool, error) {
	var parents core.Parents
	var found bool

	err := r.read(ctx, func(overlay *state.Overlay) error {
		var readErr error
		parents, found, readErr = store.NewKittyStore(overlay).ParentsOf(ctx, id)

		return readErr
	})

	return parents, found, err
}

// Events returns a copy of the system event log, one event per successful call.
// The log lives in process memory: it covers the calls dispatched by this Runtime only and starts
// empty after a restart, even when the state backend persists. The event sink is the durable record.
func (r *Runtime) Events() core.DomainEvents {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.events)
}

// LastEvent returns the most recent event of the system event log. See Events for its lifetime.
func (r *Runtime) LastEvent() (core.DomainEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.events) == 0 {
		return nil, false
	}

	return r.events[len(r.events)-1], true
}

// OwnedKitties projects the kitties owner currently owns from the event sink.
func (r *Runtime) OwnedKitties(ctx context.Context, owner core.AccountID) (ownedkitties.OwnedKitties, error) {
	if r.sink == nil {
		return ownedkitties.OwnedKitties{}, ErrNoEventSink
	}

	return r.ownedKittiesHandler.Handle(ctx, ownedkitties.BuildQuery(owner))
}

// KittyHistory projects the history of the kitty with id from the event sink.
func (r *Runtime) KittyHistory(ctx context.Context, id core.KittyID) (kittyhistory.KittyHistory, error) {
	if r.sink == nil {
		return kittyhistory.KittyHistory{}, ErrNoEventSink
	}

	return r.kittyHistoryHandler.Handle(ctx, kittyhistory.BuildQuery(id))
}

func (r *Runtime) read(ctx context.Context, fn func(overlay *state.Overlay) error) error {
	overlay, err := state.Open(ctx, r.backend)
	if err != nil {
		return err
	}
	defer overlay.Discard()

	return fn(overlay)
}

func (r *Runtime) buildHandlers() error {
	var err error

	if r.createHandler, err = observable.NewCommandWrapper[createkitty.Command](
		createkitty.NewCommandHandler(
			r.backend,
			r.entropy,
			createkitty.WithRetryOptions(r.handlerRetryOptions(createkitty.Command{}.CommandType())...),
		),
		observable.WithCommandMetrics[createkitty.Command](r.metricsCollector),
		observable.WithCommandTracing[createkitty.Command](r.tracingCollector),
		observable.WithCommandContextualLogging[createkitty.Command](r.contextualLogger),
		observable.WithCommandLogging[createkitty.Command](r.logger),
	); err != nil {
		return err
	}

	if r.breedHandler, err = observable.NewCommandWrapper[breedkitty.Command](
		breedkitty.NewCommandHandler(
			r.backend,
			r.entropy,
			breedkitty.WithRetryOptions(r.handlerRetryOptions(breedkitty.Command{}.CommandType())...),
		),
		observable.WithCommandMetrics[breedkitty.Command](r.metricsCollector),
		observable.WithCommandTracing[breedkitty.Command](r.tracingCollector),
		observable.WithCommandContextualLogging[breedkitty.Command](r.contextualLogger),
		observable.WithCommandLogging[breedkitty.Command](r.logger),
	); err != nil {
		return err
	}

	if r.transferHandler, err = observable.NewCommandWrapper[transferkitty.Command](
		transferkitty.NewCommandHandler(
			r.backend,
			transferkitty.WithRetryOptions(r.handlerRetryOptions(transferkitty.Command{}.CommandType())...),
		),
		observable.WithCommandMetrics[transferkitty.Command](r.metricsCollector),
		observable.WithCommandTracing[transferkitty.Command](r.tracingCollector),
		observable.WithCommandContextualLogging[transferkitty.Command](r.contextualLogger),
		observable.WithCommandLogging[transferkitty.Command](r.logger),
	); err != nil {
		return err
	}

	if r.sink == nil {
		return nil
	}

	if r.ownedKittiesHandler, err = observable.NewQueryWrapper[ownedkitties.Query, ownedkitties.OwnedKitties](
		ownedkitties.NewQueryHandler(r.sink),
		observable.WithQueryMetrics[ownedkitties.Query, ownedkitties.OwnedKitties](r.metricsCollector),
		observable.WithQueryTracing[ownedkitties.Query, ownedkitties.OwnedKitties](r.tracingCollector),
		observable.WithQueryContextualLogging[ownedkitties.Query, ownedkitties.OwnedKitties](r.contextualLogger),
		observable.WithQueryLogging[ownedkitties.Query, ownedkitties.OwnedKitties](r.logger),
	); err != nil {
		return err
	}

	r.kittyHistoryHandler, err = observable.NewQueryWrapper[kittyhistory.Query, kittyhistory.KittyHistory](
		kittyhistory.NewQueryHandler(r.sink),
		observable.WithQueryMetrics[kittyhistory.Query, kittyhistory.KittyHistory](r.metricsCollector),
		observable.WithQueryTracing[kittyhistory.Query, kittyhistory.KittyHistory](r.tracingCollector),
		observable.WithQueryContextualLogging[kittyhistory.Query, kittyhistory.KittyHistory](r.contextualLogger),
		observable.WithQueryLogging[kittyhistory.Query, kittyhistory.KittyHistory](r.logger),
	)

	return err
}

func (r *Runtime) handlerRetryOptions(commandType string) []shell.RetryOption {
	opts := slices.Clone(r.retryOptions)
	if r.metricsCollector != nil {
		opts = append(opts, shell.WithMetrics(r.metricsCollector, commandType))
	}

	return opts
}

// publish appends event to the sink with optimistic concurrency over the stream of the affected kitties.
func (r *Runtime) publish(ctx context.Context, event core.DomainEvent) {
	if r.sink == nil {
		return
	}

	callID := uuid.New()
	labels := map[string]string{logAttrEventType: event.EventType()}

	err := r.appendToSink(ctx, event, shell.NewCallMetadata(callID))
	if err != nil {
		r.logError(ctx, logMsgEventPublishFailed, logAttrEventType, event.EventType(), logAttrCallID, callID.String(), logAttrError, err.Error())

		if r.metricsCollector != nil {
			r.metricsCollector.IncrementCounter(EventPublishFailuresMetric, labels)
		}

		return
	}

	r.log(ctx, logMsgEventPublished, logAttrEventType, event.EventType(), logAttrCallID, callID.String())

	if r.metricsCollector != nil {
		r.metricsCollector.IncrementCounter(EventsPublishedMetric, labels)
	}
}

func (r *Runtime) appendToSink(ctx context.Context, event core.DomainEvent, metadata shell.EventMetadata) error {
	storableEvent, err := shell.StorableEventFrom(event, metadata)
	if err != nil {
		return err
	}

	filter := publishFilter(event)
	opts := slices.Clone(r.retryOptions)
	if r.metricsCollector != nil {
		opts = append(opts, shell.WithMetrics(r.metricsCollector, publishCommandType))
	}

	_, err = shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		_, maxSeq, queryErr := r.sink.Query(retryCtx, filter)
		if queryErr != nil {
			return queryErr
		}

		return r.sink.Append(retryCtx, filter, maxSeq, storableEvent)
	}, opts...)

	return err
}

// publishFilter selects the dynamic event stream of the kitties event is about: every event
// naming one of them as the kitty or as a parent. Appends only conflict with writers of the same kitties.
func publishFilter(event core.DomainEvent) eventstore.Filter {
	var kittyIDs []core.KittyID

	switch e := event.(type) {
	case core.KittyCreated:
		kittyIDs = []core.KittyID{e.KittyID}
	case core.KittyBred:
		kittyIDs = []core.KittyID{e.KittyID, e.Parents.A, e.Parents.B}
	case core.KittyTransferred:
		kittyIDs = []core.KittyID{e.KittyID}
	}

	predicates := make([]eventstore.FilterPredicate, 0, 3*len(kittyIDs))
	for _, kittyID := range kittyIDs {
		id := shell.KittyIDToString(kittyID)
		predicates = append(
			predicates,
			eventstore.P(shell.PayloadKeyKittyID, id),
			eventstore.P(shell.PayloadKeyParentA, id),
			eventstore.P(shell.PayloadKeyParentB, id),
		)
	}

	if len(predicates) == 0 {
		return eventstore.BuildEventFilter().MatchingAnyEvent()
	}

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.KittyCreatedEventType,
			core.KittyBredEventType,
			core.KittyTransferredEventType,
		).
		AndAnyPredicateOf(predicates[0], predicates[1:]...).
		Finalize()
}

func (r *Runtime) log(ctx context.Context, msg string, args ...any) {
	if r.contextualLogger != nil {
		r.contextualLogger.InfoContext(ctx, msg, args...)
	} else if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

func (r *Runtime) logError(ctx context.Context, msg string, args ...any) {
	if r.contextualLogger != nil {
		r.contextualLogger.ErrorContext(ctx, msg, args...)
	} else if r.logger != nil {
		r.logger.Error(msg, args...)
	}
}
