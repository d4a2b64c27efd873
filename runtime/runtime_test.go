package runtime_test

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/kitties-ledger-go/eventstore"
	"github.com/AntonStoeckl/kitties-ledger-go/eventstore/memoryengine"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/features/query/ownedkitties"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/shell"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/store"
	"github.com/AntonStoeckl/kitties-ledger-go/runtime"
	"github.com/AntonStoeckl/kitties-ledger-go/state"
	"github.com/AntonStoeckl/kitties-ledger-go/state/memorystate"
	"github.com/AntonStoeckl/kitties-ledger-go/testutil"
)

var fakeClock = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func Test_EndToEnd_CreateCreateBreedTransfer(t *testing.T) {
	// arrange
	ctx := context.Background()
	sink := memoryengine.NewEventStore()
	rt := givenRuntime(t, memorystate.NewBackend(), runtime.WithEventSink(sink))

	// act
	first, err := rt.Create(ctx, core.Signed(1))
	require.NoError(t, err)
	second, err := rt.Create(ctx, core.Signed(1))
	require.NoError(t, err)
	child, err := rt.Breed(ctx, core.Signed(1), first, second)
	require.NoError(t, err)
	err = rt.Transfer(ctx, core.Signed(1), 2, first)
	require.NoError(t, err)

	// assert
	assert.Equal(t, core.KittyID(0), first)
	assert.Equal(t, core.KittyID(1), second)
	assert.Equal(t, core.KittyID(2), child)

	parents, found, err := rt.KittyParents(ctx, child)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, core.Parents{A: 0, B: 1}, parents)

	assertOwner(t, rt, child, 1)
	assertOwner(t, rt, first, 2)
	assertOwner(t, rt, second, 1)

	next, err := rt.NextKittyID(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.KittyID(3), next)

	events := rt.Events()
	require.Len(t, events, 4)
	assert.Equal(t, core.KittyCreatedEventType, events[0].EventType())
	assert.Equal(t, core.KittyCreatedEventType, events[1].EventType())
	assert.Equal(t, core.KittyBredEventType, events[2].EventType())
	assert.Equal(t, core.KittyTransferredEventType, events[3].EventType())
	assert.Equal(t, 4, sink.Len())
}

func Test_Create_When_CalledNTimes_ThenNextKittyIDIsN(t *testing.T) {
	// arrange
	ctx := context.Background()
	rt := givenRuntime(t, memorystate.NewBackend())

	// act
	for i := 0; i < 5; i++ {
		id, err := rt.Create(ctx, core.Signed(core.AccountID(i)))
		require.NoError(t, err)
		assert.Equal(t, core.KittyID(i), id)
	}

	// assert
	next, err := rt.NextKittyID(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.KittyID(5), next)
	assert.Len(t, rt.Events(), 5)
}

func Test_Create_ThenOwnerIsTheCallerAndParentsAreAbsent(t *testing.T) {
	// arrange
	ctx := context.Background()
	rt := givenRuntime(t, memorystate.NewBackend())

	// act
	id, err := rt.Create(ctx, core.Signed(7))
	require.NoError(t, err)

	// assert
	assertOwner(t, rt, id, 7)

	_, found, err := rt.KittyParents(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)

	kitty, found, err := rt.Kitty(ctx, id)
	require.NoError(t, err)
	assert.True(t, found)

	lastEvent, ok := rt.LastEvent()
	require.True(t, ok)
	assert.Equal(t, core.BuildKittyCreated(7, id, kitty, fakeClock), lastEvent)
}

func Test_Create_When_OriginIsNotSigned_ThenBadOriginAndNothingChanges(t *testing.T) {
	testCases := []struct {
		name   string
		origin core.Origin
	}{
		{name: "root", origin: core.Root()},
		{name: "none", origin: core.None()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			ctx := context.Background()
			backend := memorystate.NewBackend()
			rt := givenRuntime(t, backend)

			// act
			_, err := rt.Create(ctx, tc.origin)

			// assert
			assert.ErrorIs(t, err, core.ErrBadOrigin)
			assert.Zero(t, backend.Len())
			assert.Empty(t, rt.Events())

			_, ok := rt.LastEvent()
			assert.False(t, ok)
		})
	}
}

func Test_Create_When_CounterIsAtMax_ThenOverflowAndNothingChanges(t *testing.T) {
	// arrange
	ctx := context.Background()
	backend := memorystate.NewBackend()
	givenNextKittyID(t, backend, core.MaxKittyID)
	rt := givenRuntime(t, backend)
	versionBefore := versionOf(t, backend)

	// act
	_, err := rt.Create(ctx, core.Signed(1))

	// assert
	assert.ErrorIs(t, err, core.ErrKittyIDCannotOverflow)
	assert.Equal(t, versionBefore, versionOf(t, backend))
	assert.Empty(t, rt.Events())

	next, err := rt.NextKittyID(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.MaxKittyID, next)
}

func Test_Breed_When_ParentsAreInvalid_ThenItFails(t *testing.T) {
	testCases := []struct {
		name        string
		parentA     core.KittyID
		parentB     core.KittyID
		expectedErr error
	}{
		{name: "same kitty", parentA: 0, parentB: 0, expectedErr: core.ErrSameKittyID},
		{name: "same unknown kitty", parentA: 9, parentB: 9, expectedErr: core.ErrSameKittyID},
		{name: "unknown parent a", parentA: 9, parentB: 0, expectedErr: core.ErrInvalidKittyID},
		{name: "unknown parent b", parentA: 0, parentB: 9, expectedErr: core.ErrInvalidKittyID},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			ctx := context.Background()
			backend := memorystate.NewBackend()
			rt := givenRuntime(t, backend)
			_, err := rt.Create(ctx, core.Signed(1))
			require.NoError(t, err)
			versionBefore := versionOf(t, backend)

			// act
			_, err = rt.Breed(ctx, core.Signed(1), tc.parentA, tc.parentB)

			// assert
			assert.ErrorIs(t, err, tc.expectedErr)
			assert.Equal(t, versionBefore, versionOf(t, backend))
			assert.Len(t, rt.Events(), 1)
		})
	}
}

func Test_BreedAndTransfer_When_KittyIsUnknown_ThenInvalidKittyIDForAnyID(t *testing.T) {
	// arrange
	ctx := context.Background()
	backend := memorystate.NewBackend()
	rt := givenRuntime(t, backend)
	known, err := rt.Create(ctx, core.Signed(1))
	require.NoError(t, err)
	_, err = rt.Create(ctx, core.Signed(1))
	require.NoError(t, err)
	versionBefore := versionOf(t, backend)

	for _, unknown := range unknownKittyIDs(200) {
		// act
		_, breedAErr := rt.Breed(ctx, core.Signed(1), unknown, known)
		_, breedBErr := rt.Breed(ctx, core.Signed(1), known, unknown)
		transferErr := rt.Transfer(ctx, core.Signed(1), 2, unknown)

		// assert
		assert.ErrorIs(t, breedAErr, core.ErrInvalidKittyID, "breed with parent a %d", unknown)
		assert.ErrorIs(t, breedBErr, core.ErrInvalidKittyID, "breed with parent b %d", unknown)
		assert.ErrorIs(t, transferErr, core.ErrInvalidKittyID, "transfer of %d", unknown)
	}

	assert.Equal(t, versionBefore, versionOf(t, backend))
	assert.Len(t, rt.Events(), 2)
}

func Test_Breed_ThenParentsAreUntouched(t *testing.T) {
	// arrange
	ctx := context.Background()
	rt := givenRuntime(t, memorystate.NewBackend())
	a, err := rt.Create(ctx, core.Signed(1))
	require.NoError(t, err)
	b, err := rt.Create(ctx, core.Signed(2))
	require.NoError(t, err)
	kittyA, _, err := rt.Kitty(ctx, a)
	require.NoError(t, err)
	kittyB, _, err := rt.Kitty(ctx, b)
	require.NoError(t, err)

	// act
	child, err := rt.Breed(ctx, core.Signed(3), a, b)
	require.NoError(t, err)

	// assert
	assertOwner(t, rt, child, 3)
	assertOwner(t, rt, a, 1)
	assertOwner(t, rt, b, 2)

	afterA, _, err := rt.Kitty(ctx, a)
	require.NoError(t, err)
	afterB, _, err := rt.Kitty(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, kittyA, afterA)
	assert.Equal(t, kittyB, afterB)
}

func Test_Transfer_ThenTransferringBackRestoresTheOwner(t *testing.T) {
	// arrange
	ctx := context.Background()
	rt := givenRuntime(t, memorystate.NewBackend())
	id, err := rt.Create(ctx, core.Signed(1))
	require.NoError(t, err)

	// act
	require.NoError(t, rt.Transfer(ctx, core.Signed(1), 2, id))
	assertOwner(t, rt, id, 2)
	lastEvent, _ := rt.LastEvent()
	assert.Equal(t, core.BuildKittyTransferred(1, 2, id, fakeClock), lastEvent)

	require.NoError(t, rt.Transfer(ctx, core.Signed(2), 1, id))

	// assert
	assertOwner(t, rt, id, 1)
	lastEvent, _ = rt.LastEvent()
	assert.Equal(t, core.BuildKittyTransferred(2, 1, id, fakeClock), lastEvent)
}

func Test_Transfer_When_ItIsRejected_ThenNothingChanges(t *testing.T) {
	testCases := []struct {
		name        string
		origin      core.Origin
		kittyID     core.KittyID
		expectedErr error
	}{
		{name: "unsigned", origin: core.None(), kittyID: 0, expectedErr: core.ErrBadOrigin},
		{name: "unknown kitty", origin: core.Signed(1), kittyID: 5, expectedErr: core.ErrInvalidKittyID},
		{name: "not owner", origin: core.Signed(3), kittyID: 0, expectedErr: core.ErrNotOwner},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			ctx := context.Background()
			backend := memorystate.NewBackend()
			rt := givenRuntime(t, backend)
			_, err := rt.Create(ctx, core.Signed(1))
			require.NoError(t, err)
			versionBefore := versionOf(t, backend)

			// act
			err = rt.Transfer(ctx, tc.origin, 2, tc.kittyID)

			// assert
			assert.ErrorIs(t, err, tc.expectedErr)
			assert.Equal(t, versionBefore, versionOf(t, backend))
			assert.Len(t, rt.Events(), 1)
			assertOwner(t, rt, 0, 1)
		})
	}
}

func Test_Dispatch_When_CallIsUnknown_ThenItFails(t *testing.T) {
	// arrange
	rt := givenRuntime(t, memorystate.NewBackend())

	// act
	_, err := rt.Dispatch(context.Background(), core.Signed(1), nil)

	// assert
	assert.ErrorIs(t, err, runtime.ErrUnknownCall)
}

func Test_New_When_OptionsAreInvalid_ThenItFails(t *testing.T) {
	testCases := []struct {
		name        string
		backend     state.Backend
		option      runtime.Option
		expectedErr error
	}{
		{name: "nil backend", backend: nil, option: runtime.WithClock(time.Now), expectedErr: state.ErrNilBackend},
		{name: "nil sink", backend: memorystate.NewBackend(), option: runtime.WithEventSink(nil), expectedErr: runtime.ErrNilEventSink},
		{name: "nil entropy", backend: memorystate.NewBackend(), option: runtime.WithEntropy(nil), expectedErr: runtime.ErrNilEntropySource},
		{name: "nil clock", backend: memorystate.NewBackend(), option: runtime.WithClock(nil), expectedErr: runtime.ErrNilClock},
		{name: "no clock", backend: memorystate.NewBackend(), option: runtime.WithLogger(nil), expectedErr: runtime.ErrNoClock},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			rt, err := runtime.New(context.Background(), tc.backend, tc.option)

			// assert
			assert.ErrorIs(t, err, tc.expectedErr)
			assert.Nil(t, rt)
		})
	}
}

func Test_New_When_GenesisIsConfigured_ThenItSeedsAnEmptyLedgerOnce(t *testing.T) {
	// arrange
	ctx := context.Background()
	backend := memorystate.NewBackend()
	genesis := runtime.Genesis{Kitties: []runtime.GenesisKitty{
		{Owner: 10, DNA: core.Genome{1}},
		{Owner: 11, DNA: core.Genome{2}},
	}}

	// act
	rt := givenRuntime(t, backend, runtime.WithGenesis(genesis))
	_, err := rt.Create(ctx, core.Signed(12))
	require.NoError(t, err)
	restarted := givenRuntime(t, backend, runtime.WithGenesis(genesis))

	// assert
	assertOwner(t, restarted, 0, 10)
	assertOwner(t, restarted, 1, 11)
	assertOwner(t, restarted, 2, 12)

	kitty, found, err := restarted.Kitty(ctx, 1)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, core.Genome{2}, kitty.DNA)

	next, err := restarted.NextKittyID(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.KittyID(3), next)
	assert.Len(t, rt.Events(), 1)
	assert.Empty(t, restarted.Events())
}

func Test_Dispatch_When_SinkFails_ThenTheCallStillSucceedsAndTheFailureIsRecorded(t *testing.T) {
	// arrange
	ctx := context.Background()
	metrics := testutil.NewMetricsCollectorSpy()
	logSpy := testutil.NewLogHandlerSpy(false)
	rt := givenRuntime(
		t,
		memorystate.NewBackend(),
		runtime.WithEventSink(failingSink{}),
		runtime.WithMetrics(metrics),
		runtime.WithLogger(slog.New(logSpy)),
		runtime.WithRetryOptions(shell.WithMaxAttempts(1)),
	)

	// act
	id, err := rt.Create(ctx, core.Signed(1))

	// assert
	require.NoError(t, err)
	assertOwner(t, rt, id, 1)
	assert.Len(t, rt.Events(), 1)
	assert.True(t, metrics.HasCounterRecord(
		runtime.EventPublishFailuresMetric,
		map[string]string{"event_type": core.KittyCreatedEventType},
	))
	assert.Zero(t, metrics.CounterRecordCount(runtime.EventsPublishedMetric))
	assert.True(t, logSpy.HasLogWithAttr(slog.LevelError, "runtime: publishing event failed", "error"))
}

func Test_Dispatch_When_PublishingToTheSink_ThenOnlyEventsOfTheAffectedKittiesAreRead(t *testing.T) {
	// arrange
	ctx := context.Background()
	sink := &countingSink{EventStore: memoryengine.NewEventStore()}
	rt := givenRuntime(t, memorystate.NewBackend(), runtime.WithEventSink(sink))

	for range 5 {
		_, err := rt.Create(ctx, core.Signed(1))
		require.NoError(t, err)
	}

	// assert
	assert.Zero(t, sink.eventsRead, "fresh kitties have no prior events to read")

	// act
	require.NoError(t, rt.Transfer(ctx, core.Signed(1), 2, 0))

	// assert
	assert.Equal(t, 1, sink.eventsRead, "only the creation of kitty 0 is read")

	// act
	_, err := rt.Breed(ctx, core.Signed(1), 1, 2)
	require.NoError(t, err)

	// assert
	assert.Equal(t, 3, sink.eventsRead, "only the creations of both parents are added")
	assert.Equal(t, 7, sink.Len())
}

func Test_Dispatch_When_ObservabilityIsConfigured_ThenCallsAreInstrumented(t *testing.T) {
	// arrange
	ctx := context.Background()
	metrics := testutil.NewMetricsCollectorSpy()
	tracing := testutil.NewTracingCollectorSpy()
	rt := givenRuntime(
		t,
		memorystate.NewBackend(),
		runtime.WithEventSink(memoryengine.NewEventStore()),
		runtime.WithMetrics(metrics),
		runtime.WithTracing(tracing),
	)

	// act
	_, err := rt.Create(ctx, core.Signed(1))
	require.NoError(t, err)
	_, err = rt.Create(ctx, core.None())
	require.Error(t, err)

	// assert
	assert.True(t, metrics.HasCounterRecord(
		runtime.EventsPublishedMetric,
		map[string]string{"event_type": core.KittyCreatedEventType},
	))
	assert.True(t, metrics.HasDurationRecord(
		shell.CommandHandlerDurationMetric,
		map[string]string{"command_type": "CreateKitty", "status": shell.StatusSuccess},
	))
	assert.True(t, metrics.HasCounterRecord(
		shell.CommandHandlerRejectedMetric,
		map[string]string{"command_type": "CreateKitty"},
	))
	assert.True(t, tracing.HasFinishedSpan(shell.SpanNameCommandHandle, shell.StatusSuccess))
	assert.True(t, tracing.HasFinishedSpan(shell.SpanNameCommandHandle, shell.StatusRejected))
}

func Test_Queries_ProjectTheEventSink(t *testing.T) {
	// arrange
	ctx := context.Background()
	rt := givenRuntime(t, memorystate.NewBackend(), runtime.WithEventSink(memoryengine.NewEventStore()))
	a, err := rt.Create(ctx, core.Signed(1))
	require.NoError(t, err)
	b, err := rt.Create(ctx, core.Signed(1))
	require.NoError(t, err)
	child, err := rt.Breed(ctx, core.Signed(1), a, b)
	require.NoError(t, err)
	require.NoError(t, rt.Transfer(ctx, core.Signed(1), 2, a))

	// act
	ownedByOne, err := rt.OwnedKitties(ctx, 1)
	require.NoError(t, err)
	ownedByTwo, err := rt.OwnedKitties(ctx, 2)
	require.NoError(t, err)
	history, err := rt.KittyHistory(ctx, a)
	require.NoError(t, err)

	// assert
	assert.Equal(t, 2, ownedByOne.Count)
	assert.Equal(t, []core.KittyID{b, child}, kittyIDsOf(ownedByOne))
	assert.Equal(t, []core.KittyID{a}, kittyIDsOf(ownedByTwo))

	assert.True(t, history.Found)
	assert.Equal(t, []core.KittyID{child}, history.Children)
	owner, ok := history.CurrentOwner()
	assert.True(t, ok)
	assert.Equal(t, core.AccountID(2), owner)
}

func Test_Queries_When_NoSinkIsConfigured_ThenTheyFail(t *testing.T) {
	// arrange
	ctx := context.Background()
	rt := givenRuntime(t, memorystate.NewBackend())

	// act
	_, ownedErr := rt.OwnedKitties(ctx, 1)
	_, historyErr := rt.KittyHistory(ctx, 0)

	// assert
	assert.ErrorIs(t, ownedErr, runtime.ErrNoEventSink)
	assert.ErrorIs(t, historyErr, runtime.ErrNoEventSink)
}

func Test_Events_When_RuntimeIsRecreatedOnTheSameBackend_ThenTheLogStartsEmptyButStatePersists(t *testing.T) {
	// arrange
	ctx := context.Background()
	backend := memorystate.NewBackend()
	id, err := givenRuntime(t, backend).Create(ctx, core.Signed(1))
	require.NoError(t, err)

	// act
	restarted := givenRuntime(t, backend)

	// assert
	assert.Empty(t, restarted.Events())
	_, ok := restarted.LastEvent()
	assert.False(t, ok)
	assertOwner(t, restarted, id, 1)
}

func Test_Events_ReturnsACopy(t *testing.T) {
	// arrange
	ctx := context.Background()
	rt := givenRuntime(t, memorystate.NewBackend())
	_, err := rt.Create(ctx, core.Signed(1))
	require.NoError(t, err)

	// act
	events := rt.Events()
	events[0] = nil

	// assert
	lastEvent, ok := rt.LastEvent()
	assert.True(t, ok)
	assert.NotNil(t, lastEvent)
}

func givenRuntime(t *testing.T, backend state.Backend, options ...runtime.Option) *runtime.Runtime {
	t.Helper()

	options = append(
		[]runtime.Option{
			runtime.WithClock(func() time.Time { return fakeClock }),
			runtime.WithEntropy(testutil.NewFixedEntropy([core.GenomeLength]byte{0xAA, 0x55})),
		},
		options...,
	)

	rt, err := runtime.New(context.Background(), backend, options...)
	require.NoError(t, err)

	return rt
}

func givenNextKittyID(t *testing.T, backend state.Backend, next core.KittyID) {
	t.Helper()

	ctx := context.Background()
	overlay, err := state.Open(ctx, backend)
	require.NoError(t, err)
	defer overlay.Discard()

	require.NoError(t, store.NewAllocator(overlay).Set(ctx, next))
	require.NoError(t, overlay.Commit(ctx))
}

func versionOf(t *testing.T, backend state.Backend) state.Version {
	t.Helper()

	version, err := backend.Version(context.Background())
	require.NoError(t, err)

	return version
}

// unknownKittyIDs returns the boundary ids of the identifier space plus n seeded random ids,
// none of which is issued by a ledger holding fewer than 2 kitties.
func unknownKittyIDs(n int) []core.KittyID {
	ids := []core.KittyID{2, 3, core.MaxKittyID - 1, core.MaxKittyID}
	rnd := rand.New(rand.NewPCG(42, 7))

	for range n {
		ids = append(ids, core.KittyID(2+rnd.Uint32N(uint32(core.MaxKittyID)-1)))
	}

	return ids
}

func assertOwner(t *testing.T, rt *runtime.Runtime, id core.KittyID, expected core.AccountID) {
	t.Helper()

	owner, found, err := rt.KittyOwner(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, found, "kitty %d should have an owner", id)
	assert.Equal(t, expected, owner)
}

func kittyIDsOf(owned ownedkitties.OwnedKitties) []core.KittyID {
	ids := make([]core.KittyID, 0, len(owned.Kitties))
	for _, info := range owned.Kitties {
		ids = append(ids, info.KittyID)
	}

	return ids
}

type failingSink struct{}

func (failingSink) Query(_ context.Context, _ eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {
	return nil, 0, errors.New("sink unavailable")
}

func (failingSink) Append(
	_ context.Context,
	_ eventstore.Filter,
	_ eventstore.MaxSequenceNumberUint,
	_ eventstore.StorableEvent,
	_ ...eventstore.StorableEvent,
) error {
	return errors.New("sink unavailable")
}

type countingSink struct {
	*memoryengine.EventStore
	eventsRead int
}

func (s *countingSink) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {
	events, maxSeq, err := s.EventStore.Query(ctx, filter)
	s.eventsRead += len(events)

	return events, maxSeq, err
}
