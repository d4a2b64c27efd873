package breedkitty_test

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/breeding"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/features/command/breedkitty"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/features/command/createkitty"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/store"
	"github.com/AntonStoeckl/kitties-ledger-go/state"
	"github.com/AntonStoeckl/kitties-ledger-go/state/memorystate"
)

func Test_CommandHandler_Handle_Success(t *testing.T) {
	// arrange
	ctx := context.Background()
	backend := memorystate.NewBackend()
	entropy := breeding.NewBlake2Source([]byte("seed"))
	givenKittiesCreatedBy(t, backend, entropy, 1, 2)
	handler := breedkitty.NewCommandHandler(backend, entropy)

	// act
	result, err := handler.Handle(ctx, breedkitty.BuildCommand(core.Signed(2), 0, 1, time.Now()))

	// assert
	require.NoError(t, err)
	assert.Equal(t, core.KittyID(2), result.KittyID)
	assert.Equal(t, core.KittyBredEventType, result.EventType())

	overlay := givenOverlay(t, backend)
	kitties := store.NewKittyStore(overlay)

	parents, found, err := kitties.ParentsOf(ctx, 2)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, core.Parents{A: 0, B: 1}, parents)

	owner, _, err := kitties.OwnerOf(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, core.AccountID(2), owner)

	// the parents are untouched
	for _, id := range []core.KittyID{0, 1} {
		_, found, err = kitties.ParentsOf(ctx, id)
		require.NoError(t, err)
		assert.False(t, found)

		owner, _, err = kitties.OwnerOf(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, core.AccountID(1), owner)
	}

	next, err := store.NewAllocator(overlay).Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.KittyID(3), next)
}

func Test_CommandHandler_Handle_When_PreconditionFails_ThenStateIsUntouched(t *testing.T) {
	testCases := []struct {
		name     string
		origin   core.Origin
		parentA  core.KittyID
		parentB  core.KittyID
		expected error
	}{
		{"root origin", core.Root(), 0, 1, core.ErrBadOrigin},
		{"same kitty", core.Signed(1), 0, 0, core.ErrSameKittyID},
		{"unknown parent a", core.Signed(1), 7, 1, core.ErrInvalidKittyID},
		{"unknown parent b", core.Signed(1), 0, 7, core.ErrInvalidKittyID},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			ctx := context.Background()
			backend := memorystate.NewBackend()
			entropy := breeding.NewBlake2Source(nil)
			givenKittiesCreatedBy(t, backend, entropy, 1, 2)
			versionBefore, err := backend.Version(ctx)
			require.NoError(t, err)
			handler := breedkitty.NewCommandHandler(backend, entropy)

			// act
			result, err := handler.Handle(ctx, breedkitty.BuildCommand(tc.origin, tc.parentA, tc.parentB, time.Now()))

			// assert
			assert.ErrorIs(t, err, tc.expected)
			assert.Nil(t, result.Event)
			versionAfter, err := backend.Version(ctx)
			require.NoError(t, err)
			assert.Equal(t, versionBefore, versionAfter)
		})
	}
}

func Test_CommandHandler_Handle_When_AnyParentIsUnknown_ThenInvalidKittyID(t *testing.T) {
	// arrange
	ctx := context.Background()
	backend := memorystate.NewBackend()
	entropy := breeding.NewBlake2Source(nil)
	givenKittiesCreatedBy(t, backend, entropy, 1, 2)
	versionBefore, err := backend.Version(ctx)
	require.NoError(t, err)
	handler := breedkitty.NewCommandHandler(backend, entropy)

	unknownIDs := []core.KittyID{2, core.MaxKittyID - 1, core.MaxKittyID}
	rnd := rand.New(rand.NewPCG(1, 2))
	for range 100 {
		unknownIDs = append(unknownIDs, core.KittyID(2+rnd.Uint32N(uint32(core.MaxKittyID)-1)))
	}

	for _, unknown := range unknownIDs {
		// act
		_, errA := handler.Handle(ctx, breedkitty.BuildCommand(core.Signed(1), unknown, 0, time.Now()))
		_, errB := handler.Handle(ctx, breedkitty.BuildCommand(core.Signed(1), 1, unknown, time.Now()))

		// assert
		assert.ErrorIs(t, errA, core.ErrInvalidKittyID, "parent a %d", unknown)
		assert.ErrorIs(t, errB, core.ErrInvalidKittyID, "parent b %d", unknown)
	}

	versionAfter, err := backend.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, versionBefore, versionAfter)
}

func givenKittiesCreatedBy(t *testing.T, backend state.Backend, entropy breeding.EntropySource, who core.AccountID, count int) {
	t.Helper()

	handler := createkitty.NewCommandHandler(backend, entropy)
	for i := 0; i < count; i++ {
		_, err := handler.Handle(context.Background(), createkitty.BuildCommand(core.Signed(who), time.Now()))
		require.NoError(t, err)
	}
}

func givenOverlay(t *testing.T, backend state.Backend) *state.Overlay {
	t.Helper()

	overlay, err := state.Open(context.Background(), backend)
	require.NoError(t, err)
	t.Cleanup(overlay.Discard)

	return overlay
}
