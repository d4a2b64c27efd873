package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/store"
	"github.com/AntonStoeckl/kitties-ledger-go/state"
	"github.com/AntonStoeckl/kitties-ledger-go/state/memorystate"
)

func givenOverlay(t *testing.T) *state.Overlay {
	t.Helper()

	overlay, err := state.Open(context.Background(), memorystate.NewBackend())
	require.NoError(t, err)

	return overlay
}

func Test_Allocator_When_CounterIsAbsent_ThenNextIsZero(t *testing.T) {
	allocator := store.NewAllocator(givenOverlay(t))

	next, err := allocator.Next(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, core.KittyID(0), next)
}

func Test_Allocator_Allocate_IssuesStrictlyIncreasingIDs(t *testing.T) {
	// arrange
	ctx := context.Background()
	allocator := store.NewAllocator(givenOverlay(t))

	// act + assert
	for expected := core.KittyID(0); expected < 5; expected++ {
		id, err := allocator.Allocate(ctx)
		require.NoError(t, err)
		assert.Equal(t, expected, id)

		next, err := allocator.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, expected+1, next)
	}
}

func Test_Allocator_When_CounterIsAtMax_ThenAllocateFailsAndCounterIsUnchanged(t *testing.T) {
	// arrange
	ctx := context.Background()
	allocator := store.NewAllocator(givenOverlay(t))
	require.NoError(t, allocator.Set(ctx, core.MaxKittyID))

	// act
	_, err := allocator.Allocate(ctx)

	// assert
	assert.ErrorIs(t, err, core.ErrKittyIDCannotOverflow)
	next, err := allocator.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.MaxKittyID, next)
}

func Test_Allocator_When_CounterIsJustBelowMax_ThenTheLastIDIsIssued(t *testing.T) {
	ctx := context.Background()
	allocator := store.NewAllocator(givenOverlay(t))
	require.NoError(t, allocator.Set(ctx, core.MaxKittyID-1))

	id, err := allocator.Allocate(ctx)

	require.NoError(t, err)
	assert.Equal(t, core.MaxKittyID-1, id)
	_, err = allocator.Allocate(ctx)
	assert.ErrorIs(t, err, core.ErrKittyIDCannotOverflow)
}

func Test_Allocator_Claim_When_IDIsTheNextOne_ThenTheCounterAdvances(t *testing.T) {
	// arrange
	ctx := context.Background()
	allocator := store.NewAllocator(givenOverlay(t))
	require.NoError(t, allocator.Set(ctx, 4))

	// act
	err := allocator.Claim(ctx, 4)

	// assert
	require.NoError(t, err)
	next, err := allocator.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.KittyID(5), next)
}

func Test_Allocator_Claim_When_IDIsNotTheNextOne_ThenItFailsAndCounterIsUnchanged(t *testing.T) {
	testCases := []struct {
		name    string
		claimed core.KittyID
	}{
		{name: "already issued", claimed: 3},
		{name: "ahead of the counter", claimed: 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			ctx := context.Background()
			allocator := store.NewAllocator(givenOverlay(t))
			require.NoError(t, allocator.Set(ctx, 4))

			// act
			err := allocator.Claim(ctx, tc.claimed)

			// assert
			assert.ErrorIs(t, err, store.ErrUnexpectedKittyID)
			next, err := allocator.Next(ctx)
			require.NoError(t, err)
			assert.Equal(t, core.KittyID(4), next)
		})
	}
}

func Test_Allocator_Claim_When_CounterIsAtMax_ThenOverflow(t *testing.T) {
	ctx := context.Background()
	allocator := store.NewAllocator(givenOverlay(t))
	require.NoError(t, allocator.Set(ctx, core.MaxKittyID))

	err := allocator.Claim(ctx, core.MaxKittyID)

	assert.ErrorIs(t, err, core.ErrKittyIDCannotOverflow)
}

func Test_KittyStore_RoundTrips(t *testing.T) {
	// arrange
	ctx := context.Background()
	kitties := store.NewKittyStore(givenOverlay(t))
	kitty := core.Kitty{DNA: core.Genome{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}}

	// act
	require.NoError(t, kitties.Put(ctx, 7, kitty))
	require.NoError(t, kitties.SetOwner(ctx, 7, 42))
	require.NoError(t, kitties.SetParents(ctx, 7, core.Parents{A: 3, B: 5}))

	// assert
	gotKitty, found, err := kitties.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, kitty, gotKitty)

	owner, found, err := kitties.OwnerOf(ctx, 7)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, core.AccountID(42), owner)

	parents, found, err := kitties.ParentsOf(ctx, 7)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, core.Parents{A: 3, B: 5}, parents)
}

func Test_KittyStore_When_IDIsUnknown_ThenNothingIsFound(t *testing.T) {
	ctx := context.Background()
	kitties := store.NewKittyStore(givenOverlay(t))

	_, found, err := kitties.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = kitties.OwnerOf(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = kitties.ParentsOf(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found)
}

func Test_KittyStore_When_SetOwnerIsCalledAgain_ThenTheOwnerIsReplaced(t *testing.T) {
	ctx := context.Background()
	kitties := store.NewKittyStore(givenOverlay(t))
	require.NoError(t, kitties.SetOwner(ctx, 0, 1))

	require.NoError(t, kitties.SetOwner(ctx, 0, 2))

	owner, _, err := kitties.OwnerOf(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, core.AccountID(2), owner)
}

func Test_KittyStore_UsesTheDocumentedLayout(t *testing.T) {
	// arrange
	ctx := context.Background()
	overlay := givenOverlay(t)
	kitties := store.NewKittyStore(overlay)
	allocator := store.NewAllocator(overlay)

	// act
	require.NoError(t, kitties.Put(ctx, 1, core.Kitty{DNA: core.Genome{0xAB}}))
	require.NoError(t, kitties.SetOwner(ctx, 1, 0x0102))
	require.NoError(t, kitties.SetParents(ctx, 1, core.Parents{A: 2, B: 3}))
	require.NoError(t, allocator.Set(ctx, 2))

	// assert
	expected := state.Changes{
		{Key: []byte("Kitties/Kitties/\x00\x00\x00\x01"), Value: append([]byte{0xAB}, make([]byte, 15)...)},
		{Key: []byte("Kitties/KittyOwner/\x00\x00\x00\x01"), Value: []byte{0x02, 0x01, 0, 0, 0, 0, 0, 0}},
		{Key: []byte("Kitties/KittyParents/\x00\x00\x00\x01"), Value: []byte{2, 0, 0, 0, 3, 0, 0, 0}},
		{Key: []byte("Kitties/NextKittyId"), Value: []byte{2, 0, 0, 0}},
	}
	assert.Equal(t, expected, overlay.Changes())
}

func Test_KittyStore_When_ValueIsMalformed_ThenErrCorruptValue(t *testing.T) {
	ctx := context.Background()
	overlay := givenOverlay(t)
	require.NoError(t, overlay.Put([]byte("Kitties/Kitties/\x00\x00\x00\x01"), []byte{1, 2, 3}))
	require.NoError(t, overlay.Put([]byte("Kitties/KittyOwner/\x00\x00\x00\x01"), []byte{1}))
	require.NoError(t, overlay.Put([]byte("Kitties/KittyParents/\x00\x00\x00\x01"), []byte{1, 2}))
	require.NoError(t, overlay.Put([]byte("Kitties/NextKittyId"), []byte{1, 2, 3, 4, 5}))
	kitties := store.NewKittyStore(overlay)

	_, _, err := kitties.Get(ctx, 1)
	assert.ErrorIs(t, err, store.ErrCorruptValue)

	_, _, err = kitties.OwnerOf(ctx, 1)
	assert.ErrorIs(t, err, store.ErrCorruptValue)

	_, _, err = kitties.ParentsOf(ctx, 1)
	assert.ErrorIs(t, err, store.ErrCorruptValue)

	_, err = store.NewAllocator(overlay).Next(ctx)
	assert.ErrorIs(t, err, store.ErrCorruptValue)
}
