package memorystate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/kitties-ledger-go/state"
	"github.com/AntonStoeckl/kitties-ledger-go/state/memorystate"
)

func Test_Apply_When_VersionMatches(t *testing.T) {
	// arrange
	ctx := context.Background()
	backend := memorystate.NewBackend()

	// act
	err := backend.Apply(ctx, 0, state.Changes{{Key: []byte("a"), Value: []byte{1}}})

	// assert
	require.NoError(t, err)
	value, found, err := backend.Get(ctx, []byte("a"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte{1}, value)
	version, err := backend.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, state.Version(1), version)
}

func Test_Apply_When_VersionIsStale(t *testing.T) {
	// arrange
	ctx := context.Background()
	backend := memorystate.NewBackend()
	require.NoError(t, backend.Apply(ctx, 0, state.Changes{{Key: []byte("a"), Value: []byte{1}}}))

	// act
	err := backend.Apply(ctx, 0, state.Changes{{Key: []byte("a"), Value: []byte{2}}})

	// assert
	assert.ErrorIs(t, err, state.ErrConcurrencyConflict)
	value, _, _ := backend.Get(ctx, []byte("a"))
	assert.Equal(t, []byte{1}, value, "a conflicting change set must not be written")
}

func Test_Get_ReturnsACopy(t *testing.T) {
	// arrange
	ctx := context.Background()
	backend := memorystate.NewBackend()
	require.NoError(t, backend.Apply(ctx, 0, state.Changes{{Key: []byte("a"), Value: []byte{1}}}))

	// act
	value, _, _ := backend.Get(ctx, []byte("a"))
	value[0] = 9

	// assert
	stored, _, _ := backend.Get(ctx, []byte("a"))
	assert.Equal(t, []byte{1}, stored)
}
