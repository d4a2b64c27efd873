package transferkitty_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/features/command/transferkitty"
)

func Test_Decide(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		name     string
		origin   core.Origin
		state    transferkitty.State
		expected error
	}{
		{"owner transfers", core.Signed(1), transferkitty.State{KittyExists: true, Owner: 1}, nil},
		{"root origin", core.Root(), transferkitty.State{KittyExists: true, Owner: 1}, core.ErrBadOrigin},
		{"unsigned origin wins over unknown kitty", core.None(), transferkitty.State{}, core.ErrBadOrigin},
		{"unknown kitty", core.Signed(1), transferkitty.State{}, core.ErrInvalidKittyID},
		{"not owner", core.Signed(2), transferkitty.State{KittyExists: true, Owner: 1}, core.ErrNotOwner},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			command := transferkitty.BuildCommand(tc.origin, 3, 0, now)

			// act
			result := transferkitty.Decide(tc.state, command)

			// assert
			if tc.expected != nil {
				assert.ErrorIs(t, result.HasError(), tc.expected)
				assert.False(t, result.HasEventToApply())
				return
			}

			assert.NoError(t, result.HasError())
			assert.Equal(t, core.BuildKittyTransferred(1, 3, 0, now), result.Event)
		})
	}
}

func Test_Decide_Success_WhenTransferringToSelf(t *testing.T) {
	// arrange
	now := time.Now()
	command := transferkitty.BuildCommand(core.Signed(1), 1, 0, now)

	// act
	result := transferkitty.Decide(transferkitty.State{KittyExists: true, Owner: 1}, command)

	// assert
	assert.NoError(t, result.HasError())
	assert.Equal(t, core.BuildKittyTransferred(1, 1, 0, now), result.Event)
}
