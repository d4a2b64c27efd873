package createkitty_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/breeding"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/features/command/createkitty"
	"github.com/AntonStoeckl/kitties-ledger-go/testutil"
)

func Test_Decide_Success_WhenCallIsSigned(t *testing.T) {
	// arrange
	dna := [core.GenomeLength]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	entropy := testutil.NewFixedEntropy(dna)
	now := time.Now()
	command := createkitty.BuildCommand(core.Signed(1), now)

	// act
	result := createkitty.Decide(createkitty.State{NextKittyID: 5}, command, entropy)

	// assert
	assert.NoError(t, result.HasError())
	assert.True(t, result.HasEventToApply())
	assert.Equal(t, core.BuildKittyCreated(1, 5, core.Kitty{DNA: dna}, now), result.Event)
	assert.Equal(t, [][]byte{breeding.CreateSubject(1, 5)}, entropy.Subjects())
}

func Test_Decide_Error_WhenOriginIsNotSigned(t *testing.T) {
	for name, origin := range map[string]core.Origin{"root": core.Root(), "none": core.None()} {
		t.Run(name, func(t *testing.T) {
			// arrange
			entropy := testutil.NewFixedEntropy([core.GenomeLength]byte{})
			command := createkitty.BuildCommand(origin, time.Now())

			// act
			result := createkitty.Decide(createkitty.State{NextKittyID: core.MaxKittyID}, command, entropy)

			// assert
			assert.ErrorIs(t, result.HasError(), core.ErrBadOrigin)
			assert.False(t, result.HasEventToApply())
			assert.Zero(t, entropy.Calls())
		})
	}
}

func Test_Decide_Error_WhenIDSpaceIsExhausted(t *testing.T) {
	// arrange
	entropy := testutil.NewFixedEntropy([core.GenomeLength]byte{})
	command := createkitty.BuildCommand(core.Signed(1), time.Now())

	// act
	result := createkitty.Decide(createkitty.State{NextKittyID: core.MaxKittyID}, command, entropy)

	// assert
	assert.ErrorIs(t, result.HasError(), core.ErrKittyIDCannotOverflow)
	assert.Zero(t, entropy.Calls())
}

func Test_Decide_Success_WhenOneIDIsLeft(t *testing.T) {
	// arrange
	entropy := testutil.NewFixedEntropy([core.GenomeLength]byte{})
	command := createkitty.BuildCommand(core.Signed(1), time.Now())

	// act
	result := createkitty.Decide(createkitty.State{NextKittyID: core.MaxKittyID - 1}, command, entropy)

	// assert
	assert.NoError(t, result.HasError())
	assert.Equal(t, core.MaxKittyID-1, result.Event.(core.KittyCreated).KittyID)
}
