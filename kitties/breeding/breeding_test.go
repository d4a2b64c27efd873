package breeding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/breeding"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

func Test_Combine(t *testing.T) {
	a := core.Genome{0xFF, 0x00, 0xF0, 0x0F, 0xAA, 0xAA, 0xAA, 0xAA, 1, 2, 3, 4, 5, 6, 7, 8}
	b := core.Genome{0x00, 0xFF, 0x0F, 0xF0, 0x55, 0x55, 0x55, 0x55, 8, 7, 6, 5, 4, 3, 2, 1}

	testCases := []struct {
		description string
		selector    breeding.Selector
		expected    core.Genome
	}{
		{
			description: "all bits set takes parent a",
			selector:    fill(0xFF),
			expected:    a,
		},
		{
			description: "no bits set takes parent b",
			selector:    fill(0x00),
			expected:    b,
		},
		{
			description: "mixed selector picks bit by bit",
			selector:    breeding.Selector{0xF0, 0xF0, 0xF0, 0xF0, 0x0F, 0xFF, 0x00, 0x3C},
			expected: core.Genome{
				0xF0, 0x0F, 0xFF, 0x00, 0x5A, 0xAA, 0x55, 0x69,
				8, 7, 6, 5, 4, 3, 2, 1,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			child := breeding.Combine(a, b, tc.selector)

			assert.Equal(t, tc.expected, child)
		})
	}
}

func Test_Combine_When_CalledTwiceWithSameInputs_ThenResultIsIdentical(t *testing.T) {
	a := core.Genome{1, 2, 3}
	b := core.Genome{3, 2, 1}
	selector := breeding.Selector{0x5A, 0xA5, 0x0F}

	assert.Equal(t, breeding.Combine(a, b, selector), breeding.Combine(a, b, selector))
}

func Test_Blake2Source_IsDeterministicPerSeedAndSubject(t *testing.T) {
	// arrange
	source := breeding.NewBlake2Source([]byte("seed"))
	otherSeed := breeding.NewBlake2Source([]byte("other seed"))
	subject := breeding.CreateSubject(1, 0)

	// act
	first := source.Random(subject)
	second := source.Random(subject)
	nextID := source.Random(breeding.CreateSubject(1, 1))
	otherAccount := source.Random(breeding.CreateSubject(2, 0))
	withOtherSeed := otherSeed.Random(subject)

	// assert
	assert.Equal(t, first, second)
	assert.NotEqual(t, first, nextID)
	assert.NotEqual(t, first, otherAccount)
	assert.NotEqual(t, first, withOtherSeed)
}

func Test_Subjects_AreDistinct(t *testing.T) {
	subjects := [][]byte{
		breeding.CreateSubject(1, 2),
		breeding.BreedSubject(1, 0, 1, 2),
		breeding.BreedSubject(1, 1, 0, 2),
		breeding.BreedSubject(2, 0, 1, 2),
		breeding.BreedSubject(1, 0, 1, 3),
	}

	for i := range subjects {
		for j := i + 1; j < len(subjects); j++ {
			assert.NotEqual(t, subjects[i], subjects[j], "subjects %d and %d", i, j)
		}
	}
}

func fill(b byte) breeding.Selector {
	var s breeding.Selector
	for i := range s {
		s[i] = b
	}

	return s
}
