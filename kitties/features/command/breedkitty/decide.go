package breedkitty

import (
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/breeding"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

// State is the part of the ledger state a breed decision depends on.
// A nil parent does not exist.
type State struct {
	NextKittyID core.KittyID
	ParentA     *core.Kitty
	ParentB     *core.Kitty
}

// Decide implements the business logic of breeding a kitty. It is a pure function.
//
// Business Rules:
//
//	GIVEN: two parent ids and the next free kitty id
//	WHEN: BreedKitty command is received
//	THEN: KittyBred event for the next free id, owned by the caller, with both parents as lineage
//	ERROR: bad origin if the call is not signed
//	ERROR: same kitty id if both parents are the same kitty
//	ERROR: invalid kitty id if a parent does not exist
//	ERROR: kitty id cannot overflow if the id space is exhausted
func Decide(s State, command Command, entropy breeding.EntropySource) core.DecisionResult {
	who, err := command.Origin.EnsureSigned()
	if err != nil {
		return core.ErrorDecision(err)
	}

	if command.ParentA == command.ParentB {
		return core.ErrorDecision(core.ErrSameKittyID)
	}

	if s.ParentA == nil || s.ParentB == nil {
		return core.ErrorDecision(core.ErrInvalidKittyID)
	}

	if s.NextKittyID == core.MaxKittyID {
		return core.ErrorDecision(core.ErrKittyIDCannotOverflow)
	}

	selector := entropy.Random(breeding.BreedSubject(who, command.ParentA, command.ParentB, s.NextKittyID))
	dna := breeding.Combine(s.ParentA.DNA, s.ParentB.DNA, selector)

	return core.SuccessDecision(
		core.BuildKittyBred(
			who,
			s.NextKittyID,
			core.Kitty{DNA: dna},
			core.Parents{A: command.ParentA, B: command.ParentB},
			command.OccurredAt,
		),
	)
}
