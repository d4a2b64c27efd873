package createkitty

import (
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/breeding"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

// State is the part of the ledger state a create decision depends on.
type State struct {
	NextKittyID core.KittyID
}

// Decide implements the business logic of creating a kitty. It is a pure function.
//
// Business Rules:
//
//	GIVEN: the next free kitty id
//	WHEN: CreateKitty command is received
//	THEN: KittyCreated event for the next free id, owned by the caller
//	ERROR: bad origin if the call is not signed
//	ERROR: kitty id cannot overflow if the id space is exhausted
func Decide(s State, command Command, entropy breeding.EntropySource) core.DecisionResult {
	who, err := command.Origin.EnsureSigned()
	if err != nil {
		return core.ErrorDecision(err)
	}

	if s.NextKittyID == core.MaxKittyID {
		return core.ErrorDecision(core.ErrKittyIDCannotOverflow)
	}

	dna := entropy.Random(breeding.CreateSubject(who, s.NextKittyID))

	return core.SuccessDecision(
		core.BuildKittyCreated(
			who,
			s.NextKittyID,
			core.Kitty{DNA: dna},
			command.OccurredAt,
		),
	)
}
