package transferkitty

import (
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

// State is the part of the ledger state a transfer decision depends on.
type State struct {
	KittyExists bool
	Owner       core.AccountID
}

// Decide implements the business logic of transferring a kitty. It is a pure function.
//
// Business Rules:
//
//	GIVEN: a kitty and its owner
//	WHEN: TransferKitty command is received
//	THEN: KittyTransferred event naming the caller and the recipient
//	ERROR: bad origin if the call is not signed
//	ERROR: invalid kitty id if the kitty does not exist
//	ERROR: not owner if the caller does not own the kitty
func Decide(s State, command Command) core.DecisionResult {
	who, err := command.Origin.EnsureSigned()
	if err != nil {
		return core.ErrorDecision(err)
	}

	if !s.KittyExists {
		return core.ErrorDecision(core.ErrInvalidKittyID)
	}

	if s.Owner != who {
		return core.ErrorDecision(core.ErrNotOwner)
	}

	return core.SuccessDecision(
		core.BuildKittyTransferred(
			who,
			command.Recipient,
			command.KittyID,
			command.OccurredAt,
		),
	)
}
