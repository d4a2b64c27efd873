package kittyhistory

import (
	"github.com/AntonStoeckl/kitties-ledger-go/eventstore"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/shell"
)

// Project implements the query logic. It is a pure function.
//
// Query Logic:
//
//	GIVEN: a kitty id
//	WHEN: KittyHistory query is executed
//	THEN: genome, creation time, lineage, owner history and children in event order
func Project(history core.DomainEvents, query Query, maxSeq uint) KittyHistory {
	result := KittyHistory{
		KittyID:        query.KittyID,
		Owners:         make([]OwnerChange, 0),
		Children:       make([]core.KittyID, 0),
		SequenceNumber: maxSeq,
	}

	for _, event := range history {
		switch e := event.(type) {
		case core.KittyCreated:
			if e.KittyID == query.KittyID {
				result.Found = true
				result.DNA = e.Kitty.DNA
				result.CreatedAt = e.OccurredAt
				result.Owners = append(result.Owners, OwnerChange{Owner: e.Who, Since: e.OccurredAt})
			}

		case core.KittyBred:
			if e.KittyID == query.KittyID {
				parents := e.Parents
				result.Found = true
				result.DNA = e.Kitty.DNA
				result.CreatedAt = e.OccurredAt
				result.Parents = &parents
				result.Owners = append(result.Owners, OwnerChange{Owner: e.Who, Since: e.OccurredAt})

				continue
			}

			if e.Parents.A == query.KittyID || e.Parents.B == query.KittyID {
				result.Children = append(result.Children, e.KittyID)
			}

		case core.KittyTransferred:
			if e.KittyID == query.KittyID {
				result.Owners = append(result.Owners, OwnerChange{Owner: e.Recipient, Since: e.OccurredAt})
			}
		}
	}

	return result
}

// BuildEventFilter selects every event about the kitty, plus the births it was a parent of.
func BuildEventFilter(kittyID core.KittyID) eventstore.Filter {
	id := shell.KittyIDToString(kittyID)

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.KittyCreatedEventType,
			core.KittyBredEventType,
			core.KittyTransferredEventType,
		).
		AndAnyPredicateOf(
			eventstore.P(shell.PayloadKeyKittyID, id),
			eventstore.P(shell.PayloadKeyParentA, id),
			eventstore.P(shell.PayloadKeyParentB, id),
		).
		Finalize()
}
