package ownedkitties

import (
	"cmp"
	"slices"

	"github.com/AntonStoeckl/kitties-ledger-go/eventstore"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/shell"
)

// Project implements the query logic. It is a pure function.
//
// Query Logic:
//
//	GIVEN: an account
//	WHEN: OwnedKitties query is executed
//	THEN: every kitty the account created, bred or received, ordered by id
//	EXCLUDES: kitties the account transferred to someone else
func Project(history core.DomainEvents, query Query, maxSeq uint) OwnedKitties {
	owned := make(map[core.KittyID]KittyInfo)

	for _, event := range history {
		switch e := event.(type) {
		case core.KittyCreated:
			if e.Who == query.Owner {
				owned[e.KittyID] = KittyInfo{KittyID: e.KittyID, OwnedSince: e.OccurredAt}
			}

		case core.KittyBred:
			if e.Who == query.Owner {
				owned[e.KittyID] = KittyInfo{KittyID: e.KittyID, OwnedSince: e.OccurredAt}
			}

		case core.KittyTransferred:
			if e.Recipient == query.Owner {
				if _, ok := owned[e.KittyID]; !ok {
					owned[e.KittyID] = KittyInfo{KittyID: e.KittyID, OwnedSince: e.OccurredAt}
				}
				continue
			}

			if e.Who == query.Owner {
				delete(owned, e.KittyID)
			}
		}
	}

	kitties := make([]KittyInfo, 0, len(owned))
	for _, info := range owned {
		kitties = append(kitties, info)
	}
	slices.SortFunc(kitties, func(a, b KittyInfo) int {
		return cmp.Compare(a.KittyID, b.KittyID)
	})

	return OwnedKitties{
		Owner:          query.Owner,
		Kitties:        kitties,
		Count:          len(kitties),
		SequenceNumber: maxSeq,
	}
}

// BuildEventFilter selects every event in which the account appears as actor or recipient.
func BuildEventFilter(owner core.AccountID) eventstore.Filter {
	account := shell.AccountIDToString(owner)

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.KittyCreatedEventType,
			core.KittyBredEventType,
			core.KittyTransferredEventType,
		).
		AndAnyPredicateOf(
			eventstore.P(shell.PayloadKeyWho, account),
			eventstore.P(shell.PayloadKeyRecipient, account),
		).
		Finalize()
}
