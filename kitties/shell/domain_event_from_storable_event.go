package shell

import (
	"errors"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/kitties-ledger-go/eventstore"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

// DomainEventsFrom converts multiple StorableEvents to DomainEvents.
func DomainEventsFrom(storableEvents eventstore.StorableEvents) (core.DomainEvents, error) {
	domainEvents := make(core.DomainEvents, 0, len(storableEvents))

	for _, storableEvent := range storableEvents {
		domainEvent, err := DomainEventFrom(storableEvent)
		if err != nil {
			return nil, err
		}

		domainEvents = append(domainEvents, domainEvent)
	}

	return domainEvents, nil
}

// DomainEventFrom converts a StorableEvent to its corresponding DomainEvent.
func DomainEventFrom(storableEvent eventstore.StorableEvent) (core.DomainEvent, error) {
	switch storableEvent.EventType {
	case core.KittyCreatedEventType:
		return unmarshalKittyCreated(storableEvent.PayloadJSON)

	case core.KittyBredEventType:
		return unmarshalKittyBred(storableEvent.PayloadJSON)

	case core.KittyTransferredEventType:
		return unmarshalKittyTransferred(storableEvent.PayloadJSON)
	}

	return nil, errors.Join(ErrMappingToDomainEventFailed, ErrMappingToDomainEventUnknownEventType)
}

func unmarshalKittyCreated(payloadJSON []byte) (core.DomainEvent, error) {
	payload := new(kittyCreatedPayload)
	if err := jsoniter.ConfigFastest.Unmarshal(payloadJSON, payload); err != nil {
		return nil, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	who, err := parseAccountID(payload.Who)
	if err != nil {
		return nil, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	kittyID, err := parseKittyID(payload.KittyID)
	if err != nil {
		return nil, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	dna, err := parseGenome(payload.DNA)
	if err != nil {
		return nil, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	return core.BuildKittyCreated(who, kittyID, core.Kitty{DNA: dna}, payload.OccurredAt), nil
}

func unmarshalKittyBred(payloadJSON []byte) (core.DomainEvent, error) {
	payload := new(kittyBredPayload)
	if err := jsoniter.ConfigFastest.Unmarshal(payloadJSON, payload); err != nil {
		return nil, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	who, err := parseAccountID(payload.Who)
	if err != nil {
		return nil, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	ids := make([]core.KittyID, 0, 3)
	for _, raw := range []string{payload.KittyID, payload.ParentA, payload.ParentB} {
		id, parseErr := parseKittyID(raw)
		if parseErr != nil {
			return nil, errors.Join(ErrMappingToDomainEventFailed, parseErr)
		}

		ids = append(ids, id)
	}

	dna, err := parseGenome(payload.DNA)
	if err != nil {
		return nil, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	return core.BuildKittyBred(
		who,
		ids[0],
		core.Kitty{DNA: dna},
		core.Parents{A: ids[1], B: ids[2]},
		payload.OccurredAt,
	), nil
}

func unmarshalKittyTransferred(payloadJSON []byte) (core.DomainEvent, error) {
	payload := new(kittyTransferredPayload)
	if err := jsoniter.ConfigFastest.Unmarshal(payloadJSON, payload); err != nil {
		return nil, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	who, err := parseAccountID(payload.Who)
	if err != nil {
		return nil, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	recipient, err := parseAccountID(payload.Recipient)
	if err != nil {
		return nil, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	kittyID, err := parseKittyID(payload.KittyID)
	if err != nil {
		return nil, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	return core.BuildKittyTransferred(who, recipient, kittyID, payload.OccurredAt), nil
}
