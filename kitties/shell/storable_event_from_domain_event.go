package shell

import (
	"errors"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/kitties-ledger-go/eventstore"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

// StorableEventFrom converts a DomainEvent and EventMetadata to a StorableEvent.
func StorableEventFrom(event core.DomainEvent, metadata EventMetadata) (eventstore.StorableEvent, error) {
	payloadJSON, err := payloadJSONFrom(event)
	if err != nil {
		return eventstore.StorableEvent{}, errors.Join(ErrMappingToStorableEventFailedForDomainEvent, err)
	}

	metadataJSON, err := jsoniter.ConfigFastest.Marshal(metadata)
	if err != nil {
		return eventstore.StorableEvent{}, errors.Join(ErrMappingToStorableEventFailedForMetadata, err)
	}

	storableEvent, err := eventstore.BuildStorableEvent(
		event.EventType(),
		event.HasOccurredAt(),
		payloadJSON,
		metadataJSON,
	)
	if err != nil {
		return eventstore.StorableEvent{}, errors.Join(ErrMappingToStorableEventFailedForDomainEvent, err)
	}

	return storableEvent, nil
}

// StorableEventWithEmptyMetadataFrom converts a DomainEvent to a StorableEvent with empty metadata.
func StorableEventWithEmptyMetadataFrom(event core.DomainEvent) (eventstore.StorableEvent, error) {
	payloadJSON, err := payloadJSONFrom(event)
	if err != nil {
		return eventstore.StorableEvent{}, errors.Join(ErrMappingToStorableEventFailedForDomainEvent, err)
	}

	storableEvent, err := eventstore.BuildStorableEventWithEmptyMetadata(
		event.EventType(),
		event.HasOccurredAt(),
		payloadJSON,
	)
	if err != nil {
		return eventstore.StorableEvent{}, errors.Join(ErrMappingToStorableEventFailedForDomainEvent, err)
	}

	return storableEvent, nil
}

func payloadJSONFrom(event core.DomainEvent) ([]byte, error) {
	switch e := event.(type) {
	case core.KittyCreated:
		return jsoniter.ConfigFastest.Marshal(kittyCreatedPayload{
			Who:        AccountIDToString(e.Who),
			KittyID:    KittyIDToString(e.KittyID),
			DNA:        e.Kitty.DNA.String(),
			OccurredAt: e.OccurredAt,
		})

	case core.KittyBred:
		return jsoniter.ConfigFastest.Marshal(kittyBredPayload{
			Who:        AccountIDToString(e.Who),
			KittyID:    KittyIDToString(e.KittyID),
			DNA:        e.Kitty.DNA.String(),
			ParentA:    KittyIDToString(e.Parents.A),
			ParentB:    KittyIDToString(e.Parents.B),
			OccurredAt: e.OccurredAt,
		})

	case core.KittyTransferred:
		return jsoniter.ConfigFastest.Marshal(kittyTransferredPayload{
			Who:        AccountIDToString(e.Who),
			Recipient:  AccountIDToString(e.Recipient),
			KittyID:    KittyIDToString(e.KittyID),
			OccurredAt: e.OccurredAt,
		})
	}

	return nil, ErrMappingToDomainEventUnknownEventType
}
