package eventstore

import (
	jsoniter "github.com/json-iterator/go"
)

// Matches reports whether event belongs to the "dynamic event stream" selected by the Filter.
// A predicate matches a top-level payload property holding exactly the string Val,
// which is what JSONB containment does in the PostgreSQL engine.
func (f Filter) Matches(event StorableEvent) bool {
	if len(f.items) == 0 {
		return true
	}

	for _, item := range f.items {
		if item.matches(event) {
			return true
		}
	}

	return false
}

func (fi FilterItem) matches(event StorableEvent) bool {
	if len(fi.eventTypes) > 0 && !containsString(fi.eventTypes, event.EventType) {
		return false
	}

	if len(fi.predicates) == 0 {
		return true
	}

	for _, predicate := range fi.predicates {
		property := jsoniter.ConfigFastest.Get(event.PayloadJSON, predicate.key)
		if property.ValueType() == jsoniter.StringValue && property.ToString() == predicate.val {
			return true
		}
	}

	return false
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}

	return false
}
