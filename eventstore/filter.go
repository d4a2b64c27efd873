package eventstore

import (
	"cmp"
	"slices"
)

// Filter selects the events of a "dynamic event stream".
// Its items are OR-ed; an empty Filter matches every event.
type Filter struct {
	items []FilterItem
}

// Items returns the FilterItem(s) of the Filter.
func (f Filter) Items() []FilterItem {
	return f.items
}

// FilterItem matches events whose type is one of EventTypes (if any)
// and whose payload matches any of the Predicates (if any).
type FilterItem struct {
	eventTypes []string
	predicates []FilterPredicate
}

// EventTypes returns the event types, OR-ed.
func (fi FilterItem) EventTypes() []string {
	return fi.eventTypes
}

// Predicates returns the payload predicates, OR-ed.
func (fi FilterItem) Predicates() []FilterPredicate {
	return fi.predicates
}

// FilterPredicate matches events whose top-level payload property Key equals the string Val.
type FilterPredicate struct {
	key string
	val string
}

// P builds a FilterPredicate.
func P(key string, val string) FilterPredicate {
	return FilterPredicate{key: key, val: val}
}

// Key returns the payload property name.
func (fp FilterPredicate) Key() string {
	return fp.key
}

// Val returns the expected payload property value.
func (fp FilterPredicate) Val() string {
	return fp.val
}

// FilterBuilder only allows filter shapes that are useful for event-sourced workflows:
//
//   - empty filter
//   - (eventType OR eventType...)
//   - (predicate OR predicate...)
//   - ((eventType OR eventType...) AND (predicate OR predicate...))
//   - multiple of the above, OR-ed
type FilterBuilder interface {
	// Matching starts a new FilterItem.
	Matching() EmptyFilterItemBuilder

	// MatchingAnyEvent directly creates an empty Filter.
	MatchingAnyEvent() Filter
}

// EmptyFilterItemBuilder is the state of a FilterItem without event types and predicates.
type EmptyFilterItemBuilder interface {
	// AnyEventTypeOf adds event types, dropping empty and duplicate ones.
	AnyEventTypeOf(eventType string, eventTypes ...string) FilterItemBuilderLackingPredicates

	// AnyPredicateOf adds predicates, dropping partial and duplicate ones.
	AnyPredicateOf(predicate FilterPredicate, predicates ...FilterPredicate) FilterItemBuilderLackingEventTypes
}

// FilterItemBuilderLackingPredicates is the state of a FilterItem with event types only.
type FilterItemBuilderLackingPredicates interface {
	AndAnyPredicateOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder
	CompletedFilterItemBuilder
}

// FilterItemBuilderLackingEventTypes is the state of a FilterItem with predicates only.
type FilterItemBuilderLackingEventTypes interface {
	AndAnyEventTypeOf(eventType string, eventTypes ...string) CompletedFilterItemBuilder
	CompletedFilterItemBuilder
}

// CompletedFilterItemBuilder can start another FilterItem or finish the Filter.
type CompletedFilterItemBuilder interface {
	// OrMatching finalizes the current FilterItem and starts a new one.
	OrMatching() EmptyFilterItemBuilder

	// Finalize returns the Filter.
	Finalize() Filter
}

type filterBuilder struct {
	filter  Filter
	current FilterItem
}

// BuildEventFilter creates a FilterBuilder which must eventually be finalized with Finalize() or MatchingAnyEvent().
func BuildEventFilter() FilterBuilder {
	return filterBuilder{}
}

func (fb filterBuilder) Matching() EmptyFilterItemBuilder {
	fb.current = FilterItem{}

	return fb
}

func (fb filterBuilder) MatchingAnyEvent() Filter {
	return Filter{}
}

func (fb filterBuilder) AnyEventTypeOf(eventType string, eventTypes ...string) FilterItemBuilderLackingPredicates {
	fb.current.eventTypes = sanitizeEventTypes(append(slices.Clone(fb.current.eventTypes), append([]string{eventType}, eventTypes...)...))

	return fb
}

func (fb filterBuilder) AndAnyEventTypeOf(eventType string, eventTypes ...string) CompletedFilterItemBuilder {
	return fb.AnyEventTypeOf(eventType, eventTypes...)
}

func (fb filterBuilder) AnyPredicateOf(predicate FilterPredicate, predicates ...FilterPredicate) FilterItemBuilderLackingEventTypes {
	fb.current.predicates = sanitizePredicates(append(slices.Clone(fb.current.predicates), append([]FilterPredicate{predicate}, predicates...)...))

	return fb
}

func (fb filterBuilder) AndAnyPredicateOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder {
	return fb.AnyPredicateOf(predicate, predicates...)
}

func (fb filterBuilder) OrMatching() EmptyFilterItemBuilder {
	fb.filter.items = append(slices.Clone(fb.filter.items), fb.current)
	fb.current = FilterItem{}

	return fb
}

func (fb filterBuilder) Finalize() Filter {
	items := append(slices.Clone(fb.filter.items), fb.current)

	return Filter{items: items}
}

func sanitizeEventTypes(eventTypes []string) []string {
	eventTypes = slices.DeleteFunc(eventTypes, func(e string) bool { return e == "" })
	slices.Sort(eventTypes)

	return slices.Clip(slices.Compact(eventTypes))
}

func sanitizePredicates(predicates []FilterPredicate) []FilterPredicate {
	predicates = slices.DeleteFunc(predicates, func(p FilterPredicate) bool { return p.key == "" || p.val == "" })
	slices.SortFunc(predicates, func(a, b FilterPredicate) int {
		return cmp.Or(cmp.Compare(a.key, b.key), cmp.Compare(a.val, b.val))
	})

	return slices.Clip(slices.Compact(predicates))
}
