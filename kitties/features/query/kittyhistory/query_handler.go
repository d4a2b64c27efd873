package kittyhistory

import (
	"context"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/shell"
)

// QueryHandler orchestrates the query processing workflow: Query -> Unmarshal -> Project.
type QueryHandler struct {
	eventStore shell.QueriesEvents
}

// NewQueryHandler creates a new QueryHandler with the provided EventStore dependency.
func NewQueryHandler(eventStore shell.QueriesEvents) QueryHandler {
	return QueryHandler{
		eventStore: eventStore,
	}
}

// Handle executes the query.
func (h QueryHandler) Handle(ctx context.Context, query Query) (KittyHistory, error) {
	storableEvents, maxSeq, err := h.eventStore.Query(ctx, BuildEventFilter(query.KittyID))
	if err != nil {
		return KittyHistory{}, err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return KittyHistory{}, err
	}

	return Project(history, query, maxSeq), nil
}
