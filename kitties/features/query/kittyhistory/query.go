package kittyhistory

import (
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

const (
	queryType = "KittyHistory"
)

// Query represents the intent to read the history of a kitty.
type Query struct {
	KittyID core.KittyID
}

// BuildQuery creates a new Query with the provided kitty id.
func BuildQuery(kittyID core.KittyID) Query {
	return Query{
		KittyID: kittyID,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
