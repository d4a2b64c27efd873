package ownedkitties

import (
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

const (
	queryType = "OwnedKitties"
)

// Query represents the intent to list the kitties an account owns.
type Query struct {
	Owner core.AccountID
}

// BuildQuery creates a new Query with the provided owner.
func BuildQuery(owner core.AccountID) Query {
	return Query{
		Owner: owner,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
