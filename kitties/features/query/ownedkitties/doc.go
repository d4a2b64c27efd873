// Package ownedkitties implements the Owned Kitties query use case.
//
// It projects the kitties an account currently owns from the event log. The result is
// a read model: the ledger state in package store stays authoritative.
package ownedkitties
