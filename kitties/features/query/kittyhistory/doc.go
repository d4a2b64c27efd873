// Package kittyhistory implements the Kitty History query use case.
//
// It projects the life of one kitty from the event log: its creation, lineage,
// every change of owner and the children it was a parent of.
package kittyhistory
