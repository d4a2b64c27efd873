// Package store maps the kitties state onto a raw key/value state.
//
// KittyStore holds the three maps id -> kitty, id -> owner and id -> parents.
// Allocator owns the NextKittyId counter cell. Both work on whatever state.ReadWriter they are
// given, in practice the state.Overlay of the current call, so nothing is written before the
// call commits.
package store
