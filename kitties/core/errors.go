package core

import "errors"

var (
	// ErrBadOrigin is returned when the caller is not a signed account.
	ErrBadOrigin = errors.New("bad origin")

	// ErrKittyIDCannotOverflow is returned when the identifier space is exhausted.
	ErrKittyIDCannotOverflow = errors.New("kitty id cannot overflow")

	// ErrSameKittyID is returned when one kitty is used as both breeding parents.
	ErrSameKittyID = errors.New("same kitty id")

	// ErrInvalidKittyID is returned when a referenced kitty does not exist.
	ErrInvalidKittyID = errors.New("invalid kitty id")

	// ErrNotOwner is returned when the caller does not own the referenced kitty.
	ErrNotOwner = errors.New("not owner")
)
