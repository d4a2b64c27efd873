// Package breedkitty implements the Breed Kitty use case.
//
// A signed caller breeds two distinct, existing kitties. The child gets the next free id,
// a genome combined from both parents with an entropy selector, the caller as owner and the
// parents as lineage. The caller does not need to own the parents.
package breedkitty
