// Package createkitty implements the Create Kitty use case.
//
// A signed caller receives a new kitty under the next free id, with a genome drawn from the
// injected entropy source. The kitty has no lineage.
//
// The CommandHandler follows AuthCheck -> Load -> Decide -> Mutate -> Commit. Decide is pure;
// all writes go to one state overlay that is committed only if every step succeeded.
package createkitty
