package breedkitty

import (
	"time"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

const (
	commandType = "BreedKitty"
)

// Command represents the intent to breed a kitty from two parents.
type Command struct {
	Origin     core.Origin
	ParentA    core.KittyID
	ParentB    core.KittyID
	OccurredAt core.OccurredAt
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(origin core.Origin, parentA core.KittyID, parentB core.KittyID, occurredAt time.Time) Command {
	return Command{
		Origin:     origin,
		ParentA:    parentA,
		ParentB:    parentB,
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}
