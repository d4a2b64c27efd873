package createkitty

import (
	"time"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

const (
	commandType = "CreateKitty"
)

// Command represents the intent to create a kitty.
type Command struct {
	Origin     core.Origin
	OccurredAt core.OccurredAt
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(origin core.Origin, occurredAt time.Time) Command {
	return Command{
		Origin:     origin,
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}
