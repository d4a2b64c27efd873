package transferkitty

import (
	"time"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

const (
	commandType = "TransferKitty"
)

// Command represents the intent to transfer a kitty to a recipient.
type Command struct {
	Origin     core.Origin
	Recipient  core.AccountID
	KittyID    core.KittyID
	OccurredAt core.OccurredAt
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(origin core.Origin, recipient core.AccountID, kittyID core.KittyID, occurredAt time.Time) Command {
	return Command{
		Origin:     origin,
		Recipient:  recipient,
		KittyID:    kittyID,
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}
