package shell

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

// Payload field names, usable as event filter predicate keys.
const (
	PayloadKeyWho       = "Who"
	PayloadKeyRecipient = "Recipient"
	PayloadKeyKittyID   = "KittyID"
	PayloadKeyParentA   = "ParentA"
	PayloadKeyParentB   = "ParentB"
)

type kittyCreatedPayload struct {
	Who        string    `json:"Who"`
	KittyID    string    `json:"KittyID"`
	DNA        string    `json:"DNA"`
	OccurredAt time.Time `json:"OccurredAt"`
}

type kittyBredPayload struct {
	Who        string    `json:"Who"`
	KittyID    string    `json:"KittyID"`
	DNA        string    `json:"DNA"`
	ParentA    string    `json:"ParentA"`
	ParentB    string    `json:"ParentB"`
	OccurredAt time.Time `json:"OccurredAt"`
}

type kittyTransferredPayload struct {
	Who        string    `json:"Who"`
	Recipient  string    `json:"Recipient"`
	KittyID    string    `json:"KittyID"`
	OccurredAt time.Time `json:"OccurredAt"`
}

// AccountIDToString renders an account the way it appears in event payloads.
func AccountIDToString(account core.AccountID) string {
	return strconv.FormatUint(uint64(account), 10)
}

// KittyIDToString renders a kitty id the way it appears in event payloads.
func KittyIDToString(id core.KittyID) string {
	return strconv.FormatUint(uint64(id), 10)
}

func parseAccountID(s string) (core.AccountID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("account id %q: %w", s, err)
	}

	return core.AccountID(v), nil
}

func parseKittyID(s string) (core.KittyID, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("kitty id %q: %w", s, err)
	}

	return core.KittyID(v), nil
}

func parseGenome(s string) (core.Genome, error) {
	var genome core.Genome

	raw, err := hex.DecodeString(s)
	if err != nil {
		return genome, fmt.Errorf("dna %q: %w", s, err)
	}

	if len(raw) != core.GenomeLength {
		return genome, fmt.Errorf("dna %q: want %d bytes, got %d", s, core.GenomeLength, len(raw))
	}

	copy(genome[:], raw)

	return genome, nil
}
