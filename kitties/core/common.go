package core

import (
	"encoding/hex"
	"math"
	"time"
)

// KittyID is the bounded, monotonically allocated identifier of a kitty.
type KittyID uint32

// MaxKittyID is the sentinel maximum of the identifier space. It is never issued.
const MaxKittyID KittyID = math.MaxUint32

// AccountID identifies an account on the ledger.
type AccountID uint64

// GenomeLength is the fixed length of a kitty genome in bytes.
const GenomeLength = 16

// Genome is the fixed-length genetic payload of a kitty.
type Genome [GenomeLength]byte

// String returns the hex encoding of the genome.
func (g Genome) String() string {
	return hex.EncodeToString(g[:])
}

// Kitty is immutable after creation.
type Kitty struct {
	DNA Genome
}

// Parents is the lineage pair of a bred kitty.
type Parents struct {
	A KittyID
	B KittyID
}

// OccurredAt represents when an event occurred
type OccurredAt = time.Time

// ToOccurredAt converts a time to OccurredAt with UTC normalization and microsecond precision
func ToOccurredAt(t time.Time) OccurredAt {
	return t.UTC().Truncate(time.Microsecond)
}
