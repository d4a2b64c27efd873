package breeding

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

const (
	subjectTagCreate = "kitties/create"
	subjectTagBreed  = "kitties/breed"
)

// EntropySource yields 16 bytes of entropy for a subject.
// Callers must never ask twice for the same subject if they need fresh values.
type EntropySource interface {
	Random(subject []byte) [core.GenomeLength]byte
}

// Blake2Source derives entropy as blake2b-128(seed || subject).
type Blake2Source struct {
	seed []byte
}

// NewBlake2Source creates a Blake2Source. The seed is copied.
func NewBlake2Source(seed []byte) *Blake2Source {
	return &Blake2Source{seed: append([]byte(nil), seed...)}
}

// Random implements EntropySource.
func (s *Blake2Source) Random(subject []byte) [core.GenomeLength]byte {
	h, err := blake2b.New(core.GenomeLength, nil)
	if err != nil {
		// only possible for an invalid size or an oversized key
		panic(err)
	}

	_, _ = h.Write(s.seed)
	_, _ = h.Write(subject)

	var out [core.GenomeLength]byte
	copy(out[:], h.Sum(nil))

	return out
}

// CreateSubject builds the entropy subject of a create call that is about to allocate kittyID.
func CreateSubject(who core.AccountID, kittyID core.KittyID) []byte {
	subject := make([]byte, 0, len(subjectTagCreate)+8+4)
	subject = append(subject, subjectTagCreate...)
	subject = binary.LittleEndian.AppendUint64(subject, uint64(who))
	subject = binary.LittleEndian.AppendUint32(subject, uint32(kittyID))

	return subject
}

// BreedSubject builds the entropy subject of a breed call of parents a and b that is about to allocate kittyID.
func BreedSubject(who core.AccountID, a core.KittyID, b core.KittyID, kittyID core.KittyID) []byte {
	subject := make([]byte, 0, len(subjectTagBreed)+8+4+4+4)
	subject = append(subject, subjectTagBreed...)
	subject = binary.LittleEndian.AppendUint64(subject, uint64(who))
	subject = binary.LittleEndian.AppendUint32(subject, uint32(a))
	subject = binary.LittleEndian.AppendUint32(subject, uint32(b))
	subject = binary.LittleEndian.AppendUint32(subject, uint32(kittyID))

	return subject
}
