package store

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

const (
	prefixKitties      = "Kitties/Kitties/"
	prefixKittyOwner   = "Kitties/KittyOwner/"
	prefixKittyParents = "Kitties/KittyParents/"
	keyNextKittyID     = "Kitties/NextKittyId"

	kittyIDWidth   = 4
	accountIDWidth = 8
	parentsWidth   = 2 * kittyIDWidth
)

// ErrCorruptValue is returned when a stored value cannot be decoded.
var ErrCorruptValue = errors.New("corrupt state value")

func kittyKey(id core.KittyID) []byte {
	return idKey(prefixKitties, id)
}

func ownerKey(id core.KittyID) []byte {
	return idKey(prefixKittyOwner, id)
}

func parentsKey(id core.KittyID) []byte {
	return idKey(prefixKittyParents, id)
}

func nextKittyIDKey() []byte {
	return []byte(keyNextKittyID)
}

// idKey appends the id big-endian, so keys iterate in id order.
func idKey(prefix string, id core.KittyID) []byte {
	key := make([]byte, 0, len(prefix)+kittyIDWidth)
	key = append(key, prefix...)

	return binary.BigEndian.AppendUint32(key, uint32(id))
}

func encodeKittyID(id core.KittyID) []byte {
	return binary.LittleEndian.AppendUint32(nil, uint32(id))
}

func decodeKittyID(key []byte, value []byte) (core.KittyID, error) {
	if len(value) != kittyIDWidth {
		return 0, corrupt(key, value)
	}

	return core.KittyID(binary.LittleEndian.Uint32(value)), nil
}

func encodeAccountID(account core.AccountID) []byte {
	return binary.LittleEndian.AppendUint64(nil, uint64(account))
}

func decodeAccountID(key []byte, value []byte) (core.AccountID, error) {
	if len(value) != accountIDWidth {
		return 0, corrupt(key, value)
	}

	return core.AccountID(binary.LittleEndian.Uint64(value)), nil
}

func encodeKitty(kitty core.Kitty) []byte {
	return append([]byte(nil), kitty.DNA[:]...)
}

func decodeKitty(key []byte, value []byte) (core.Kitty, error) {
	if len(value) != core.GenomeLength {
		return core.Kitty{}, corrupt(key, value)
	}

	var kitty core.Kitty
	copy(kitty.DNA[:], value)

	return kitty, nil
}

func encodeParents(parents core.Parents) []byte {
	value := make([]byte, 0, parentsWidth)
	value = binary.LittleEndian.AppendUint32(value, uint32(parents.A))

	return binary.LittleEndian.AppendUint32(value, uint32(parents.B))
}

func decodeParents(key []byte, value []byte) (core.Parents, error) {
	if len(value) != parentsWidth {
		return core.Parents{}, corrupt(key, value)
	}

	return core.Parents{
		A: core.KittyID(binary.LittleEndian.Uint32(value[:kittyIDWidth])),
		B: core.KittyID(binary.LittleEndian.Uint32(value[kittyIDWidth:])),
	}, nil
}

func corrupt(key []byte, value []byte) error {
	return errors.Join(ErrCorruptValue, fmt.Errorf("key %q holds %d bytes", key, len(value)))
}
