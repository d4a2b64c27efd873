package core

import "strconv"

type originKind uint8

const (
	originNone originKind = iota
	originRoot
	originSigned
)

// Origin is the authenticated calling context resolved by the host before a call is dispatched.
// The zero value is the unsigned (none) origin.
type Origin struct {
	kind    originKind
	account AccountID
}

// Signed returns the origin of a call signed by account.
func Signed(account AccountID) Origin {
	return Origin{kind: originSigned, account: account}
}

// Root returns the privileged root origin.
func Root() Origin {
	return Origin{kind: originRoot}
}

// None returns the unsigned origin.
func None() Origin {
	return Origin{kind: originNone}
}

// EnsureSigned returns the signing account, or ErrBadOrigin for root and unsigned origins.
func (o Origin) EnsureSigned() (AccountID, error) {
	if o.kind != originSigned {
		return 0, ErrBadOrigin
	}

	return o.account, nil
}

// String is used in logs.
func (o Origin) String() string {
	switch o.kind {
	case originSigned:
		return "signed(" + strconv.FormatUint(uint64(o.account), 10) + ")"
	case originRoot:
		return "root"
	default:
		return "none"
	}
}
