package runtime

import (
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

// Call is one of CreateCall, BreedCall or TransferCall.
type Call interface {
	isCall()
}

// CreateCall creates a kitty for the signer.
type CreateCall struct{}

// BreedCall breeds a kitty for the signer from two parents.
type BreedCall struct {
	ParentA core.KittyID
	ParentB core.KittyID
}

// TransferCall transfers a kitty of the signer to a recipient.
type TransferCall struct {
	Recipient core.AccountID
	KittyID   core.KittyID
}

func (CreateCall) isCall()   {}
func (BreedCall) isCall()    {}
func (TransferCall) isCall() {}
