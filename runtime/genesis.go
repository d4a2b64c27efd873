package runtime

import (
	"context"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/store"
	"github.com/AntonStoeckl/kitties-ledger-go/state"
)

// GenesisKitty is a kitty that exists from the start.
type GenesisKitty struct {
	Owner core.AccountID
	DNA   core.Genome
}

// Genesis is the initial ledger state. It is applied only to a ledger that has never issued an id.
// Genesis kitties get ids 0..n-1 in order, have no lineage and emit no events.
type Genesis struct {
	Kitties []GenesisKitty
}

func (r *Runtime) applyGenesis(ctx context.Context) error {
	if r.genesis == nil || len(r.genesis.Kitties) == 0 {
		return nil
	}

	overlay, err := state.Open(ctx, r.backend)
	if err != nil {
		return err
	}
	defer overlay.Discard()

	allocator := store.NewAllocator(overlay)
	kitties := store.NewKittyStore(overlay)

	next, err := allocator.Next(ctx)
	if err != nil {
		return err
	}

	if next != 0 {
		r.log(ctx, logMsgGenesisSkipped, logAttrNextKittyID, next)
		return nil
	}

	for _, genesisKitty := range r.genesis.Kitties {
		id, allocErr := allocator.Allocate(ctx)
		if allocErr != nil {
			return allocErr
		}

		if err = kitties.Put(ctx, id, core.Kitty{DNA: genesisKitty.DNA}); err != nil {
			return err
		}

		if err = kitties.SetOwner(ctx, id, genesisKitty.Owner); err != nil {
			return err
		}
	}

	if err = overlay.Commit(ctx); err != nil {
		return err
	}

	r.log(ctx, logMsgGenesisApplied, logAttrKittyCount, len(r.genesis.Kitties))

	return nil
}
