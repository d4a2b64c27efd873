package breeding

import (
	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

// Selector decides per bit which parent contributes: a set bit takes parent a, a cleared bit parent b.
type Selector = [core.GenomeLength]byte

// Combine derives the child genome from both parents and the selector.
func Combine(a core.Genome, b core.Genome, selector Selector) core.Genome {
	var child core.Genome

	for i := range child {
		child[i] = (a[i] & selector[i]) | (b[i] &^ selector[i])
	}

	return child
}
