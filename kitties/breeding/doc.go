// Package breeding implements the deterministic genome combination used when two kitties are bred,
// and the entropy sources feeding it.
//
// Combine is pure: identical parents and identical entropy always yield the identical child genome,
// which every node executing the ledger relies on.
package breeding
