// Package core contains the domain types, errors and events of the kitties ledger:
// uniquely owned, breedable collectibles whose identity content is a fixed-length genome.
//
// Everything in this package is pure. State access lives in package store, the
// breeding rule in package breeding, and the use cases in the features packages.
//
// All domain events implement the sealed DomainEvent interface, which makes the set
// {KittyCreated, KittyBred, KittyTransferred} a closed tagged variant.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'domain' layer.
package core
