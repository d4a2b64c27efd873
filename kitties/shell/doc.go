// Package shell provides the imperative shell around the kitties core: conversion between
// domain events and storable events, event metadata, the retry loop for optimistic
// concurrency conflicts and the shared observability helpers of the command handlers.
//
// Payloads use string encoded ids and hex encoded genomes, so that event store filters
// can select events with plain JSON containment predicates like P("KittyID", "3").
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'infrastructure' layer.
package shell
