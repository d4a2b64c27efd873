// Package runtime is the host of the kitties ledger.
//
// It dispatches calls to the command handlers one at a time, keeps the append-only system
// event log of all successful calls and publishes every emitted event to the configured
// event sink. State changes of a call are committed atomically by the command handlers;
// a failed call leaves neither state changes nor events behind.
//
// Publishing to the sink happens after the commit. A publish failure is logged and counted,
// but it does not undo the call: the system event log is authoritative.
package runtime
