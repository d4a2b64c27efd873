// Package testutil contains test doubles and helpers shared by the tests of this module:
// spies for the logging, metrics and tracing hooks, a fixed entropy source, and the gate for
// tests that need a PostgreSQL database.
package testutil
