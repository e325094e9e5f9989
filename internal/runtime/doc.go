/*
Package runtime implements the fluxo flow state machine.

The Engine starts flows, routes contact replies, dispatches blocks until the
flow waits for a reply or terminates, and commits the ownership handoff to
the AI bot or a human agent. Every execution change goes through the
ports.ExecutionRepository conditional updates, so a stale dispatch fails with
a conflict instead of overwriting newer state.
*/
package runtime
