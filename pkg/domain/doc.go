/*
Package domain contains the core domain models of the fluxo engine.

It defines the flow graph (blocks, edges, conditions), the per-contact
execution record with its append-only history, the contact ownership status
and the error taxonomy shared by every adapter. The package performs no I/O.

# Key Entities

  - FlowDefinition: an authored graph of Blocks connected by Edges.
  - Block: a node of the graph; its Data is a typed variant per BlockKind.
  - FlowExecution: the mutable state of a flow running for one contact.
  - FlowStep: one entry of the execution history.
  - ContactStatus: who owns the conversation (flow, bot or human).
*/
package domain
