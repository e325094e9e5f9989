/*
Package ports defines the driven ports (interfaces) of the fluxo engine.

These interfaces decouple the execution core from storage, messaging and the
other systems a conversation touches, so that the engine can run against
Redis in production and against in-memory fakes in tests.

# Key Interfaces

  - FlowRepository: read-only access to authored flow definitions.
  - ExecutionRepository: execution records and their atomic transitions.
  - ContactStatusStore: the per-contact ownership status (upsert).
  - MessagingGateway / ConversationLog: outbound sends and the message audit log.
  - AITrigger / AgentNotifier: handoff collaborators.
  - WebhookCaller: outbound HTTP for webhook blocks.
  - DelayScheduler: deferred resumption of delay blocks.
  - DistributedLocker: cross-replica serialization of a contact's dispatch.
*/
package ports
