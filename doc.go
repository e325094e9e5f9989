/*
Package fluxo runs conversational flows for messaging contacts.

A flow is an authored graph of blocks (messages, interactive buttons and
lists, conditions, variable actions, delays, webhooks and handoffs to AI or to
a human agent). For every (tenant, contact) pair the engine keeps at most one
active execution, sends the messages the flow produces through a
MessagingGateway and routes the contact's replies along the graph.

# Architecture

The engine is hexagonal. Storage, messaging and the external collaborators
are ports (package ports) with adapters for memory, Redis, loam directories,
HTTP relays and the console. The Engine in this package adds per-contact
serialization on top of the runtime so that concurrent webhooks for the same
contact never interleave.

# Usage

	flows, _ := memory.NewFlowRepository(flow)
	eng, err := fluxo.New(fluxo.Dependencies{
		Flows:      flows,
		Executions: memory.NewExecutionRepository(),
		Contacts:   memory.NewContactStore(),
		Gateway:    gateway,
	})
	if err != nil {
		log.Fatal(err)
	}

	res, err := eng.StartFlow(ctx, "welcome", "acme", "5511999990000")
	// ... later, when the contact answers:
	res, err = eng.ContinueFlow(ctx, "acme", "5511999990000", fluxo.Reply{InteractiveID: "sales"})

Non-fatal failures (a webhook that timed out, a reply that matched no route)
are returned in Result.Warnings; the execution is left consistent.
*/
package fluxo
