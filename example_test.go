package fluxo_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/fluxo"
	"github.com/aretw0/fluxo/pkg/adapters/memory"
	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/aretw0/fluxo/pkg/dsl"
)

// ExampleNew demonstrates a flow running entirely in memory.
func ExampleNew() {
	b := dsl.New("welcome")
	b.Start("start").Go("ask")
	b.Buttons("ask", "Want a demo?",
		domain.Button{ID: "yes", Title: "Yes please"},
		domain.Button{ID: "no", Title: "No thanks"},
	).On("yes", "booked").On("no", "bye")
	b.End("booked", "Great, an agent will reach out.")
	b.End("bye", "Ok, bye.")

	flows, err := memory.NewFlowRepository(b.MustBuild())
	if err != nil {
		log.Fatal(err)
	}
	gateway := memory.NewGateway()

	engine, err := fluxo.New(fluxo.Dependencies{
		Flows:      flows,
		Executions: memory.NewExecutionRepository(),
		Contacts:   memory.NewContactStore(),
		Gateway:    gateway,
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if _, err := engine.StartFlow(ctx, "welcome", "acme", "contact-1"); err != nil {
		log.Fatal(err)
	}
	res, err := engine.ContinueFlow(ctx, "acme", "contact-1", fluxo.Reply{InteractiveID: "yes"})
	if err != nil {
		log.Fatal(err)
	}

	for _, m := range gateway.Sent() {
		fmt.Printf("%s: %s\n", m.Kind, m.Text)
	}
	fmt.Println("status:", res.Execution.Status)

	// Output:
	// buttons: Want a demo?
	// text: Great, an agent will reach out.
	// status: completed
}
