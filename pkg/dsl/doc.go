/*
Package dsl provides a Go DSL for programmatically constructing fluxo flows.

It allows developers to define flows with a type-safe, fluent builder instead
of JSON or YAML documents. This is useful for tests, embedding and generated
flows.

Example usage:

	b := dsl.New("welcome")

	b.Start("start").Go("greet")
	b.Message("greet", "Hi {{name}}!").Go("menu")
	b.Buttons("menu", "Can I help?",
		domain.Button{ID: "yes", Title: "Yes"},
		domain.Button{ID: "no", Title: "No"},
	).On("yes", "human").On("no", "bye")
	b.HumanHandoff("human", domain.HumanHandoffData{NotifyAgent: true})
	b.End("bye", "See you!")

	flow, err := b.Build()
*/
package dsl
