package middleware

import "github.com/aretw0/fluxo/pkg/ports"

// Middleware allows wrapping a ConversationLog to add behavior.
type Middleware func(ports.ConversationLog) ports.ConversationLog

// Chain applies middlewares so that the first one sees each record first.
func Chain(next ports.ConversationLog, mws ...Middleware) ports.ConversationLog {
	for i := len(mws) - 1; i >= 0; i-- {
		next = mws[i](next)
	}
	return next
}
