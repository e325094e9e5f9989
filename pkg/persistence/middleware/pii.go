package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/fluxo/pkg/ports"
)

// Mask replaces every sensitive match in a logged message.
const Mask = "***"

// Common patterns for personal data typed into a chat.
var (
	PatternEmail = `[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`
	PatternCPF   = `\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`
	PatternCard  = `\b(?:\d[ -]?){13,16}\b`
)

type piiMiddleware struct {
	next     ports.ConversationLog
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks text matching the patterns
// before the record reaches the underlying log.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.ConversationLog) ports.ConversationLog {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Append(ctx context.Context, rec ports.MessageRecord) error {
	// rec is a copy, so the caller's record is never modified.
	rec.Text = m.mask(rec.Text)
	return m.next.Append(ctx, rec)
}

func (m *piiMiddleware) mask(text string) string {
	for _, p := range m.patterns {
		text = p.ReplaceAllString(text, Mask)
	}
	return text
}
