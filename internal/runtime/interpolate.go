package runtime

import (
	"context"
	"regexp"
	"strings"
)

// Interpolator renders placeholders in outbound text.
type Interpolator func(ctx context.Context, text string, vars map[string]any) (string, error)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

// DefaultInterpolator replaces {{name}} with the variable value.
// Unknown placeholders are left as written.
func DefaultInterpolator(_ context.Context, text string, vars map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		v, ok := vars[name]
		if !ok {
			return m
		}
		return toString(v)
	}), nil
}
