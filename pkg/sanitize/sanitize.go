// Package sanitize cleans inbound contact text before it reaches the engine.
package sanitize

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize is 4KB, well above any chat message.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize is the environment variable to override the default
	EnvMaxInputSize = "FLUXO_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Input cleans user input by enforcing the size limit, validating UTF-8 and
// stripping control characters other than newline, tab and carriage return.
func Input(input string) (string, error) {
	return InputWithLimit(input, MaxInputSize())
}

// InputWithLimit is Input with an explicit byte limit.
func InputWithLimit(input string, limit int) (string, error) {
	if len(input) > limit {
		// Rejected rather than truncated so replies are never half-routed.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// ID validates an identifier such as a contact address or an interactive
// response id: it must be short, printable and free of whitespace.
func ID(id string, limit int) (string, error) {
	id = strings.TrimSpace(id)
	if len(id) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(id), limit)
	}
	if !utf8.ValidString(id) {
		return "", ErrInvalidUTF8
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return "", fmt.Errorf("identifier contains invalid character %q", r)
		}
	}
	return id, nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

// MaxInputSize returns the configured limit, honoring EnvMaxInputSize.
func MaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
