package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/fluxo/internal/presentation/tui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer(t *testing.T) {
	render := tui.NewRenderer(40)
	out, err := render("**Hello** there")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "there")
}

func TestPlain(t *testing.T) {
	out, err := tui.Plain("**bold**")
	require.NoError(t, err)
	assert.Equal(t, "**bold**", out)
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_| |_|")
}
