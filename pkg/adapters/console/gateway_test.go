package console_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/aretw0/fluxo/pkg/adapters/console"
	"github.com/aretw0/fluxo/pkg/ports"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway() (*console.Gateway, *bytes.Buffer) {
	var buf bytes.Buffer
	return console.NewGateway(&buf, console.WithProfile(termenv.Ascii)), &buf
}

func TestGateway_SendText(t *testing.T) {
	gw, buf := newGateway()

	id, err := gw.SendText(context.Background(), "acme", "me", "Hello!")
	require.NoError(t, err)
	assert.Equal(t, "console-1", id)
	assert.Equal(t, "bot › Hello!\n", buf.String())
	assert.Empty(t, gw.Choices())
}

func TestGateway_ButtonsAndResolve(t *testing.T) {
	gw, buf := newGateway()

	_, err := gw.SendButtons(context.Background(), "acme", "me", "Need help?", []ports.ButtonOption{
		{ID: "yes", Title: "Yes"},
		{ID: "no", Title: "No"},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[1] Yes\n")
	assert.Contains(t, buf.String(), "[2] No\n")

	text, id := gw.Resolve(" 2 ")
	assert.Equal(t, "No", text)
	assert.Equal(t, "no", id)

	text, id = gw.Resolve("maybe")
	assert.Equal(t, "maybe", text)
	assert.Empty(t, id)

	text, id = gw.Resolve("9")
	assert.Equal(t, "9", text)
	assert.Empty(t, id)
}

func TestGateway_ListNumbersAcrossSections(t *testing.T) {
	gw, buf := newGateway()

	_, err := gw.SendList(context.Background(), "acme", "me", "Topics", "Choose", []ports.ListSectionOption{
		{Title: "Money", Rows: []ports.ListRowOption{{ID: "billing", Title: "Billing", Description: "Invoices"}}},
		{Title: "Tech", Rows: []ports.ListRowOption{{ID: "tech", Title: "Technical"}}},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Choose")
	assert.Contains(t, buf.String(), "[1] Billing - Invoices")
	assert.Contains(t, buf.String(), "[2] Technical")

	_, id := gw.Resolve("2")
	assert.Equal(t, "tech", id)

	// A plain text message clears the options.
	_, err = gw.SendText(context.Background(), "acme", "me", "ok")
	require.NoError(t, err)
	_, id = gw.Resolve("1")
	assert.Empty(t, id)
}
