package command

import (
	"mediabot/internal/core/port"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpListsCommands(t *testing.T) {
	transport := &fakeTransport{}
	cc := newTestContext(transport, nil)
	cc.Commands = []port.CommandInfo{
		{Name: "help", Help: "print help text"},
		{Name: "play", Help: "play media from the provided url"},
	}

	keep, err := newHelp().Process(t.Context(), "help", cc, port.Integrations{})
	require.NoError(t, err)
	assert.False(t, keep)

	require.Len(t, transport.responses, 1)
	assert.Equal(t,
		"{c}{cp}help{c} print help text\n{c}{cp}play{c} play media from the provided url\n",
		transport.responses[0])
}
