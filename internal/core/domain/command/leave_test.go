package command

import (
	"mediabot/internal/core/port"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaveDisconnects(t *testing.T) {
	transport := &fakeTransport{}
	controller := &fakeController{}

	keep, err := newLeave().Process(t.Context(), "leave",
		newTestContext(transport, controller), port.Integrations{})
	require.NoError(t, err)
	assert.False(t, keep)

	assert.Equal(t, 1, controller.leaveCalls)
	assert.Zero(t, controller.joinCalls)
	require.Len(t, transport.responses, 1)
	assert.Equal(t, "The bot has left its voice channel.", transport.responses[0])
}
