package command

import (
	"mediabot/internal/core/domain"
	"mediabot/internal/core/port"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkipDefaultsToCurrentItem(t *testing.T) {
	transport := &fakeTransport{}
	controller := &fakeController{popMedia: domain.Media{Title: "Current Song"}}

	keep, err := newSkip().Process(t.Context(), "skip",
		newTestContext(transport, controller), port.Integrations{})
	require.NoError(t, err)
	assert.False(t, keep)

	assert.Equal(t, 0, controller.popIndex)
	require.Len(t, transport.responses, 1)
	assert.Equal(t, "Removed {b}1.  Current Song{b} from the queue.", transport.responses[0])
}

func TestSkipPopsGivenPosition(t *testing.T) {
	transport := &fakeTransport{}
	controller := &fakeController{popMedia: domain.Media{Title: "Third Song"}}

	keep, err := newSkip().Process(t.Context(), "skip 3",
		newTestContext(transport, controller), port.Integrations{})
	require.NoError(t, err)
	assert.False(t, keep)

	assert.Equal(t, 2, controller.popIndex)
	require.Len(t, transport.responses, 1)
	assert.Equal(t, "Removed {b}3.  Third Song{b} from the queue.", transport.responses[0])
}

func TestSkipRejectsNonNumericPosition(t *testing.T) {
	_, err := newSkip().Process(t.Context(), "skip first",
		newTestContext(&fakeTransport{}, &fakeController{}), port.Integrations{})

	var userErr *domain.UserError
	require.ErrorAs(t, err, &userErr)
}

func TestSkipPopErrorPropagates(t *testing.T) {
	controller := &fakeController{popErr: domain.Userf("nothing in the queue at position 4")}

	_, err := newSkip().Process(t.Context(), "skip 4",
		newTestContext(&fakeTransport{}, controller), port.Integrations{})

	var userErr *domain.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "nothing in the queue at position 4", userErr.Message)
}
