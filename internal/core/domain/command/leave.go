package command

import (
	"context"
	"mediabot/internal/core/port"
)

// Leave clears the media queue and disconnects the bot from the
// conversation's audio channel.
type Leave struct {
	data *leaveData
}

type leaveData struct{}

func newLeave() port.Command {
	return &Leave{data: &leaveData{}}
}

func (c *Leave) Data() any {
	return c.data
}

func (c *Leave) Process(ctx context.Context, _ string, cc *port.Context,
	_ port.Integrations) (bool, error) {
	if err := cc.LeaveAudio(ctx); err != nil {
		return false, err
	}

	return false, cc.SendResponse(ctx, "The bot has left its voice channel.")
}
