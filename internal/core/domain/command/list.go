package command

import (
	"context"
	"fmt"
	"mediabot/internal/core/domain"
	"mediabot/internal/core/port"
	"strings"
)

// List shows the media queue of the conversation's audio channel.
type List struct {
	data *listData
}

type listData struct {
	Queue []domain.Media `json:"queue" state:"persist"`
}

func newList() port.Command {
	return &List{data: &listData{}}
}

func (c *List) Data() any {
	return c.data
}

func (c *List) Process(ctx context.Context, _ string, cc *port.Context,
	_ port.Integrations) (bool, error) {
	player, err := cc.JoinAudio(ctx)
	if err != nil {
		return false, err
	}

	c.data.Queue = player.Queue()

	if len(c.data.Queue) == 0 {
		return false, cc.SendResponse(ctx, "Queue is empty.")
	}

	sb := &strings.Builder{}
	for n, media := range c.data.Queue {
		fmt.Fprintf(sb, "%d.  {c}%s{c}\n", n+1, media.Title)
	}

	return false, cc.SendResponse(ctx, sb.String())
}
