package command

import (
	"context"
	"fmt"
	"mediabot/internal/core/domain"
	"mediabot/internal/core/port"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Skip removes an item from the media queue, by 1-based position.
// Without an argument it removes the currently playing item.
type Skip struct {
	data *skipData
}

type skipData struct {
	Index int          `json:"index" state:"persist"`
	Media domain.Media `json:"media" state:"persist"`
}

func newSkip() port.Command {
	return &Skip{data: &skipData{}}
}

func (c *Skip) Data() any {
	return c.data
}

func (c *Skip) Process(ctx context.Context, message string, cc *port.Context,
	_ port.Integrations) (bool, error) {
	_, arg := domain.SplitCommand(message)
	if arg == "" {
		arg = "1"
	}

	log.Debug().Str("index", arg).Msg("processing skip")

	index, err := strconv.Atoi(arg)
	if err != nil {
		return false, domain.Userf("invalid queue position: %s", arg)
	}

	player, err := cc.JoinAudio(ctx)
	if err != nil {
		return false, err
	}

	media, err := player.Pop(ctx, index-1)
	if err != nil {
		return false, err
	}

	c.data.Index = index
	c.data.Media = media

	return false, cc.SendResponse(ctx,
		fmt.Sprintf("Removed {b}%d.  %s{b} from the queue.", index, media.Title))
}
