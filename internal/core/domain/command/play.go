package command

import (
	"context"
	"fmt"
	"mediabot/internal/core/domain"
	"mediabot/internal/core/port"
	"mediabot/internal/integration/youtube"
	"net/url"

	"github.com/rs/zerolog/log"
)

// mediaSource is the slice of the youtube integration the play command
// uses.
type mediaSource interface {
	IsVideoURL(rawURL string) bool
	GetFromURL(ctx context.Context, rawURL string) (youtube.Video, error)
	Resolve(ctx context.Context, result port.Result) (domain.Media, error)
}

// Play enqueues media from a URL. Youtube links are resolved to their
// audio stream, anything else is enqueued as-is.
type Play struct {
	data *playData
}

type playData struct {
	Media domain.Media `json:"media" state:"persist"`
}

func newPlay() port.Command {
	return &Play{data: &playData{}}
}

func (c *Play) Data() any {
	return c.data
}

func (c *Play) Process(ctx context.Context, message string, cc *port.Context,
	deps port.Integrations) (bool, error) {
	source, ok := deps[youtube.Name].(mediaSource)
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrNotRegistered, youtube.Name)
	}

	_, rawURL := domain.SplitCommand(message)
	log.Debug().Str("url", rawURL).Msg("processing play")

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Hostname() == "" || parsed.Path == "" {
		return false, domain.Userf("invalid url: %s", rawURL)
	}

	media := domain.Media{URL: rawURL, Title: rawURL}

	if source.IsVideoURL(rawURL) {
		video, err := source.GetFromURL(ctx, rawURL)
		if err != nil {
			return false, err
		}

		media, err = source.Resolve(ctx, video)
		if err != nil {
			return false, err
		}
	}

	c.data.Media = media

	player, err := cc.JoinAudio(ctx)
	if err != nil {
		return false, err
	}

	if err := player.Enqueue(ctx, media); err != nil {
		return false, err
	}

	return false, cc.SendResponse(ctx,
		fmt.Sprintf("Added {b}%s{b} to the media queue.", media.Title))
}
