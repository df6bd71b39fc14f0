package command

import (
	"context"
	"fmt"
	"mediabot/internal/core/domain"
	"mediabot/internal/core/port"
	"mediabot/internal/integration/youtube"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const ytPageSize = 10

type ytState string

const (
	ytStateSearch        ytState = "search"
	ytStateSearchResults ytState = "search_results"
	ytStateSelection     ytState = "selection"
	ytStateNoResults     ytState = "no_results"
	ytStateCancelled     ytState = "cancelled"
)

// videoSource is the slice of the youtube integration the yt command
// uses.
type videoSource interface {
	SearchVideos(ctx context.Context, query string) ([]youtube.Video, error)
	Resolve(ctx context.Context, result port.Result) (domain.Media, error)
}

// YT searches youtube and lets the user browse the results page by page
// until one is queued or the search is cancelled.
type YT struct {
	data *ytData
}

type ytData struct {
	State     ytState         `json:"state" state:"persist"`
	Query     string          `json:"query" state:"persist"`
	Results   []youtube.Video `json:"results" state:"persist"`
	Page      int             `json:"page" state:"persist"`
	Selection int             `json:"selection" state:"persist"`

	err string
}

func newYT() port.Command {
	return &YT{data: &ytData{State: ytStateSearch, Page: 1}}
}

func (c *YT) Data() any {
	return c.data
}

func (c *YT) Process(ctx context.Context, message string, cc *port.Context,
	deps port.Integrations) (bool, error) {
	source, ok := deps[youtube.Name].(videoSource)
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrNotRegistered, youtube.Name)
	}

	switch c.data.State {
	case ytStateSearch:
		_, query := domain.SplitCommand(message)
		log.Debug().Str("query", query).Msg("processing yt search")

		c.data.Query = query
		if err := cc.SendResponse(ctx, c.data.render()); err != nil {
			return false, err
		}

		results, err := source.SearchVideos(ctx, query)
		if err != nil {
			return false, err
		}

		c.data.setResults(results)

	case ytStateSearchResults:
		sub, rest := domain.SplitCommand(message)

		switch strings.ToLower(sub) {
		case "next":
			c.data.setPage(c.data.Page + 1)
		case "prev":
			c.data.setPage(c.data.Page - 1)
		case "cancel":
			c.data.State = ytStateCancelled
		case "play":
			if err := c.play(ctx, rest, cc, source); err != nil {
				return false, err
			}
		default:
			c.data.err = fmt.Sprintf("Unknown subcommand: %s", sub)
		}
	}

	if err := cc.SendResponse(ctx, c.data.render()); err != nil {
		return false, err
	}

	return c.data.continues(), nil
}

func (c *YT) play(ctx context.Context, arg string, cc *port.Context, source videoSource) error {
	index, _ := domain.SplitCommand(arg)

	selection, err := strconv.Atoi(index)
	if err != nil || !c.data.selectVideo(selection) {
		c.data.err = fmt.Sprintf("Invalid selection: %s", index)
		return nil
	}

	player, err := cc.JoinAudio(ctx)
	if err != nil {
		return err
	}

	media, err := source.Resolve(ctx, c.data.selected())
	if err != nil {
		return err
	}

	return player.Enqueue(ctx, media)
}

func (d *ytData) setResults(results []youtube.Video) {
	d.Results = results
	d.State = ytStateSearchResults

	if len(d.Results) == 0 {
		d.State = ytStateNoResults
	}
}

func (d *ytData) setPage(page int) {
	d.Page = clampPage(page, len(d.Results), ytPageSize)
}

// selectVideo records a 1-based selection within the current page.
// Returns false when the index is out of range.
func (d *ytData) selectVideo(index int) bool {
	if index < 1 || index > len(d.page()) {
		return false
	}

	d.Selection = index
	d.State = ytStateSelection

	return true
}

func (d *ytData) selected() youtube.Video {
	return d.page()[d.Selection-1]
}

func (d *ytData) page() []youtube.Video {
	start, end := pageBounds(len(d.Results), d.Page, ytPageSize)
	return d.Results[start:end]
}

func (d *ytData) continues() bool {
	switch d.State {
	case ytStateSelection, ytStateNoResults, ytStateCancelled:
		return false
	}

	return true
}

func (d *ytData) render() string {
	if d.err != "" {
		return fmt.Sprintf("{cb}%s{cb}", d.err)
	}

	switch d.State {
	case ytStateSearch:
		return fmt.Sprintf("Searching for {i}%s{i}...", d.Query)
	case ytStateSearchResults:
		return d.renderResults()
	case ytStateSelection:
		return fmt.Sprintf("Added {b}%s{b} to the media queue.", d.selected().Title)
	case ytStateNoResults:
		return fmt.Sprintf("No results found for {b}%s{b}.", d.Query)
	case ytStateCancelled:
		return "Cancelled search."
	}

	return ""
}

func (d *ytData) renderResults() string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Showing results for {i}%s{i} (%d of %d)\n",
		d.Query, d.Page, totalPages(len(d.Results), ytPageSize))

	for n, video := range d.page() {
		fmt.Fprintf(sb, "{b}%d.{b} %s\n", n+1, video.Title)
	}

	sb.WriteString("\n{c}{cp}next{c} for next page\n")
	sb.WriteString("{c}{cp}prev{c} for previous page\n")
	sb.WriteString("{c}{cp}play <number>{c} to select a video\n")
	sb.WriteString("{c}{cp}cancel{c} to cancel")

	return sb.String()
}
