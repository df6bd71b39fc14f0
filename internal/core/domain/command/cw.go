package command

import (
	"context"
	"fmt"
	"mediabot/internal/core/domain"
	"mediabot/internal/core/port"
	"mediabot/internal/integration/downforacross"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const cwPageSize = 10

type cwState string

const (
	cwStateSearch        cwState = "search"
	cwStateSearchResults cwState = "search_results"
	cwStateFetchGameURL  cwState = "fetch_game_url"
	cwStateSelection     cwState = "selection"
	cwStateNoResults     cwState = "no_results"
	cwStateCancelled     cwState = "cancelled"
)

// puzzleSource is the slice of the downforacross integration the cw
// command uses.
type puzzleSource interface {
	SearchPuzzles(ctx context.Context, query string) ([]downforacross.Puzzle, error)
	Play(ctx context.Context, puzzle downforacross.Puzzle) (string, error)
}

// CW searches downforacross crosswords and opens a shared game session
// for the selected puzzle.
type CW struct {
	data *cwData
}

type cwData struct {
	State     cwState                `json:"state" state:"persist"`
	Query     string                 `json:"query" state:"persist"`
	Results   []downforacross.Puzzle `json:"results" state:"persist"`
	Page      int                    `json:"page" state:"persist"`
	Selection int                    `json:"selection" state:"persist"`
	GameURL   string                 `json:"game_url" state:"persist"`

	err string
}

func newCW() port.Command {
	return &CW{data: &cwData{State: cwStateSearch, Page: 1}}
}

func (c *CW) Data() any {
	return c.data
}

func (c *CW) Process(ctx context.Context, message string, cc *port.Context,
	deps port.Integrations) (bool, error) {
	source, ok := deps[downforacross.Name].(puzzleSource)
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrNotRegistered, downforacross.Name)
	}

	switch c.data.State {
	case cwStateSearch:
		_, query := domain.SplitCommand(message)
		log.Debug().Str("query", query).Msg("processing cw search")

		c.data.Query = query
		if err := cc.SendResponse(ctx, c.data.render()); err != nil {
			return false, err
		}

		results, err := source.SearchPuzzles(ctx, query)
		if err != nil {
			return false, err
		}

		c.data.setResults(results)

	case cwStateSearchResults:
		sub, rest := domain.SplitCommand(message)

		switch strings.ToLower(sub) {
		case "next":
			c.data.setPage(c.data.Page + 1)
		case "prev":
			c.data.setPage(c.data.Page - 1)
		case "cancel":
			c.data.State = cwStateCancelled
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

func (c *CW) play(ctx context.Context, arg string, cc *port.Context, source puzzleSource) error {
	index, _ := domain.SplitCommand(arg)

	selection, err := strconv.Atoi(index)
	if err != nil || !c.data.selectPuzzle(selection) {
		c.data.err = fmt.Sprintf("Invalid selection: %s", index)
		return nil
	}

	if err := cc.SendResponse(ctx, c.data.render()); err != nil {
		return err
	}

	gameURL, err := source.Play(ctx, c.data.selected())
	if err != nil {
		return err
	}

	c.data.GameURL = gameURL
	c.data.State = cwStateSelection

	return nil
}

func (d *cwData) setResults(results []downforacross.Puzzle) {
	d.Results = results
	d.State = cwStateSearchResults

	if len(d.Results) == 0 {
		d.State = cwStateNoResults
	}
}

func (d *cwData) setPage(page int) {
	d.Page = clampPage(page, len(d.Results), cwPageSize)
}

func (d *cwData) selectPuzzle(index int) bool {
	if index < 1 || index > len(d.page()) {
		return false
	}

	d.Selection = index
	d.State = cwStateFetchGameURL

	return true
}

func (d *cwData) selected() downforacross.Puzzle {
	return d.page()[d.Selection-1]
}

func (d *cwData) page() []downforacross.Puzzle {
	start, end := pageBounds(len(d.Results), d.Page, cwPageSize)
	return d.Results[start:end]
}

func (d *cwData) continues() bool {
	switch d.State {
	case cwStateSelection, cwStateNoResults, cwStateCancelled:
		return false
	}

	return true
}

func (d *cwData) render() string {
	if d.err != "" {
		return fmt.Sprintf("{cb}%s{cb}", d.err)
	}

	switch d.State {
	case cwStateSearch:
		return fmt.Sprintf("Searching for {i}%s{i}...", d.Query)
	case cwStateSearchResults:
		return d.renderResults()
	case cwStateFetchGameURL:
		return fmt.Sprintf("Obtaining game URL ({b}%s{b} by %s)",
			d.selected().Title, d.selected().Author)
	case cwStateSelection:
		return fmt.Sprintf("%s ({b}%s{b} by %s)",
			d.GameURL, d.selected().Title, d.selected().Author)
	case cwStateNoResults:
		return fmt.Sprintf("No results found for {b}%s{b}.", d.Query)
	case cwStateCancelled:
		return "Cancelled search."
	}

	return ""
}

func (d *cwData) renderResults() string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Showing results for {i}%s{i} (%d of %d)\n",
		d.Query, d.Page, totalPages(len(d.Results), cwPageSize))

	for n, puzzle := range d.page() {
		fmt.Fprintf(sb, "{b}%d.{b} %s by %s\n", n+1, puzzle.Title, puzzle.Author)
	}

	sb.WriteString("\n{c}{cp}next{c} for next page\n")
	sb.WriteString("{c}{cp}prev{c} for previous page\n")
	sb.WriteString("{c}{cp}play <number>{c} to select a puzzle\n")
	sb.WriteString("{c}{cp}cancel{c} to cancel")

	return sb.String()
}
