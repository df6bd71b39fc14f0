// Package downforacross searches downforacross.com puzzles and opens
// shared game sessions for them.
package downforacross

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mediabot/internal/core/domain"
	"mediabot/internal/core/port"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// Name is the registry key for this integration.
const Name = "downforacross"

const (
	defaultBaseURL     = "https://api.foracross.com/api"
	defaultFrontendURL = "https://downforacross.com/beta"

	gameURLTimeout  = 10 * time.Second
	gameURLInterval = 100 * time.Millisecond
)

// Puzzle is a single crossword from the puzzle list.
type Puzzle struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

func (p Puzzle) Label() string {
	if p.Author == "" {
		return p.Title
	}

	return p.Title + " by " + p.Author
}

// Integration wraps the foracross puzzle API and the game frontend.
type Integration struct {
	baseURL     string
	frontendURL string
	httpClient  *http.Client
}

// New builds the integration. It takes no required options.
func New(_ map[string]string) (*Integration, error) {
	return &Integration{
		baseURL:     defaultBaseURL,
		frontendURL: defaultFrontendURL,
		httpClient:  &http.Client{},
	}, nil
}

type puzzleListResponse struct {
	Puzzles []struct {
		PID     json.Number `json:"pid"`
		Content struct {
			Info struct {
				Title  string `json:"title"`
				Author string `json:"author"`
			} `json:"info"`
		} `json:"content"`
	} `json:"puzzles"`
}

// SearchPuzzles queries the puzzle_list API for mini and standard
// puzzles matching the name.
func (i *Integration) SearchPuzzles(ctx context.Context, query string) ([]Puzzle, error) {
	log.Debug().Str("query", query).Msg("downforacross search")

	params := url.Values{}
	params.Set("page", "0")
	params.Set("pageSize", "50")
	params.Set("filter[nameOrTitleFilter]", query)
	params.Set("filter[sizeFilter][Mini]", "true")
	params.Set("filter[sizeFilter][Standard]", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		i.baseURL+"/puzzle_list?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating puzzle list request: %w", err)
	}

	res, err := i.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing puzzle list request: %w", err)
	}

	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading puzzle list response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("puzzle list API returned status %d", res.StatusCode)
	}

	var result puzzleListResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("error unmarshalling puzzle list response: %w", err)
	}

	puzzles := make([]Puzzle, 0, len(result.Puzzles))
	for _, item := range result.Puzzles {
		puzzles = append(puzzles, Puzzle{
			ID:     item.PID.String(),
			Title:  item.Content.Info.Title,
			Author: item.Content.Info.Author,
		})
	}

	return puzzles, nil
}

// Play opens a shared game session for the puzzle and returns its URL.
// Game sessions are created over websockets by the frontend and there is
// no API for it, so a headless browser drives the play page until it
// redirects to the game URL.
func (i *Integration) Play(ctx context.Context, puzzle Puzzle) (string, error) {
	log.Debug().Str("puzzleId", puzzle.ID).Msg("downforacross play")

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, gameURLTimeout)
	defer cancelRun()

	var gameURL string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(i.frontendURL+"/play/"+puzzle.ID),
		waitForGameURL(i.frontendURL+"/game", &gameURL),
	)
	if err != nil {
		return "", fmt.Errorf("error opening game for puzzle %q: %w", puzzle.ID, err)
	}

	return gameURL, nil
}

// Search implements port.Integration.
func (i *Integration) Search(ctx context.Context, query string) ([]port.Result, error) {
	puzzles, err := i.SearchPuzzles(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([]port.Result, len(puzzles))
	for n, puzzle := range puzzles {
		results[n] = puzzle
	}

	return results, nil
}

// Resolve always fails, crosswords are not playable media.
func (i *Integration) Resolve(_ context.Context, _ port.Result) (domain.Media, error) {
	return domain.Media{}, domain.ErrNotPlayable
}

func waitForGameURL(prefix string, gameURL *string) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(gameURLInterval)
		defer ticker.Stop()

		for {
			var current string
			if err := chromedp.Location(&current).Do(ctx); err != nil {
				return err
			}

			if strings.HasPrefix(current, prefix) {
				*gameURL = current
				return nil
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	}
}
