// Package youtube searches the YouTube Data API and resolves videos to
// playable audio stream URLs.
package youtube

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

	yt "github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog/log"
)

// Name is the registry key for this integration.
const Name = "youtube"

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

const maxResults = "50"

// streamClient is the slice of the stream library used for resolution.
type streamClient interface {
	GetVideoContext(ctx context.Context, url string) (*yt.Video, error)
	GetStreamURLContext(ctx context.Context, video *yt.Video, format *yt.Format) (string, error)
}

// Video is a single youtube video with the metadata shown to users.
type Video struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Duration time.Duration `json:"duration"`
}

func (v Video) Label() string {
	return v.Title
}

// Integration wraps the YouTube Data API and the stream resolver.
type Integration struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	streams    streamClient
}

// New builds the integration from config options. api_key is required.
func New(options map[string]string) (*Integration, error) {
	apiKey := options["api_key"]
	if apiKey == "" {
		return nil, fmt.Errorf("youtube: api_key is required")
	}

	return &Integration{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
		streams:    &yt.Client{},
	}, nil
}

// IsVideoURL reports whether the URL points at a youtube video page.
func (i *Integration) IsVideoURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := strings.ToLower(parsed.Hostname())

	return host == "youtu.be" || host == "youtube.com" ||
		strings.HasSuffix(host, ".youtube.com")
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

// SearchVideos queries the search API and loads full metadata for the
// returned video ids.
func (i *Integration) SearchVideos(ctx context.Context, query string) ([]Video, error) {
	log.Debug().Str("query", query).Msg("youtube search")

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", maxResults)

	body, err := i.apiGet(ctx, "/search", params)
	if err != nil {
		return nil, err
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("error unmarshalling youtube search response: %w", err)
	}

	ids := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}

	if len(ids) == 0 {
		return nil, nil
	}

	return i.videoList(ctx, ids)
}

// GetFromURL parses a youtube URL and loads the video it points at.
func (i *Integration) GetFromURL(ctx context.Context, rawURL string) (Video, error) {
	videoID, err := yt.ExtractVideoID(rawURL)
	if err != nil {
		return Video{}, fmt.Errorf("error extracting video id from %q: %w", rawURL, err)
	}

	videos, err := i.videoList(ctx, []string{videoID})
	if err != nil {
		return Video{}, err
	}

	if len(videos) == 0 {
		return Video{}, fmt.Errorf("video not found: %s", videoID)
	}

	return videos[0], nil
}

// Search implements port.Integration.
func (i *Integration) Search(ctx context.Context, query string) ([]port.Result, error) {
	videos, err := i.SearchVideos(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([]port.Result, len(videos))
	for n, video := range videos {
		results[n] = video
	}

	return results, nil
}

// Resolve picks the highest-bitrate audio stream of the video and returns
// it as playable media.
func (i *Integration) Resolve(ctx context.Context, result port.Result) (domain.Media, error) {
	video, ok := result.(Video)
	if !ok {
		return domain.Media{}, fmt.Errorf("unexpected result type %T", result)
	}

	meta, err := i.streams.GetVideoContext(ctx, watchURL(video.ID))
	if err != nil {
		return domain.Media{}, fmt.Errorf("error loading stream metadata for %q: %w", video.ID, err)
	}

	formats := meta.Formats.Type("audio")
	if len(formats) == 0 {
		return domain.Media{}, fmt.Errorf("no audio stream for video %q", video.ID)
	}

	best := formats[0]
	for _, format := range formats[1:] {
		if format.Bitrate > best.Bitrate {
			best = format
		}
	}

	streamURL, err := i.streams.GetStreamURLContext(ctx, meta, &best)
	if err != nil {
		return domain.Media{}, fmt.Errorf("error resolving stream url for %q: %w", video.ID, err)
	}

	log.Debug().Str("videoId", video.ID).Msg("resolved youtube stream")

	return domain.Media{
		URL:      streamURL,
		Title:    video.Title,
		Duration: video.Duration,
	}, nil
}

type videoListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

func (i *Integration) videoList(ctx context.Context, ids []string) ([]Video, error) {
	params := url.Values{}
	params.Set("part", "contentDetails,snippet")
	params.Set("id", strings.Join(ids, ","))
	params.Set("maxResults", maxResults)

	body, err := i.apiGet(ctx, "/videos", params)
	if err != nil {
		return nil, err
	}

	var result videoListResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("error unmarshalling youtube video response: %w", err)
	}

	videos := make([]Video, 0, len(result.Items))
	for _, item := range result.Items {
		duration, err := parseDuration(item.ContentDetails.Duration)
		if err != nil {
			return nil, fmt.Errorf("error parsing duration of video %q: %w", item.ID, err)
		}

		videos = append(videos, Video{
			ID:       item.ID,
			Title:    item.Snippet.Title,
			Duration: duration,
		})
	}

	return videos, nil
}

func (i *Integration) apiGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	params.Set("key", i.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		i.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating youtube API request: %w", err)
	}

	res, err := i.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing youtube API request: %w", err)
	}

	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading youtube API response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube API returned status %d", res.StatusCode)
	}

	return body, nil
}

func watchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// parseDuration parses the ISO 8601 durations the Data API returns,
// e.g. "PT4M13S" or "P1DT2H".
func parseDuration(iso string) (time.Duration, error) {
	if !strings.HasPrefix(iso, "P") {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q", iso)
	}

	var total time.Duration
	var value int64
	haveDigits := false
	inTime := false

	for _, r := range iso[1:] {
		switch {
		case r >= '0' && r <= '9':
			value = value*10 + int64(r-'0')
			haveDigits = true
		case r == 'T' && !inTime:
			inTime = true
		default:
			unit, ok := durationUnit(r, inTime)
			if !ok || !haveDigits {
				return 0, fmt.Errorf("invalid ISO 8601 duration %q", iso)
			}

			total += time.Duration(value) * unit
			value = 0
			haveDigits = false
		}
	}

	if haveDigits {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q", iso)
	}

	return total, nil
}

func durationUnit(r rune, inTime bool) (time.Duration, bool) {
	switch {
	case r == 'D' && !inTime:
		return 24 * time.Hour, true
	case r == 'H' && inTime:
		return time.Hour, true
	case r == 'M' && inTime:
		return time.Minute, true
	case r == 'S' && inTime:
		return time.Second, true
	}

	return 0, false
}
