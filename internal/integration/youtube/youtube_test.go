package youtube

import (
	"context"
	"encoding/json"
	"mediabot/internal/core/domain"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	yt "github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStreams is a test double for the streamClient interface.
type fakeStreams struct {
	meta      *yt.Video
	metaErr   error
	streamURL string
	streamErr error
	gotURL    string
	gotFormat *yt.Format
}

func (f *fakeStreams) GetVideoContext(_ context.Context, url string) (*yt.Video, error) {
	f.gotURL = url
	return f.meta, f.metaErr
}

func (f *fakeStreams) GetStreamURLContext(_ context.Context, _ *yt.Video,
	format *yt.Format) (string, error) {
	f.gotFormat = format
	return f.streamURL, f.streamErr
}

func TestSearchVideos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-api-key", r.URL.Query().Get("key"))

		switch r.URL.Path {
		case "/search":
			assert.Equal(t, "never gonna", r.URL.Query().Get("q"))
			assert.Equal(t, "video", r.URL.Query().Get("type"))
			json.NewEncoder(w).Encode(map[string]any{
				"items": []any{
					map[string]any{"id": map[string]any{"videoId": "vid-1"}},
					map[string]any{"id": map[string]any{"videoId": "vid-2"}},
				},
			})
		case "/videos":
			assert.Equal(t, "vid-1,vid-2", r.URL.Query().Get("id"))
			json.NewEncoder(w).Encode(map[string]any{
				"items": []any{
					map[string]any{
						"id":             "vid-1",
						"snippet":        map[string]any{"title": "First Video"},
						"contentDetails": map[string]any{"duration": "PT4M13S"},
					},
					map[string]any{
						"id":             "vid-2",
						"snippet":        map[string]any{"title": "Second Video"},
						"contentDetails": map[string]any{"duration": "PT1H2M3S"},
					},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	i := &Integration{apiKey: "test-api-key", baseURL: srv.URL, httpClient: srv.Client()}

	videos, err := i.SearchVideos(t.Context(), "never gonna")
	require.NoError(t, err)

	want := []Video{
		{ID: "vid-1", Title: "First Video", Duration: 4*time.Minute + 13*time.Second},
		{ID: "vid-2", Title: "Second Video", Duration: time.Hour + 2*time.Minute + 3*time.Second},
	}
	assert.Equal(t, want, videos)
}

func TestSearchVideosNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	}))
	defer srv.Close()

	i := &Integration{apiKey: "test-api-key", baseURL: srv.URL, httpClient: srv.Client()}

	videos, err := i.SearchVideos(t.Context(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, videos)
}

func TestSearchVideosAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	i := &Integration{apiKey: "bad-key", baseURL: srv.URL, httpClient: srv.Client()}

	_, err := i.SearchVideos(t.Context(), "query")
	require.Error(t, err)
}

func TestGetFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "dQw4w9WgXcQ", r.URL.Query().Get("id"))
		json.NewEncoder(w).Encode(map[string]any{
			"items": []any{
				map[string]any{
					"id":             "dQw4w9WgXcQ",
					"snippet":        map[string]any{"title": "A Classic"},
					"contentDetails": map[string]any{"duration": "PT3M33S"},
				},
			},
		})
	}))
	defer srv.Close()

	i := &Integration{apiKey: "test-api-key", baseURL: srv.URL, httpClient: srv.Client()}

	urls := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
	}
	for _, rawURL := range urls {
		video, err := i.GetFromURL(t.Context(), rawURL)
		require.NoError(t, err, rawURL)
		assert.Equal(t, "dQw4w9WgXcQ", video.ID)
		assert.Equal(t, "A Classic", video.Title)
	}
}

func TestGetFromURLVideoNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	}))
	defer srv.Close()

	i := &Integration{apiKey: "test-api-key", baseURL: srv.URL, httpClient: srv.Client()}

	_, err := i.GetFromURL(t.Context(), "https://youtu.be/dQw4w9WgXcQ")
	require.ErrorContains(t, err, "video not found")
}

func TestIsVideoURL(t *testing.T) {
	testCases := []struct {
		url  string
		want bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://music.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", true},
		{"https://example.com/a.mp3", false},
		{"https://notyoutube.com/watch?v=x", false},
		{"not a url", false},
	}

	i := &Integration{}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			assert.Equal(t, tc.want, i.IsVideoURL(tc.url))
		})
	}
}

func TestResolvePicksHighestBitrateAudio(t *testing.T) {
	streams := &fakeStreams{
		meta: &yt.Video{
			Formats: yt.FormatList{
				{MimeType: `video/mp4; codecs="avc1.64001F"`, Bitrate: 2000000},
				{MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 128000},
				{MimeType: `audio/webm; codecs="opus"`, Bitrate: 160000},
			},
		},
		streamURL: "https://stream.example/audio",
	}

	i := &Integration{streams: streams}

	media, err := i.Resolve(t.Context(), Video{
		ID:       "vid-1",
		Title:    "First Video",
		Duration: 4 * time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://www.youtube.com/watch?v=vid-1", streams.gotURL)
	require.NotNil(t, streams.gotFormat)
	assert.Equal(t, 160000, streams.gotFormat.Bitrate)

	want := domain.Media{
		URL:      "https://stream.example/audio",
		Title:    "First Video",
		Duration: 4 * time.Minute,
	}
	assert.Equal(t, want, media)
}

func TestResolveNoAudioStream(t *testing.T) {
	streams := &fakeStreams{
		meta: &yt.Video{
			Formats: yt.FormatList{
				{MimeType: `video/mp4; codecs="avc1.64001F"`, Bitrate: 2000000},
			},
		},
	}

	i := &Integration{streams: streams}

	_, err := i.Resolve(t.Context(), Video{ID: "vid-1"})
	require.ErrorContains(t, err, "no audio stream")
}

func TestResolveRejectsForeignResult(t *testing.T) {
	i := &Integration{}

	_, err := i.Resolve(t.Context(), foreignResult{})
	require.ErrorContains(t, err, "unexpected result type")
}

type foreignResult struct{}

func (foreignResult) Label() string { return "foreign" }

func TestParseDuration(t *testing.T) {
	testCases := []struct {
		iso     string
		want    time.Duration
		wantErr bool
	}{
		{iso: "PT4M13S", want: 4*time.Minute + 13*time.Second},
		{iso: "PT1H2M3S", want: time.Hour + 2*time.Minute + 3*time.Second},
		{iso: "PT15S", want: 15 * time.Second},
		{iso: "PT90M", want: 90 * time.Minute},
		{iso: "P1DT2H", want: 26 * time.Hour},
		{iso: "P0D", want: 0},
		{iso: "4M13S", wantErr: true},
		{iso: "PTM", wantErr: true},
		{iso: "PT4M13", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.iso, func(t *testing.T) {
			got, err := parseDuration(tc.iso)
			if tc.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
