package command

import (
	"context"
	"mediabot/internal/core/domain"
	"mediabot/internal/core/port"
	"mediabot/internal/integration/downforacross"
	"mediabot/internal/integration/youtube"
	"slices"
	"time"
)

// fakeTransport records responses. The audio surface is a no-op, media
// behavior is covered by the fakeController.
type fakeTransport struct {
	responses  []string
	playerData any
	playerErr  error
}

func (f *fakeTransport) RunListener(context.Context) error    { return nil }
func (f *fakeTransport) SetMessageHandler(port.MessageHandler) {}
func (f *fakeTransport) SetReadyHandler(port.ReadyHandler)     {}
func (f *fakeTransport) NewCommandData() any                   { return &struct{}{} }
func (f *fakeTransport) NewPlayerData() any                    { return &struct{}{} }

func (f *fakeTransport) SendResponse(_ context.Context, content string, _ any) error {
	f.responses = append(f.responses, content)
	return nil
}

func (f *fakeTransport) GetMediaPlayerData(context.Context, any) (any, error) {
	if f.playerErr != nil {
		return nil, f.playerErr
	}

	return f.playerData, nil
}

func (f *fakeTransport) JoinAudio(context.Context, any) error               { return nil }
func (f *fakeTransport) LeaveAudio(context.Context, any) error              { return nil }
func (f *fakeTransport) StopAudio(context.Context, any) error               { return nil }
func (f *fakeTransport) PlayAudio(context.Context, domain.Media, any) error { return nil }
func (f *fakeTransport) IsAudioPlaying(context.Context, any) (bool, error)  { return false, nil }
func (f *fakeTransport) IsAudioConnected(context.Context, any) (bool, error) {
	return true, nil
}

// fakeController is a recording stand-in for the media queue player.
type fakeController struct {
	queue      []domain.Media
	enqueued   []domain.Media
	popIndex   int
	popMedia   domain.Media
	popErr     error
	joinCalls  int
	leaveCalls int
}

func (f *fakeController) Join(context.Context) error  { f.joinCalls++; return nil }
func (f *fakeController) Leave(context.Context) error { f.leaveCalls++; return nil }
func (f *fakeController) Start(context.Context) error { return nil }
func (f *fakeController) Play(context.Context) error  { return nil }
func (f *fakeController) Stop(context.Context) error  { return nil }
func (f *fakeController) Next(context.Context) error  { return nil }

func (f *fakeController) Enqueue(_ context.Context, media domain.Media) error {
	f.enqueued = append(f.enqueued, media)
	return nil
}

func (f *fakeController) EnqueueAt(_ context.Context, _ int, media domain.Media) error {
	f.enqueued = append(f.enqueued, media)
	return nil
}

func (f *fakeController) Pop(_ context.Context, index int) (domain.Media, error) {
	f.popIndex = index
	if f.popErr != nil {
		return domain.Media{}, f.popErr
	}

	return f.popMedia, nil
}

func (f *fakeController) Clear(context.Context) error { f.queue = nil; return nil }
func (f *fakeController) Queue() []domain.Media       { return f.queue }
func (f *fakeController) Elapsed() time.Duration      { return 0 }

type fakePlayers struct {
	controller port.MediaController
	err        error
}

func (f *fakePlayers) Player(context.Context, any) (port.MediaController, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.controller, nil
}

func newTestContext(transport *fakeTransport, controller *fakeController) *port.Context {
	return &port.Context{
		Transport: transport,
		Data:      &struct{}{},
		Players:   &fakePlayers{controller: controller},
	}
}

func depsWith(name string, integration port.Integration) port.Integrations {
	return port.Integrations{name: integration}
}

// fakeYoutube is a test double for the youtube integration.
type fakeYoutube struct {
	videos     []youtube.Video
	searchErr  error
	video      youtube.Video
	fromURLErr error
	media      domain.Media
	resolveErr error
	resolved   []port.Result
	isVideo    bool
}

func (f *fakeYoutube) Search(ctx context.Context, query string) ([]port.Result, error) {
	videos, err := f.SearchVideos(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([]port.Result, len(videos))
	for n, video := range videos {
		results[n] = video
	}

	return results, nil
}

func (f *fakeYoutube) SearchVideos(context.Context, string) ([]youtube.Video, error) {
	return f.videos, f.searchErr
}

func (f *fakeYoutube) GetFromURL(context.Context, string) (youtube.Video, error) {
	return f.video, f.fromURLErr
}

func (f *fakeYoutube) IsVideoURL(string) bool { return f.isVideo }

func (f *fakeYoutube) Resolve(_ context.Context, result port.Result) (domain.Media, error) {
	f.resolved = append(f.resolved, result)

	if f.resolveErr != nil {
		return domain.Media{}, f.resolveErr
	}

	if f.media.URL != "" {
		return f.media, nil
	}

	return domain.Media{URL: "stream://" + result.Label(), Title: result.Label()}, nil
}

// fakeDownforacross is a test double for the downforacross integration.
type fakeDownforacross struct {
	puzzles   []downforacross.Puzzle
	searchErr error
	gameURL   string
	playErr   error
	played    []downforacross.Puzzle
}

func (f *fakeDownforacross) Search(ctx context.Context, query string) ([]port.Result, error) {
	puzzles, err := f.SearchPuzzles(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([]port.Result, len(puzzles))
	for n, puzzle := range puzzles {
		results[n] = puzzle
	}

	return results, nil
}

func (f *fakeDownforacross) SearchPuzzles(context.Context, string) ([]downforacross.Puzzle, error) {
	return f.puzzles, f.searchErr
}

func (f *fakeDownforacross) Play(_ context.Context, puzzle downforacross.Puzzle) (string, error) {
	f.played = append(f.played, puzzle)
	if f.playErr != nil {
		return "", f.playErr
	}

	return f.gameURL, f.playErr
}

func (f *fakeDownforacross) Resolve(context.Context, port.Result) (domain.Media, error) {
	return domain.Media{}, domain.ErrNotPlayable
}

// fakeChat is a test double for the openrouter integration.
type fakeChat struct {
	replies []string
	err     error
	calls   [][]domain.Prompt
}

func (f *fakeChat) Chat(_ context.Context, prompts []domain.Prompt) (string, error) {
	f.calls = append(f.calls, slices.Clone(prompts))

	if f.err != nil {
		return "", f.err
	}

	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}

	return reply, nil
}

func (f *fakeChat) Search(context.Context, string) ([]port.Result, error) {
	return nil, nil
}

func (f *fakeChat) Resolve(context.Context, port.Result) (domain.Media, error) {
	return domain.Media{}, domain.ErrNotPlayable
}
