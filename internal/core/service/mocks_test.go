package service

import (
	"context"
	"mediabot/internal/core/domain"
	"mediabot/internal/core/port"
	"slices"
	"sync"
)

type testCommandData struct {
	ChatID  string `json:"chat_id" state:"hash"`
	UserID  string `json:"user_id" state:"hash"`
	ReplyID string `json:"reply_id" state:"persist"`
	Inbound string `json:"inbound"`
}

type testPlayerData struct {
	ChannelID string `json:"channel_id" state:"hash,persist"`
}

// fakeTransport is a scriptable transport: tests flip its playing and
// connected switches to drive the reconciliation loop and read back the
// calls the player made.
type fakeTransport struct {
	mu         sync.Mutex
	playing    bool
	connected  bool
	playErr    error
	pollErr    error
	playCalls  []domain.Media
	stopCalls  int
	joinCalls  int
	leaveCalls int
	responses  []string
	playerData any
	playerErr  error
	handler    port.MessageHandler
	ready      port.ReadyHandler
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		connected:  true,
		playerData: &testPlayerData{ChannelID: "voice-1"},
	}
}

func (f *fakeTransport) RunListener(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (f *fakeTransport) SetMessageHandler(handler port.MessageHandler) {
	f.handler = handler
}

func (f *fakeTransport) SetReadyHandler(handler port.ReadyHandler) {
	f.ready = handler
}

func (f *fakeTransport) NewCommandData() any {
	return &testCommandData{}
}

func (f *fakeTransport) NewPlayerData() any {
	return &testPlayerData{}
}

func (f *fakeTransport) SendResponse(_ context.Context, content string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, content)

	return nil
}

func (f *fakeTransport) GetMediaPlayerData(_ context.Context, _ any) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.playerData, f.playerErr
}

func (f *fakeTransport) JoinAudio(_ context.Context, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joinCalls++

	return nil
}

func (f *fakeTransport) LeaveAudio(_ context.Context, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaveCalls++
	f.connected = false

	return nil
}

func (f *fakeTransport) PlayAudio(_ context.Context, media domain.Media, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.playErr != nil {
		return f.playErr
	}

	f.playCalls = append(f.playCalls, media)
	f.playing = true

	return nil
}

func (f *fakeTransport) StopAudio(_ context.Context, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	f.playing = false

	return nil
}

func (f *fakeTransport) IsAudioPlaying(_ context.Context, _ any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.playing, f.pollErr
}

func (f *fakeTransport) IsAudioConnected(_ context.Context, _ any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.connected, f.pollErr
}

func (f *fakeTransport) setPlaying(playing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = playing
}

func (f *fakeTransport) setConnected(connected bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = connected
}

func (f *fakeTransport) setPollErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pollErr = err
}

func (f *fakeTransport) playedMedia() []domain.Media {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.playCalls)
}

func (f *fakeTransport) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.stopCalls
}

func (f *fakeTransport) joinCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.joinCalls
}

func (f *fakeTransport) leaveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.leaveCalls
}

func (f *fakeTransport) sentResponses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.responses)
}

// fakeStore is an in-memory port.Store recording row churn.
type fakeStore struct {
	mu            sync.Mutex
	conversations map[string]port.Conversation
	players       map[string]port.PlayerRecord
	initialized   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: make(map[string]port.Conversation),
		players:       make(map[string]port.PlayerRecord),
	}
}

func (f *fakeStore) Initialize(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initialized = true

	return nil
}

func (f *fakeStore) LoadConversation(_ context.Context, hash string) (*port.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.conversations[hash]
	if !ok {
		return nil, nil
	}

	return &row, nil
}

func (f *fakeStore) SaveConversation(_ context.Context, conversation *port.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conversations[conversation.Hash] = *conversation

	return nil
}

func (f *fakeStore) DeleteConversation(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.conversations, hash)

	return nil
}

func (f *fakeStore) LoadMediaPlayer(_ context.Context, hash string) (*port.PlayerRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.players[hash]
	if !ok {
		return nil, nil
	}

	return &row, nil
}

func (f *fakeStore) SaveMediaPlayer(_ context.Context, record *port.PlayerRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.players[record.Hash] = *record

	return nil
}

func (f *fakeStore) DeleteMediaPlayer(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.players, hash)

	return nil
}

func (f *fakeStore) ListMediaPlayers(_ context.Context) ([]port.PlayerRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	records := make([]port.PlayerRecord, 0, len(f.players))
	for _, record := range f.players {
		records = append(records, record)
	}

	return records, nil
}

func (f *fakeStore) conversationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.conversations)
}

func (f *fakeStore) playerRecord(hash string) (port.PlayerRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.players[hash]

	return row, ok
}
