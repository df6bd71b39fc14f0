// Package discord is the port.Transport implementation for Discord
// guilds, covering text commands and voice-channel audio playback.
package discord

import (
	"context"
	"fmt"
	"mediabot/internal/core/domain"
	"mediabot/internal/core/port"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Name is the registry key for this transport.
const Name = "discord"

const defaultCommandPrefix = ";;"

// MessageLimit is Discord's hard cap on message length. Longer responses
// are cut, an edit past the cap would fail the whole conversation turn.
const MessageLimit = 2000

// messenger is the slice of the discord session the transport sends
// responses through.
type messenger interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// CommandData is the discord state record for one conversation. Guild,
// channel and author identify it; the response message id survives
// between turns so follow-up output edits the same message. The voice
// channel of the author rides along per message and never persists.
type CommandData struct {
	GuildID           string `json:"guild_id" state:"hash"`
	ChannelID         string `json:"channel_id" state:"hash"`
	AuthorID          string `json:"author_id" state:"hash"`
	ResponseMessageID string `json:"response_message_id" state:"persist"`
	MessageID         string `json:"message_id"`
	VoiceChannelID    string `json:"voice_channel_id"`
}

// PlayerData is the discord state record for one media player, bound to
// a guild voice channel. Both fields identify the player and persist, so
// a restart can find its way back into the channel.
type PlayerData struct {
	GuildID   string `json:"guild_id" state:"hash,persist"`
	ChannelID string `json:"channel_id" state:"hash,persist"`
}

type Transport struct {
	session *discordgo.Session
	api     messenger
	prefix  string
	handler port.MessageHandler
	ready   port.ReadyHandler

	mu      sync.Mutex
	streams map[string]*audioStream
}

// New builds the transport from config options. bot_token is required,
// command_prefix defaults to ";;".
func New(options map[string]string) (*Transport, error) {
	token := options["bot_token"]
	if token == "" {
		return nil, fmt.Errorf("discord: bot_token is required")
	}

	prefix := options["command_prefix"]
	if prefix == "" {
		prefix = defaultCommandPrefix
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: initializing session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentGuildMessages |
		discordgo.IntentGuildVoiceStates |
		discordgo.IntentMessageContent

	t := &Transport{
		session: session,
		api:     session,
		prefix:  prefix,
		streams: make(map[string]*audioStream),
	}

	session.AddHandler(t.onMessageCreate)
	session.AddHandler(t.onReady)

	return t, nil
}

func (t *Transport) SetMessageHandler(handler port.MessageHandler) {
	t.handler = handler
}

func (t *Transport) SetReadyHandler(handler port.ReadyHandler) {
	t.ready = handler
}

func (t *Transport) NewCommandData() any {
	return &CommandData{}
}

func (t *Transport) NewPlayerData() any {
	return &PlayerData{}
}

// RunListener opens the gateway connection and blocks until ctx is
// cancelled.
func (t *Transport) RunListener(ctx context.Context) error {
	if err := t.session.Open(); err != nil {
		return fmt.Errorf("discord: opening gateway: %w", err)
	}

	log.Info().Str("prefix", t.prefix).Msg("discord listener running")

	<-ctx.Done()

	return t.session.Close()
}

func (t *Transport) onReady(_ *discordgo.Session, _ *discordgo.Ready) {
	log.Info().Msg("discord session ready")

	if t.ready != nil {
		go t.ready(context.Background())
	}
}

// onMessageCreate filters gateway messages down to guild commands and
// dispatches each on its own goroutine.
func (t *Transport) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	if !strings.HasPrefix(m.Content, t.prefix) {
		return
	}

	if t.handler == nil {
		return
	}

	log.Debug().Str("messageId", m.ID).Msg("discord message received")

	// The author's voice channel rides along so the player derivation
	// hook can authorize without another gateway round trip.
	voiceChannelID := ""
	if voice, err := s.State.VoiceState(m.GuildID, m.Author.ID); err == nil && voice != nil {
		voiceChannelID = voice.ChannelID
	}

	data := &CommandData{
		GuildID:        m.GuildID,
		ChannelID:      m.ChannelID,
		AuthorID:       m.Author.ID,
		MessageID:      m.ID,
		VoiceChannelID: voiceChannelID,
	}

	go t.handler(context.Background(), strings.TrimPrefix(m.Content, t.prefix), data)
}

// SendResponse renders content into the conversation's response message,
// creating it on the first send and editing it afterwards.
func (t *Transport) SendResponse(_ context.Context, content string, commandData any) error {
	data, ok := commandData.(*CommandData)
	if !ok {
		return fmt.Errorf("discord: unexpected command data type %T", commandData)
	}

	content = substitute(content, t.prefix)
	if runes := []rune(content); len(runes) > MessageLimit {
		content = string(runes[:MessageLimit])
	}

	if data.ResponseMessageID == "" {
		message, err := t.api.ChannelMessageSend(data.ChannelID, content)
		if err != nil {
			return fmt.Errorf("discord: sending response: %w", err)
		}

		data.ResponseMessageID = message.ID

		return nil
	}

	if _, err := t.api.ChannelMessageEdit(data.ChannelID, data.ResponseMessageID, content); err != nil {
		return fmt.Errorf("discord: editing response: %w", err)
	}

	return nil
}

// substitute maps the framework metacharacters onto Discord Markdown.
func substitute(content, prefix string) string {
	replacer := strings.NewReplacer(
		"{cp}", prefix,
		"{cb}", "```",
		"{c}", "`",
		"{i}", "*",
		"{b}", "**",
	)

	return replacer.Replace(content)
}

// GetMediaPlayerData derives the player record for the author's voice
// channel. Requests from users outside a voice channel, or in a different
// channel than a playing bot, are rejected with a user-facing error.
func (t *Transport) GetMediaPlayerData(_ context.Context, commandData any) (any, error) {
	data, ok := commandData.(*CommandData)
	if !ok {
		return nil, fmt.Errorf("discord: unexpected command data type %T", commandData)
	}

	if data.VoiceChannelID == "" {
		return nil, domain.Userf("You are not in a voice channel.")
	}

	if vc := t.voiceConnection(data.GuildID); vc != nil {
		vc.RLock()
		other := vc.ChannelID != data.VoiceChannelID
		vc.RUnlock()

		if other {
			return nil, domain.Userf("The bot is already playing in a different voice channel.")
		}
	}

	return &PlayerData{GuildID: data.GuildID, ChannelID: data.VoiceChannelID}, nil
}
