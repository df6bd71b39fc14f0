// Package telegram is the port.Transport implementation for Telegram
// chats. It covers messaging only: Telegram has no guild voice channels,
// so the media player derivation hook reports audio as unsupported and
// media commands degrade to a readable user error.
package telegram

import (
	"context"
	"fmt"
	"mediabot/internal/core/domain"
	"mediabot/internal/core/port"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

// Name is the registry key for this transport.
const Name = "telegram"

const defaultCommandPrefix = "/"

// MessageLimit is Telegram's hard cap on message length. Longer responses
// are cut, an edit past the cap would fail the whole conversation turn.
const MessageLimit = 4096

// telegramAPI is the slice of the bot client the transport sends through.
type telegramAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
}

// CommandData is the telegram state record for one conversation. Chat and
// user identify it; the response message id survives between turns so
// follow-up output edits the same message.
type CommandData struct {
	ChatID            int64 `json:"chat_id" state:"hash"`
	UserID            int64 `json:"user_id" state:"hash"`
	ResponseMessageID int   `json:"response_message_id" state:"persist"`
	MessageID         int   `json:"message_id"`
}

// PlayerData exists to satisfy the transport contract. No telegram player
// is ever derived, so no record of this type is ever persisted.
type PlayerData struct{}

type Transport struct {
	bot     *bot.Bot
	api     telegramAPI
	prefix  string
	handler port.MessageHandler
	ready   port.ReadyHandler
}

// New builds the transport from config options. bot_token is required,
// command_prefix defaults to "/".
func New(options map[string]string) (*Transport, error) {
	token := options["bot_token"]
	if token == "" {
		return nil, fmt.Errorf("telegram: bot_token is required")
	}

	prefix := options["command_prefix"]
	if prefix == "" {
		prefix = defaultCommandPrefix
	}

	b, err := bot.New(token, bot.WithDefaultHandler(noOpHandler))
	if err != nil {
		return nil, fmt.Errorf("telegram: initializing bot: %w", err)
	}

	return &Transport{bot: b, api: b, prefix: prefix}, nil
}

func noOpHandler(_ context.Context, _ *bot.Bot, _ *models.Update) {}

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

// RunListener starts long polling and blocks until ctx is cancelled. The
// session is already established by construction, so the ready hook fires
// as polling begins.
func (t *Transport) RunListener(ctx context.Context) error {
	t.bot.RegisterHandler(bot.HandlerTypeMessageText, t.prefix, bot.MatchTypePrefix, t.onMessage)

	if t.ready != nil {
		go t.ready(ctx)
	}

	log.Info().Str("prefix", t.prefix).Msg("telegram listener running")
	t.bot.Start(ctx)

	return nil
}

// onMessage runs on the bot library's per-update goroutine.
func (t *Transport) onMessage(ctx context.Context, _ *bot.Bot, update *models.Update) {
	message := update.Message
	if message == nil || message.From == nil || message.From.IsBot {
		return
	}

	if t.handler == nil {
		return
	}

	log.Debug().Int64("chatId", message.Chat.ID).Msg("telegram message received")

	t.handler(ctx, strings.TrimPrefix(message.Text, t.prefix), &CommandData{
		ChatID:    message.Chat.ID,
		UserID:    message.From.ID,
		MessageID: message.ID,
	})
}

// SendResponse renders content into the conversation's response message,
// creating it on the first send and editing it afterwards.
func (t *Transport) SendResponse(ctx context.Context, content string, commandData any) error {
	data, ok := commandData.(*CommandData)
	if !ok {
		return fmt.Errorf("telegram: unexpected command data type %T", commandData)
	}

	content = substitute(content, t.prefix)
	if runes := []rune(content); len(runes) > MessageLimit {
		content = string(runes[:MessageLimit])
	}

	if data.ResponseMessageID == 0 {
		message, err := t.api.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    data.ChatID,
			Text:      content,
			ParseMode: models.ParseModeMarkdownV1,
		})
		if err != nil {
			return fmt.Errorf("telegram: sending response: %w", err)
		}

		data.ResponseMessageID = message.ID

		return nil
	}

	_, err := t.api.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    data.ChatID,
		MessageID: data.ResponseMessageID,
		Text:      content,
		ParseMode: models.ParseModeMarkdownV1,
	})
	if err != nil {
		return fmt.Errorf("telegram: editing response: %w", err)
	}

	return nil
}

// substitute maps the framework metacharacters onto Telegram Markdown.
func substitute(content, prefix string) string {
	replacer := strings.NewReplacer(
		"{cp}", prefix,
		"{cb}", "```",
		"{c}", "`",
		"{i}", "_",
		"{b}", "*",
	)

	return replacer.Replace(content)
}

// GetMediaPlayerData rejects every request: telegram chats have no audio
// channel to derive a player for.
func (t *Transport) GetMediaPlayerData(_ context.Context, _ any) (any, error) {
	return nil, domain.ErrAudioNotSupported
}

func (t *Transport) JoinAudio(_ context.Context, _ any) error {
	return domain.ErrAudioNotSupported
}

func (t *Transport) LeaveAudio(_ context.Context, _ any) error {
	return domain.ErrAudioNotSupported
}

func (t *Transport) PlayAudio(_ context.Context, _ domain.Media, _ any) error {
	return domain.ErrAudioNotSupported
}

func (t *Transport) StopAudio(_ context.Context, _ any) error {
	return domain.ErrAudioNotSupported
}

func (t *Transport) IsAudioPlaying(_ context.Context, _ any) (bool, error) {
	return false, domain.ErrAudioNotSupported
}

func (t *Transport) IsAudioConnected(_ context.Context, _ any) (bool, error) {
	return false, domain.ErrAudioNotSupported
}
