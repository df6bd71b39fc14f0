package port

import (
	"context"
	"mediabot/internal/core/domain"
)

// MessageHandler is invoked once per inbound command message, each call on
// its own goroutine. commandData is the transport's populated command
// state record for the message.
type MessageHandler func(ctx context.Context, message string, commandData any)

// ReadyHandler is invoked once the platform session is established.
type ReadyHandler func(ctx context.Context)

type Transport interface {
	// RunListener connects to the platform and blocks dispatching inbound
	// messages until ctx is cancelled.
	RunListener(ctx context.Context) error
	// SetMessageHandler installs the inbound message callback. Must be
	// called before RunListener.
	SetMessageHandler(handler MessageHandler)
	// SetReadyHandler installs the session-established callback.
	SetReadyHandler(handler ReadyHandler)
	// NewCommandData returns a fresh command state record of the
	// transport's concrete type, used to restore persisted conversations.
	NewCommandData() any
	// NewPlayerData returns a fresh player state record of the transport's
	// concrete type, used to restore persisted players.
	NewPlayerData() any
	// SendResponse delivers content to the conversation identified by
	// commandData, substituting the {b} {i} {c} {cb} {cp} markers with the
	// platform's formatting. One response message is kept per conversation,
	// created on the first send and edited afterwards.
	SendResponse(ctx context.Context, content string, commandData any) error
	// GetMediaPlayerData derives the player state record for a command
	// state record, authorizing the requester in the process.
	GetMediaPlayerData(ctx context.Context, commandData any) (any, error)
	// JoinAudio connects to the audio channel identified by playerData.
	// Joining while already connected to that channel is a no-op.
	JoinAudio(ctx context.Context, playerData any) error
	// LeaveAudio disconnects from the audio channel. No-op when not
	// connected.
	LeaveAudio(ctx context.Context, playerData any) error
	// PlayAudio starts streaming media into the audio channel.
	PlayAudio(ctx context.Context, media domain.Media, playerData any) error
	// StopAudio halts streaming. No-op when nothing is streaming.
	StopAudio(ctx context.Context, playerData any) error
	// IsAudioPlaying reports whether media is currently streaming.
	IsAudioPlaying(ctx context.Context, playerData any) (bool, error)
	// IsAudioConnected reports whether the audio channel connection is up.
	IsAudioConnected(ctx context.Context, playerData any) (bool, error)
}
