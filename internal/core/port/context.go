package port

import (
	"context"
	"mediabot/internal/core/state"
)

// CommandInfo describes a registered command for display purposes.
type CommandInfo struct {
	Name string
	Help string
}

// PlayerSource hands out the media queue player bound to a player state
// record. Implemented by the orchestrator, which guarantees at most one
// live player per identity hash.
type PlayerSource interface {
	Player(ctx context.Context, playerData any) (MediaController, error)
}

// Context is the per-conversation container a command runs against. Data
// is the transport's command state record: its hash-tagged fields identify
// the conversation, its persist-tagged fields survive between turns.
type Context struct {
	Transport Transport
	Data      any
	Commands  []CommandInfo
	Players   PlayerSource
}

// Hash returns the conversation identity derived from Data.
func (c *Context) Hash() string {
	return state.Hash(c.Data)
}

// SendResponse renders content through the transport into this
// conversation's response message.
func (c *Context) SendResponse(ctx context.Context, content string) error {
	return c.Transport.SendResponse(ctx, content, c.Data)
}

// JoinAudio connects the conversation to its audio channel and returns the
// media queue player for it. The transport derives and authorizes the
// player identity from the conversation's state record.
func (c *Context) JoinAudio(ctx context.Context) (MediaController, error) {
	player, err := c.player(ctx)
	if err != nil {
		return nil, err
	}

	if err := player.Join(ctx); err != nil {
		return nil, err
	}

	return player, nil
}

// LeaveAudio stops playback, clears the media queue and disconnects the
// conversation's audio channel.
func (c *Context) LeaveAudio(ctx context.Context) error {
	player, err := c.player(ctx)
	if err != nil {
		return err
	}

	return player.Leave(ctx)
}

func (c *Context) player(ctx context.Context) (MediaController, error) {
	playerData, err := c.Transport.GetMediaPlayerData(ctx, c.Data)
	if err != nil {
		return nil, err
	}

	return c.Players.Player(ctx, playerData)
}
