package discord

import (
	"context"
	"fmt"
	"mediabot/internal/core/domain"

	"github.com/bwmarrin/discordgo"
	"github.com/jonas747/dca"
	"github.com/rs/zerolog/log"
)

// audioStream is one ffmpeg transcode feeding one voice connection. done
// is buffered so the stream can finish without a reader.
type audioStream struct {
	encode *dca.EncodeSession
	stream *dca.StreamingSession
	done   chan error
}

// voiceConnection returns the live voice connection for a guild, nil when
// there is none.
func (t *Transport) voiceConnection(guildID string) *discordgo.VoiceConnection {
	t.session.RLock()
	defer t.session.RUnlock()

	return t.session.VoiceConnections[guildID]
}

// JoinAudio connects to the player's voice channel. Already being
// connected there is a no-op, a connection elsewhere in the guild moves.
func (t *Transport) JoinAudio(_ context.Context, playerData any) error {
	data, ok := playerData.(*PlayerData)
	if !ok {
		return fmt.Errorf("discord: unexpected player data type %T", playerData)
	}

	if vc := t.voiceConnection(data.GuildID); vc != nil {
		vc.RLock()
		connected := vc.Ready && vc.ChannelID == data.ChannelID
		vc.RUnlock()

		if connected {
			return nil
		}
	}

	log.Debug().Str("guildId", data.GuildID).Str("channelId", data.ChannelID).Msg("joining voice channel")

	if _, err := t.session.ChannelVoiceJoin(data.GuildID, data.ChannelID, false, true); err != nil {
		return fmt.Errorf("discord: joining voice channel: %w", err)
	}

	return nil
}

// LeaveAudio halts any stream and disconnects from the guild's voice
// channel.
func (t *Transport) LeaveAudio(_ context.Context, playerData any) error {
	data, ok := playerData.(*PlayerData)
	if !ok {
		return fmt.Errorf("discord: unexpected player data type %T", playerData)
	}

	t.stopStream(data.GuildID)

	vc := t.voiceConnection(data.GuildID)
	if vc == nil {
		return nil
	}

	log.Debug().Str("guildId", data.GuildID).Msg("leaving voice channel")

	if err := vc.Disconnect(); err != nil {
		return fmt.Errorf("discord: leaving voice channel: %w", err)
	}

	return nil
}

// PlayAudio transcodes the media source with ffmpeg and streams it into
// the guild's voice connection, replacing any stream already running.
func (t *Transport) PlayAudio(_ context.Context, media domain.Media, playerData any) error {
	data, ok := playerData.(*PlayerData)
	if !ok {
		return fmt.Errorf("discord: unexpected player data type %T", playerData)
	}

	vc := t.voiceConnection(data.GuildID)
	if vc == nil {
		return fmt.Errorf("discord: not connected to a voice channel in guild %s", data.GuildID)
	}

	t.stopStream(data.GuildID)

	opts := *dca.StdEncodeOptions
	opts.RawOutput = true
	opts.Bitrate = 96
	opts.Application = dca.AudioApplicationAudio

	encode, err := dca.EncodeFile(media.URL, &opts)
	if err != nil {
		return fmt.Errorf("discord: encoding media: %w", err)
	}

	log.Debug().Str("guildId", data.GuildID).Str("title", media.Title).Msg("streaming media")

	done := make(chan error, 1)

	t.mu.Lock()
	t.streams[data.GuildID] = &audioStream{
		encode: encode,
		stream: dca.NewStream(encode, vc, done),
		done:   done,
	}
	t.mu.Unlock()

	return nil
}

// StopAudio halts the guild's stream, leaving the voice connection up.
func (t *Transport) StopAudio(_ context.Context, playerData any) error {
	data, ok := playerData.(*PlayerData)
	if !ok {
		return fmt.Errorf("discord: unexpected player data type %T", playerData)
	}

	t.stopStream(data.GuildID)

	return nil
}

// stopStream detaches and tears down the guild's stream, if any. Killing
// the encoder makes the streaming session finish.
func (t *Transport) stopStream(guildID string) {
	t.mu.Lock()
	entry := t.streams[guildID]
	delete(t.streams, guildID)
	t.mu.Unlock()

	if entry != nil {
		entry.encode.Cleanup()
	}
}

// IsAudioPlaying reports whether the guild's stream is still running. A
// stream that died on its own counts as not playing so the queue can
// move on.
func (t *Transport) IsAudioPlaying(_ context.Context, playerData any) (bool, error) {
	data, ok := playerData.(*PlayerData)
	if !ok {
		return false, fmt.Errorf("discord: unexpected player data type %T", playerData)
	}

	t.mu.Lock()
	entry := t.streams[data.GuildID]
	t.mu.Unlock()

	if entry == nil {
		return false, nil
	}

	finished, ferr := entry.stream.Finished()
	if ferr != nil {
		log.Debug().Err(ferr).Str("guildId", data.GuildID).Msg("audio stream ended with error")
	}

	return !finished, nil
}

// IsAudioConnected reports whether the guild's voice connection is up.
func (t *Transport) IsAudioConnected(_ context.Context, playerData any) (bool, error) {
	data, ok := playerData.(*PlayerData)
	if !ok {
		return false, fmt.Errorf("discord: unexpected player data type %T", playerData)
	}

	vc := t.voiceConnection(data.GuildID)
	if vc == nil {
		return false, nil
	}

	vc.RLock()
	ready := vc.Ready
	vc.RUnlock()

	return ready, nil
}
