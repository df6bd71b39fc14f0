package port

import (
	"context"
	"mediabot/internal/core/domain"
	"time"
)

// MediaController is the media queue player surface commands drive.
// Operations on one player serialize against each other, and every
// mutation persists the player's state before returning.
type MediaController interface {
	// Join connects the player's audio channel.
	Join(ctx context.Context) error
	// Leave stops playback, empties the queue and disconnects.
	Leave(ctx context.Context) error
	// Start joins the audio channel and begins playback of the restored
	// queue, used when persisted players are brought back at startup.
	Start(ctx context.Context) error
	// Play begins playback of the queue head. No-op while playing or when
	// the queue is empty.
	Play(ctx context.Context) error
	// Stop halts playback and resets the elapsed counter. No-op when
	// nothing plays.
	Stop(ctx context.Context) error
	// Next stops playback, drops the queue head and plays the following
	// item.
	Next(ctx context.Context) error
	// Enqueue appends media to the queue, starting playback if the player
	// was idle.
	Enqueue(ctx context.Context, media domain.Media) error
	// EnqueueAt inserts media at index, clamped to the queue bounds.
	EnqueueAt(ctx context.Context, index int, media domain.Media) error
	// Pop removes and returns the item at index. Removing index zero while
	// it is playing advances to the next item.
	Pop(ctx context.Context, index int) (domain.Media, error)
	// Clear stops playback and empties the queue.
	Clear(ctx context.Context) error
	// Queue returns a snapshot of the queued media.
	Queue() []domain.Media
	// Elapsed returns the playback position within the current item.
	Elapsed() time.Duration
}
