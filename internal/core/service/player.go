package service

import (
	"context"
	"fmt"
	"mediabot/internal/core/domain"
	"mediabot/internal/core/port"
	"mediabot/internal/core/state"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultPollInterval = time.Second

// SaveFunc persists a player's state after a mutation. The orchestrator
// installs one that writes through the store; headless players keep the
// default no-op.
type SaveFunc func(ctx context.Context, player *Player) error

type PlayerOption func(*Player)

// WithPollInterval overrides the reconciliation loop interval.
func WithPollInterval(interval time.Duration) PlayerOption {
	return func(p *Player) {
		p.interval = interval
	}
}

// WithSaveFunc installs the persistence callback.
func WithSaveFunc(save SaveFunc) PlayerOption {
	return func(p *Player) {
		p.save = save
	}
}

// WithPlayerState seeds the queue and elapsed position, used when a
// persisted player is restored.
func WithPlayerState(restored domain.PlayerState) PlayerOption {
	return func(p *Player) {
		p.queue = slices.Clone(restored.Queue)
		p.elapsed = restored.Elapsed
	}
}

// pollTask is one run of the reconciliation loop. done closes when the
// loop goroutine has fully terminated.
type pollTask struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Player is the media queue player for one audio channel. It owns the
// queue, the playback position and the reconciliation loop that advances
// the queue when a track ends on its own. Public operations serialize
// against each other through opMu; mu guards the fields the loop touches
// between operations.
type Player struct {
	transport port.Transport
	data      any
	save      SaveFunc
	interval  time.Duration
	logger    zerolog.Logger

	opMu sync.Mutex

	mu      sync.Mutex
	queue   []domain.Media
	elapsed time.Duration
	task    *pollTask
}

func NewPlayer(transport port.Transport, playerData any, opts ...PlayerOption) *Player {
	p := &Player{
		transport: transport,
		data:      playerData,
		interval:  defaultPollInterval,
		save: func(context.Context, *Player) error {
			return nil
		},
		logger: log.With().Str("component", "player").Str("hash", state.Hash(playerData)).Logger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Data returns the transport's player state record this player is bound
// to. The record is never mutated after construction.
func (p *Player) Data() any {
	return p.data
}

func (p *Player) Queue() []domain.Media {
	p.mu.Lock()
	defer p.mu.Unlock()

	return slices.Clone(p.queue)
}

func (p *Player) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.elapsed
}

// Playing reports whether a reconciliation loop is live, which is the
// player's definition of "currently playing".
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.task != nil
}

func (p *Player) Join(ctx context.Context) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	return p.transport.JoinAudio(ctx, p.data)
}

// Start joins the audio channel and begins playback of the restored
// queue.
func (p *Player) Start(ctx context.Context) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	if err := p.transport.JoinAudio(ctx, p.data); err != nil {
		return err
	}

	if err := p.play(ctx); err != nil {
		return err
	}

	return p.persist(ctx)
}

// Enqueue appends media to the queue. If the queue was empty the player
// starts playing it immediately.
func (p *Player) Enqueue(ctx context.Context, media domain.Media) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.mu.Lock()
	wasEmpty := len(p.queue) == 0
	p.queue = append(p.queue, media)
	p.mu.Unlock()

	mediaEnqueued.Inc()

	if wasEmpty {
		if err := p.play(ctx); err != nil {
			return err
		}
	}

	return p.persist(ctx)
}

// EnqueueAt inserts media at index, clamped to the queue bounds.
func (p *Player) EnqueueAt(ctx context.Context, index int, media domain.Media) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.mu.Lock()
	wasEmpty := len(p.queue) == 0
	if index < 0 {
		index = 0
	}
	if index > len(p.queue) {
		index = len(p.queue)
	}
	p.queue = slices.Insert(p.queue, index, media)
	p.mu.Unlock()

	mediaEnqueued.Inc()

	if wasEmpty {
		if err := p.play(ctx); err != nil {
			return err
		}
	}

	return p.persist(ctx)
}

// Play begins playback of the queue head. No-op while already playing or
// when the queue is empty.
func (p *Player) Play(ctx context.Context) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	if err := p.play(ctx); err != nil {
		return err
	}

	return p.persist(ctx)
}

// Stop halts playback, awaits the reconciliation loop's termination and
// resets the playback position. Safe to call when idle.
func (p *Player) Stop(ctx context.Context) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	return p.stop(ctx)
}

// Next stops the current item, drops it from the queue and plays the
// following one.
func (p *Player) Next(ctx context.Context) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	return p.next(ctx)
}

// Pop removes and returns the item at index. Removing the head while it
// plays behaves like Next; any other index splices the item out without
// touching playback.
func (p *Player) Pop(ctx context.Context, index int) (domain.Media, error) {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.mu.Lock()
	if index < 0 || index >= len(p.queue) {
		p.mu.Unlock()
		return domain.Media{}, domain.Userf("nothing in the queue at position %d", index+1)
	}

	media := p.queue[index]
	playingHead := index == 0 && p.task != nil
	if !playingHead {
		p.queue = slices.Delete(p.queue, index, index+1)
	}
	p.mu.Unlock()

	if playingHead {
		if err := p.next(ctx); err != nil {
			return domain.Media{}, err
		}

		return media, nil
	}

	return media, p.persist(ctx)
}

// Clear stops playback and empties the queue.
func (p *Player) Clear(ctx context.Context) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	if err := p.stop(ctx); err != nil {
		return err
	}

	p.mu.Lock()
	p.queue = nil
	p.mu.Unlock()

	return p.persist(ctx)
}

// Leave clears the player and disconnects from the audio channel.
func (p *Player) Leave(ctx context.Context) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	if err := p.stop(ctx); err != nil {
		return err
	}

	p.mu.Lock()
	p.queue = nil
	p.mu.Unlock()

	if err := p.persist(ctx); err != nil {
		return err
	}

	return p.transport.LeaveAudio(ctx, p.data)
}

// play starts transport streaming of the queue head and launches the
// reconciliation loop. Caller holds opMu.
func (p *Player) play(ctx context.Context) error {
	p.mu.Lock()
	if p.task != nil || len(p.queue) == 0 {
		p.mu.Unlock()
		return nil
	}
	head := p.queue[0]
	p.mu.Unlock()

	if err := p.transport.PlayAudio(ctx, head, p.data); err != nil {
		return fmt.Errorf("starting playback: %w", err)
	}

	p.logger.Info().Str("title", head.Title).Msg("playing media")

	loopCtx, cancel := context.WithCancel(context.Background())
	task := &pollTask{cancel: cancel, done: make(chan struct{})}

	p.mu.Lock()
	p.task = task
	p.mu.Unlock()

	go p.pollPlayback(loopCtx, task)

	return nil
}

// stop cancels the loop, resets the position and halts streaming. Caller
// holds opMu.
func (p *Player) stop(ctx context.Context) error {
	p.stopPoll()

	p.mu.Lock()
	p.elapsed = 0
	p.mu.Unlock()

	if err := p.transport.StopAudio(ctx, p.data); err != nil {
		return fmt.Errorf("stopping playback: %w", err)
	}

	return p.persist(ctx)
}

// next is stop + drop head + play. Caller holds opMu.
func (p *Player) next(ctx context.Context) error {
	if err := p.stop(ctx); err != nil {
		return err
	}

	p.mu.Lock()
	if len(p.queue) > 0 {
		p.queue = p.queue[1:]
	}
	p.mu.Unlock()

	if err := p.play(ctx); err != nil {
		return err
	}

	return p.persist(ctx)
}

// stopPoll detaches the live poll task, cancels it and awaits its
// termination. Detaching first means a loop iteration that is already
// past its cancellation check finds itself replaced and backs off without
// running its terminal action.
func (p *Player) stopPoll() {
	p.mu.Lock()
	task := p.task
	p.task = nil
	p.mu.Unlock()

	if task == nil {
		return
	}

	task.cancel()
	<-task.done
}

// pollPlayback is the reconciliation loop: once per interval it polls the
// transport's playback and connection state. A lost connection stops the
// player outright; a track that ended on its own advances the queue. This
// loop is the only source of queue advancement on natural completion.
func (p *Player) pollPlayback(ctx context.Context, task *pollTask) {
	defer close(task.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		playing, playErr := p.transport.IsAudioPlaying(ctx, p.data)
		connected, connErr := p.transport.IsAudioConnected(ctx, p.data)

		// An external Stop may have cancelled us mid-poll; it owns the
		// terminal action then.
		if ctx.Err() != nil {
			return
		}

		if playErr != nil || connErr != nil {
			p.logger.Warn().AnErr("playErr", playErr).AnErr("connErr", connErr).
				Msg("playback poll failed, detaching")
			p.detach(task)
			return
		}

		switch {
		case !connected:
			p.logger.Info().Msg("audio connection lost, stopping player")
			if p.detach(task) {
				if err := p.Stop(context.Background()); err != nil {
					p.logger.Error().Err(err).Msg("stopping after disconnect")
				}
			}
			return
		case !playing:
			p.logger.Debug().Msg("track finished, advancing queue")
			if p.detach(task) {
				if err := p.Next(context.Background()); err != nil {
					p.logger.Error().Err(err).Msg("advancing after track end")
				}
			}
			return
		default:
			p.mu.Lock()
			p.elapsed += p.interval
			p.mu.Unlock()
		}
	}
}

// detach removes task from the player if it is still the live one and
// reports whether it was. A false return means an external caller already
// took the task over.
func (p *Player) detach(task *pollTask) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.task != task {
		return false
	}

	p.task = nil

	return true
}

func (p *Player) persist(ctx context.Context) error {
	if err := p.save(ctx, p); err != nil {
		return fmt.Errorf("saving player state: %w", err)
	}

	return nil
}
