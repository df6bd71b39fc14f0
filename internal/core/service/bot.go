package service

import (
	"context"
	"errors"
	"fmt"
	"mediabot/internal/core/domain"
	"mediabot/internal/core/port"
	"mediabot/internal/core/registry"
	"mediabot/internal/core/state"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type BotOption func(*Bot)

// WithPlayerPollInterval overrides the reconciliation interval of every
// player the bot creates.
func WithPlayerPollInterval(interval time.Duration) BotOption {
	return func(b *Bot) {
		b.pollInterval = interval
	}
}

// WithRateLimit caps inbound messages per conversation. The default is
// unlimited.
func WithRateLimit(limit rate.Limit, burst int) BotOption {
	return func(b *Bot) {
		b.gate = newRateGate(limit, burst)
	}
}

// Bot is the orchestrator: it receives messages from the transport,
// resolves them to command conversations, enforces the persist-or-delete
// contract against the store, and hands out media queue players.
type Bot struct {
	transport    port.Transport
	store        port.Store
	integrations port.Integrations
	commands     *registry.Registry[port.CommandDefinition]
	infos        []port.CommandInfo

	pollInterval time.Duration
	gate         *rateGate

	locks sync.Map

	playersMu sync.Mutex
	players   map[string]*Player
}

// NewBot validates the wiring and hooks the bot into the transport. Every
// integration a registered command requires must be present in
// integrations; a missing one is a configuration error.
func NewBot(transport port.Transport, store port.Store, integrations port.Integrations,
	commands *registry.Registry[port.CommandDefinition], opts ...BotOption,
) (*Bot, error) {
	b := &Bot{
		transport:    transport,
		store:        store,
		integrations: integrations,
		commands:     commands,
		gate:         newRateGate(rate.Inf, 0),
		players:      make(map[string]*Player),
	}

	for _, opt := range opts {
		opt(b)
	}

	for _, name := range commands.Names() {
		def, err := commands.Get(name)
		if err != nil {
			return nil, err
		}

		for _, required := range def.Requires {
			if _, ok := integrations[required]; !ok {
				return nil, fmt.Errorf("command %q requires integration %q: %w",
					def.Name, required, domain.ErrNotRegistered)
			}
		}

		b.infos = append(b.infos, port.CommandInfo{Name: def.Name, Help: def.Help})
	}

	transport.SetMessageHandler(b.HandleMessage)
	transport.SetReadyHandler(b.handleReady)

	return b, nil
}

// Start prepares the store and runs the transport listener until ctx is
// cancelled.
func (b *Bot) Start(ctx context.Context) error {
	log.Info().Int("commands", b.commands.Len()).Int("integrations", len(b.integrations)).
		Msg("starting bot")

	if err := b.store.Initialize(ctx); err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	go b.gate.run(ctx)

	return b.transport.RunListener(ctx)
}

// HandleMessage drives one inbound message through the command
// conversation state machine. Messages for the same conversation hash are
// handled strictly one at a time; different conversations proceed
// concurrently.
func (b *Bot) HandleMessage(ctx context.Context, message string, commandData any) {
	correlationID := uuid.Must(uuid.NewV4()).String()
	hash := state.Hash(commandData)
	logger := log.With().Str("correlationId", correlationID).Str("hash", hash).Logger()

	if !b.gate.allow(hash) {
		messagesRateLimited.Inc()
		logger.Warn().Msg("conversation rate limited, dropping message")
		return
	}

	lock := b.lockFor(hash)
	lock.Lock()
	defer lock.Unlock()

	cc := &port.Context{
		Transport: b.transport,
		Data:      commandData,
		Commands:  b.infos,
		Players:   b,
	}

	name, result := b.dispatch(ctx, logger, message, cc)
	messagesProcessed.WithLabelValues(name, result).Inc()
}

// dispatch resolves, runs and settles one conversation turn, returning
// the command name and outcome label for metrics.
func (b *Bot) dispatch(ctx context.Context, logger zerolog.Logger, message string, cc *port.Context) (string, string) {
	hash := cc.Hash()

	def, cmd, err := b.resolve(ctx, logger, message, cc)
	if err != nil {
		b.fail(ctx, logger, cc, err)

		name := def.Name
		if name == "" {
			name = "unknown"
		}

		return name, "failed"
	}

	logger = logger.With().Str("command", def.Name).Logger()
	logger.Debug().Msg("processing message")

	keep, err := b.run(ctx, cmd, message, cc, b.depsFor(def))
	if err != nil {
		b.fail(ctx, logger, cc, err)
		return def.Name, "failed"
	}

	if !keep {
		if err := b.store.DeleteConversation(ctx, hash); err != nil {
			b.fail(ctx, logger, cc, fmt.Errorf("clearing conversation: %w", err))
			return def.Name, "failed"
		}

		return def.Name, "completed"
	}

	commandBlob, err := state.Persist(cmd.Data())
	if err == nil {
		var contextBlob []byte
		contextBlob, err = state.Persist(cc.Data)
		if err == nil {
			err = b.store.SaveConversation(ctx, &port.Conversation{
				Hash:        hash,
				CommandName: def.Name,
				CommandData: commandBlob,
				ContextData: contextBlob,
			})
		}
	}
	if err != nil {
		b.fail(ctx, logger, cc, fmt.Errorf("persisting conversation: %w", err))
		return def.Name, "failed"
	}

	return def.Name, "continued"
}

// resolve finds the conversation for the message: the stored one when its
// hash is known, otherwise a fresh command named by the message's first
// token. Stored records that fail to decode are reported and treated as
// missing.
func (b *Bot) resolve(ctx context.Context, logger zerolog.Logger, message string, cc *port.Context) (port.CommandDefinition, port.Command, error) {
	stored, err := b.store.LoadConversation(ctx, cc.Hash())
	if err != nil {
		return port.CommandDefinition{}, nil, fmt.Errorf("loading conversation: %w", err)
	}

	if stored != nil {
		def, cmd, err := b.restore(logger, stored, cc)
		if err != nil {
			return def, nil, err
		}
		if cmd != nil {
			return def, cmd, nil
		}
	}

	first, _ := domain.SplitCommand(message)

	def, err := b.commands.Get(first)
	if err != nil {
		// The token is user input; keep it out of the definition so it
		// cannot end up as a metric label.
		return port.CommandDefinition{}, nil,
			fmt.Errorf("%w: %q", domain.ErrCommandNotFound, first)
	}

	return def, def.New(), nil
}

// restore rebuilds the stored conversation's command. A nil command with
// nil error means the stored record was unusable and resolution should
// fall through to fresh parsing.
func (b *Bot) restore(logger zerolog.Logger, stored *port.Conversation, cc *port.Context) (port.CommandDefinition, port.Command, error) {
	def, err := b.commands.Get(stored.CommandName)
	if err != nil {
		return port.CommandDefinition{Name: stored.CommandName}, nil,
			fmt.Errorf("stored conversation references %q: %w", stored.CommandName, err)
	}

	cmd := def.New()

	if err := state.Restore(cmd.Data(), stored.CommandData); err != nil {
		logger.Warn().Err(err).Str("command", stored.CommandName).
			Msg("discarding malformed conversation state")
		return port.CommandDefinition{}, nil, nil
	}

	if err := state.Restore(cc.Data, stored.ContextData); err != nil {
		logger.Warn().Err(err).Str("command", stored.CommandName).
			Msg("discarding malformed conversation context")
		return port.CommandDefinition{}, nil, nil
	}

	return def, cmd, nil
}

// run executes one Process call, converting a panic into an error so a
// misbehaving command never takes the listener down.
func (b *Bot) run(ctx context.Context, cmd port.Command, message string, cc *port.Context, deps port.Integrations) (keep bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command panicked: %v", r)
		}
	}()

	return cmd.Process(ctx, message, cc, deps)
}

// fail is the per-conversation error boundary: the error is rendered to
// the user and the conversation's stored state is removed.
func (b *Bot) fail(ctx context.Context, logger zerolog.Logger, cc *port.Context, err error) {
	logger.Error().Err(err).Msg("conversation failed")

	content := fmt.Sprintf("{cb}command failed: %v{cb}", err)

	var userErr *domain.UserError
	if errors.As(err, &userErr) {
		content = userErr.Message
	}

	if sendErr := cc.SendResponse(ctx, content); sendErr != nil {
		logger.Error().Err(sendErr).Msg("sending failure response")
	}

	if delErr := b.store.DeleteConversation(ctx, cc.Hash()); delErr != nil {
		logger.Error().Err(delErr).Msg("clearing conversation after failure")
	}
}

func (b *Bot) depsFor(def port.CommandDefinition) port.Integrations {
	deps := make(port.Integrations, len(def.Requires))
	for _, name := range def.Requires {
		deps[name] = b.integrations[name]
	}

	return deps
}

func (b *Bot) lockFor(hash string) *sync.Mutex {
	lock, _ := b.locks.LoadOrStore(hash, &sync.Mutex{})

	return lock.(*sync.Mutex)
}

// Player returns the media queue player for playerData, creating and
// hydrating it on first use. At most one player exists per identity hash
// for the life of the process.
func (b *Bot) Player(ctx context.Context, playerData any) (port.MediaController, error) {
	hash := state.Hash(playerData)

	b.playersMu.Lock()
	defer b.playersMu.Unlock()

	if player, ok := b.players[hash]; ok {
		return player, nil
	}

	opts := []PlayerOption{WithSaveFunc(b.savePlayer)}
	if b.pollInterval > 0 {
		opts = append(opts, WithPollInterval(b.pollInterval))
	}

	record, err := b.store.LoadMediaPlayer(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("loading media player: %w", err)
	}

	if record != nil {
		var restored domain.PlayerState
		if err := state.Restore(&restored, record.PlayerData); err != nil {
			log.Warn().Err(err).Str("hash", hash).Msg("discarding malformed player state")
		} else {
			if err := state.Restore(playerData, record.ContextData); err != nil {
				log.Warn().Err(err).Str("hash", hash).Msg("discarding malformed player context")
			}
			opts = append(opts, WithPlayerState(restored))
		}
	}

	player := NewPlayer(b.transport, playerData, opts...)
	b.players[hash] = player
	activePlayers.Set(float64(len(b.players)))

	return player, nil
}

// savePlayer is the persistence callback installed on every player: rows
// with an empty queue are deleted, everything else is upserted.
func (b *Bot) savePlayer(ctx context.Context, player *Player) error {
	hash := state.Hash(player.Data())
	queue := player.Queue()

	if len(queue) == 0 {
		if err := b.store.DeleteMediaPlayer(ctx, hash); err != nil {
			return fmt.Errorf("deleting media player row: %w", err)
		}

		return nil
	}

	playerBlob, err := state.Persist(&domain.PlayerState{Queue: queue, Elapsed: player.Elapsed()})
	if err != nil {
		return fmt.Errorf("encoding player state: %w", err)
	}

	contextBlob, err := state.Persist(player.Data())
	if err != nil {
		return fmt.Errorf("encoding player context: %w", err)
	}

	if err := b.store.SaveMediaPlayer(ctx, &port.PlayerRecord{
		Hash:        hash,
		PlayerData:  playerBlob,
		ContextData: contextBlob,
	}); err != nil {
		return fmt.Errorf("saving media player row: %w", err)
	}

	return nil
}

// handleReady restores every persisted media player and resumes playback,
// so a restart does not silence channels that had queues.
func (b *Bot) handleReady(ctx context.Context) {
	records, err := b.store.ListMediaPlayers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("listing media players for restore")
		return
	}

	for _, record := range records {
		playerData := b.transport.NewPlayerData()
		if err := state.Restore(playerData, record.ContextData); err != nil {
			log.Warn().Err(err).Str("hash", record.Hash).Msg("skipping malformed player row")
			continue
		}

		player, err := b.Player(ctx, playerData)
		if err != nil {
			log.Error().Err(err).Str("hash", record.Hash).Msg("restoring media player")
			continue
		}

		if err := player.Start(ctx); err != nil {
			log.Error().Err(err).Str("hash", record.Hash).Msg("resuming restored player")
			continue
		}

		log.Info().Str("hash", record.Hash).Msg("restored media player")
	}
}
