package port

import "context"

// Conversation is one persisted command conversation row.
type Conversation struct {
	Hash        string
	CommandName string
	CommandData []byte
	ContextData []byte
}

// PlayerRecord is one persisted media queue player row.
type PlayerRecord struct {
	Hash        string
	PlayerData  []byte
	ContextData []byte
}

type Store interface {
	// Initialize prepares the schema. Safe to call on every startup.
	Initialize(ctx context.Context) error
	// LoadConversation returns the row stored under hash, or nil when none
	// exists.
	LoadConversation(ctx context.Context, hash string) (*Conversation, error)
	// SaveConversation inserts or overwrites the row keyed by its hash.
	SaveConversation(ctx context.Context, conversation *Conversation) error
	// DeleteConversation removes the row. Deleting an absent row is not an
	// error.
	DeleteConversation(ctx context.Context, hash string) error
	// LoadMediaPlayer returns the row stored under hash, or nil when none
	// exists.
	LoadMediaPlayer(ctx context.Context, hash string) (*PlayerRecord, error)
	// SaveMediaPlayer inserts or overwrites the row keyed by its hash.
	SaveMediaPlayer(ctx context.Context, record *PlayerRecord) error
	// DeleteMediaPlayer removes the row. Deleting an absent row is not an
	// error.
	DeleteMediaPlayer(ctx context.Context, hash string) error
	// ListMediaPlayers returns every persisted player row, used to restore
	// playback after a restart.
	ListMediaPlayers(ctx context.Context) ([]PlayerRecord, error)
}
