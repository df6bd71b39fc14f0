// Package memory is a volatile port.Store implementation keeping all rows
// in process-local maps. It is safe for concurrent access and best suited
// for tests and headless setups where persistence across restarts does
// not matter.
package memory

import (
	"context"
	"mediabot/internal/core/port"
	"slices"
	"sync"
)

// Name is the registry key for this store.
const Name = "memory"

type Store struct {
	mu            sync.RWMutex
	conversations map[string]port.Conversation
	players       map[string]port.PlayerRecord
}

// New builds the store. It takes no options.
func New(_ map[string]string) (*Store, error) {
	return &Store{
		conversations: make(map[string]port.Conversation),
		players:       make(map[string]port.PlayerRecord),
	}, nil
}

func (s *Store) Initialize(_ context.Context) error {
	return nil
}

func (s *Store) LoadConversation(_ context.Context, hash string) (*port.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.conversations[hash]
	if !ok {
		return nil, nil
	}

	return cloneConversation(row), nil
}

func (s *Store) SaveConversation(_ context.Context, conversation *port.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conversation.Hash] = *cloneConversation(*conversation)

	return nil
}

func (s *Store) DeleteConversation(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, hash)

	return nil
}

func (s *Store) LoadMediaPlayer(_ context.Context, hash string) (*port.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.players[hash]
	if !ok {
		return nil, nil
	}

	return clonePlayerRecord(row), nil
}

func (s *Store) SaveMediaPlayer(_ context.Context, record *port.PlayerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[record.Hash] = *clonePlayerRecord(*record)

	return nil
}

func (s *Store) DeleteMediaPlayer(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, hash)

	return nil
}

func (s *Store) ListMediaPlayers(_ context.Context) ([]port.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]port.PlayerRecord, 0, len(s.players))
	for _, row := range s.players {
		records = append(records, *clonePlayerRecord(row))
	}

	return records, nil
}

// Rows are cloned on every read and write so callers can never mutate
// stored state through a shared blob slice.
func cloneConversation(row port.Conversation) *port.Conversation {
	row.CommandData = slices.Clone(row.CommandData)
	row.ContextData = slices.Clone(row.ContextData)

	return &row
}

func clonePlayerRecord(row port.PlayerRecord) *port.PlayerRecord {
	row.PlayerData = slices.Clone(row.PlayerData)
	row.ContextData = slices.Clone(row.ContextData)

	return &row
}
