// Package postgres is a port.Store implementation on a PostgreSQL
// connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"mediabot/internal/core/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Name is the registry key for this store.
const Name = "postgres"

type Store struct {
	pool *pgxpool.Pool
}

// New builds the store from config options. url is required and takes any
// libpq-style connection string.
func New(options map[string]string) (*Store, error) {
	url := options["url"]
	if url == "" {
		return nil, fmt.Errorf("postgres: url is required")
	}

	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing connection url: %w", err)
	}

	log.Debug().Msg("postgres store opened")

	return &Store{pool: pool}, nil
}

// Initialize creates the tables if they do not exist. Safe to run on
// every startup.
func (s *Store) Initialize(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS conversations (
			hash         TEXT PRIMARY KEY,
			command_name TEXT NOT NULL,
			command_data JSONB NOT NULL,
			context_data JSONB NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("postgres: creating conversations table: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS media_players (
			hash         TEXT PRIMARY KEY,
			player_data  JSONB NOT NULL,
			context_data JSONB NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("postgres: creating media_players table: %w", err)
	}

	return nil
}

func (s *Store) LoadConversation(ctx context.Context, hash string) (*port.Conversation, error) {
	row := port.Conversation{Hash: hash}
	err := s.pool.QueryRow(ctx,
		`SELECT command_name, command_data, context_data FROM conversations WHERE hash = $1`,
		hash).Scan(&row.CommandName, &row.CommandData, &row.ContextData)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: loading conversation: %w", err)
	}

	return &row, nil
}

func (s *Store) SaveConversation(ctx context.Context, conversation *port.Conversation) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO conversations (hash, command_name, command_data, context_data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (hash) DO UPDATE SET
			command_name = EXCLUDED.command_name,
			command_data = EXCLUDED.command_data,
			context_data = EXCLUDED.context_data`,
		conversation.Hash, conversation.CommandName,
		conversation.CommandData, conversation.ContextData)
	if err != nil {
		return fmt.Errorf("postgres: saving conversation: %w", err)
	}

	return nil
}

func (s *Store) DeleteConversation(ctx context.Context, hash string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM conversations WHERE hash = $1`, hash); err != nil {
		return fmt.Errorf("postgres: deleting conversation: %w", err)
	}

	return nil
}

func (s *Store) LoadMediaPlayer(ctx context.Context, hash string) (*port.PlayerRecord, error) {
	row := port.PlayerRecord{Hash: hash}
	err := s.pool.QueryRow(ctx,
		`SELECT player_data, context_data FROM media_players WHERE hash = $1`,
		hash).Scan(&row.PlayerData, &row.ContextData)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: loading media player: %w", err)
	}

	return &row, nil
}

func (s *Store) SaveMediaPlayer(ctx context.Context, record *port.PlayerRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO media_players (hash, player_data, context_data)
		VALUES ($1, $2, $3)
		ON CONFLICT (hash) DO UPDATE SET
			player_data = EXCLUDED.player_data,
			context_data = EXCLUDED.context_data`,
		record.Hash, record.PlayerData, record.ContextData)
	if err != nil {
		return fmt.Errorf("postgres: saving media player: %w", err)
	}

	return nil
}

func (s *Store) DeleteMediaPlayer(ctx context.Context, hash string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM media_players WHERE hash = $1`, hash); err != nil {
		return fmt.Errorf("postgres: deleting media player: %w", err)
	}

	return nil
}

func (s *Store) ListMediaPlayers(ctx context.Context) ([]port.PlayerRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT hash, player_data, context_data FROM media_players`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing media players: %w", err)
	}
	defer rows.Close()

	var records []port.PlayerRecord
	for rows.Next() {
		var record port.PlayerRecord
		if err := rows.Scan(&record.Hash, &record.PlayerData, &record.ContextData); err != nil {
			return nil, fmt.Errorf("postgres: scanning media player row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: listing media players: %w", err)
	}

	return records, nil
}
