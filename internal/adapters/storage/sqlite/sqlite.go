// Package sqlite is a port.Store implementation backed by a SQLite file
// through GORM and the pure-Go driver, so the binary stays cgo-free.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"mediabot/internal/core/port"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Name is the registry key for this store.
const Name = "sqlite"

// Conversation is the persisted form of one command conversation, keyed
// by the context's identity hash.
type Conversation struct {
	Hash        string `gorm:"primaryKey"`
	CommandName string `gorm:"not null"`
	CommandData []byte `gorm:"not null"`
	ContextData []byte `gorm:"not null"`
}

// MediaPlayer is the persisted form of one media queue player, keyed by
// the player context's identity hash.
type MediaPlayer struct {
	Hash        string `gorm:"primaryKey"`
	PlayerData  []byte `gorm:"not null"`
	ContextData []byte `gorm:"not null"`
}

type Store struct {
	db *gorm.DB
}

// New opens (or creates) the database file named by the path option and
// applies PRAGMAs and pool limits. The schema is set up later through
// Initialize.
func New(options map[string]string) (*Store, error) {
	path := options["path"]
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	// Fail early when the parent directory is missing instead of
	// surfacing the driver's opaque "out of memory (14)".
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening %q: %w", path, err)
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA busy_timeout=5000;")

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	log.Debug().Str("path", path).Msg("sqlite store opened")

	return &Store{db: db}, nil
}

// Initialize migrates the schema. Safe to run on every startup.
func (s *Store) Initialize(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Conversation{}, &MediaPlayer{}); err != nil {
		return fmt.Errorf("sqlite: migrating schema: %w", err)
	}

	return nil
}

func (s *Store) LoadConversation(ctx context.Context, hash string) (*port.Conversation, error) {
	var row Conversation
	err := s.db.WithContext(ctx).First(&row, "hash = ?", hash).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading conversation: %w", err)
	}

	return &port.Conversation{
		Hash:        row.Hash,
		CommandName: row.CommandName,
		CommandData: row.CommandData,
		ContextData: row.ContextData,
	}, nil
}

func (s *Store) SaveConversation(ctx context.Context, conversation *port.Conversation) error {
	row := Conversation{
		Hash:        conversation.Hash,
		CommandName: conversation.CommandName,
		CommandData: conversation.CommandData,
		ContextData: conversation.ContextData,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "hash"}}, UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("sqlite: saving conversation: %w", err)
	}

	return nil
}

func (s *Store) DeleteConversation(ctx context.Context, hash string) error {
	if err := s.db.WithContext(ctx).Delete(&Conversation{}, "hash = ?", hash).Error; err != nil {
		return fmt.Errorf("sqlite: deleting conversation: %w", err)
	}

	return nil
}

func (s *Store) LoadMediaPlayer(ctx context.Context, hash string) (*port.PlayerRecord, error) {
	var row MediaPlayer
	err := s.db.WithContext(ctx).First(&row, "hash = ?", hash).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading media player: %w", err)
	}

	return &port.PlayerRecord{
		Hash:        row.Hash,
		PlayerData:  row.PlayerData,
		ContextData: row.ContextData,
	}, nil
}

func (s *Store) SaveMediaPlayer(ctx context.Context, record *port.PlayerRecord) error {
	row := MediaPlayer{
		Hash:        record.Hash,
		PlayerData:  record.PlayerData,
		ContextData: record.ContextData,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "hash"}}, UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("sqlite: saving media player: %w", err)
	}

	return nil
}

func (s *Store) DeleteMediaPlayer(ctx context.Context, hash string) error {
	if err := s.db.WithContext(ctx).Delete(&MediaPlayer{}, "hash = ?", hash).Error; err != nil {
		return fmt.Errorf("sqlite: deleting media player: %w", err)
	}

	return nil
}

func (s *Store) ListMediaPlayers(ctx context.Context) ([]port.PlayerRecord, error) {
	var rows []MediaPlayer
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sqlite: listing media players: %w", err)
	}

	records := make([]port.PlayerRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, port.PlayerRecord{
			Hash:        row.Hash,
			PlayerData:  row.PlayerData,
			ContextData: row.ContextData,
		})
	}

	return records, nil
}
