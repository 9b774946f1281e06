package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DeckRecord is the durable trace of a finished deck. Sessions expire and
// jobs live in memory; this table is what survives a restart.
type DeckRecord struct {
	ID           string    `json:"id" gorm:"type:varchar(36);primary_key"`
	JobID        string    `json:"job_id" gorm:"type:varchar(36);not null;index"`
	SessionID    string    `json:"session_id" gorm:"type:varchar(36);not null;index"`
	DeckName     string    `json:"deck_name" gorm:"type:varchar(255);not null"`
	Path         string    `json:"path" gorm:"type:text;not null"`
	CardCount    int       `json:"card_count" gorm:"not null"`
	BuildSeconds float64   `json:"build_seconds"`
	ClipSeconds  float64   `json:"clip_seconds"`
	Error        string    `json:"error,omitempty" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (DeckRecord) TableName() string {
	return "deck_records"
}

func (r *DeckRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Store keeps deck history in SQLite by default, PostgreSQL when the DSN
// says so.
type Store struct {
	db *gorm.DB
}

func Open(dsn string) (*Store, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open deck store: %w", err)
	}

	if err := db.AutoMigrate(&DeckRecord{}); err != nil {
		return nil, fmt.Errorf("migrate deck store: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) RecordDeck(rec *DeckRecord) error {
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("record deck: %w", err)
	}
	return nil
}

// ListDecks returns history newest-first. limit <= 0 returns everything.
func (s *Store) ListDecks(limit int) ([]DeckRecord, error) {
	var recs []DeckRecord
	q := s.db.Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	return recs, nil
}

// GetDeck returns nil without error when the id is unknown.
func (s *Store) GetDeck(id string) (*DeckRecord, error) {
	var rec DeckRecord
	err := s.db.First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get deck: %w", err)
	}
	return &rec, nil
}

// DecksForSession returns the decks built in one session, newest-first.
func (s *Store) DecksForSession(sessionID string) ([]DeckRecord, error) {
	var recs []DeckRecord
	err := s.db.Where("session_id = ?", sessionID).Order("created_at DESC").Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list session decks: %w", err)
	}
	return recs, nil
}
