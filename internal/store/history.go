package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/voice"
)

// DefaultHistoryLimit bounds history listings when no limit is given.
const DefaultHistoryLimit = 50

// Entry is one recorded utterance.
type Entry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Kind      string    `json:"kind"`
	Matched   []string  `json:"matched"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryRepository records transcribed commands and dictations.
type HistoryRepository struct {
	db *sql.DB
}

// History returns the history repository for this store.
func (s *Store) History() *HistoryRepository {
	return &HistoryRepository{db: s.db}
}

// RecordUtterance stores u. It satisfies voice.HistoryRecorder.
func (r *HistoryRepository) RecordUtterance(ctx context.Context, u voice.Utterance) error {
	matched := u.Matched
	if matched == nil {
		matched = []string{}
	}
	data, err := json.Marshal(matched)
	if err != nil {
		return fmt.Errorf("marshal matched phrases: %w", err)
	}

	at := u.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO history (id, text, kind, matched, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), u.Text, u.Kind, string(data), at,
	)
	return err
}

// Recent returns up to limit entries, newest first.
func (r *HistoryRepository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, text, kind, matched, created_at FROM history
		 ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var matched string
		if err := rows.Scan(&e.ID, &e.Text, &e.Kind, &matched, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(matched), &e.Matched); err != nil {
			return nil, fmt.Errorf("decode matched phrases for %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes all but the newest keep entries and returns how many were removed.
func (r *HistoryRepository) Prune(ctx context.Context, keep int) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM history WHERE id NOT IN (
			SELECT id FROM history ORDER BY created_at DESC LIMIT ?
		)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
