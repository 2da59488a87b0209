package database

import (
	"database/sql"
	"fmt"
	"time"
)

// BumpStore persists when each pinned thread was last kept alive, so the
// bot does not re-bump threads it refreshed recently.
type BumpStore struct {
	db *sql.DB
}

// NewBumpStore wraps the shared bot database.
func NewBumpStore(db *sql.DB) *BumpStore {
	return &BumpStore{db: db}
}

// Last returns the last recorded bump time in UTC, or the zero time when the
// thread has never been bumped.
func (s *BumpStore) Last(threadID string) (time.Time, error) {
	var unix int64
	err := s.db.QueryRow("SELECT last_bumped_utc FROM pinned_bumps WHERE thread_id = ?", threadID).Scan(&unix)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query bump record for thread %s: %w", threadID, err)
	}
	return time.Unix(unix, 0).UTC(), nil
}

// Record stores a bump time, overwriting any previous record.
func (s *BumpStore) Record(threadID string, at time.Time) error {
	query := `INSERT OR REPLACE INTO pinned_bumps (thread_id, last_bumped_utc) VALUES (?, ?)`
	stmt, err := s.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for recording bump: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(threadID, at.UTC().Unix()); err != nil {
		return fmt.Errorf("failed to record bump for thread %s: %w", threadID, err)
	}
	return nil
}

// Prune deletes bump records older than the cutoff. Called opportunistically
// to keep the table from growing with threads that were since unpinned.
func (s *BumpStore) Prune(before time.Time) error {
	if _, err := s.db.Exec("DELETE FROM pinned_bumps WHERE last_bumped_utc < ?", before.UTC().Unix()); err != nil {
		return fmt.Errorf("failed to prune bump records: %w", err)
	}
	return nil
}
