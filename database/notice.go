package database

import (
	"database/sql"
	"fmt"
	"time"
)

// NoticeStore persists the message ID of the last delivered report per
// config name. One row per config, replaced on every run; no history kept.
type NoticeStore struct {
	db *sql.DB
}

// NewNoticeStore wraps the shared bot database.
func NewNoticeStore(db *sql.DB) *NoticeStore {
	return &NoticeStore{db: db}
}

// Last returns the stored message ID, or "" when no report has been
// delivered for this config yet.
func (s *NoticeStore) Last(configName string) (string, error) {
	var messageID string
	err := s.db.QueryRow("SELECT message_id FROM notice_ids WHERE config_name = ?", configName).Scan(&messageID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query notice id for %s: %w", configName, err)
	}
	return messageID, nil
}

// Replace overwrites the stored message ID for a config name.
func (s *NoticeStore) Replace(configName, messageID string) error {
	query := `INSERT OR REPLACE INTO notice_ids (config_name, message_id, updated_at) VALUES (?, ?, ?)`
	stmt, err := s.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for replacing notice id: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(configName, messageID, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to replace notice id for %s: %w", configName, err)
	}
	return nil
}
