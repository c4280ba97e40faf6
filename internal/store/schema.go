package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Timestamps are stored as UTC unix nanoseconds so they round-trip exactly.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS quiz_sessions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		completed  INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL,
		state      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS quiz_sessions_open_updated ON quiz_sessions (completed, updated_at)`,
	`CREATE TABLE IF NOT EXISTS quiz_history (
		id                 TEXT PRIMARY KEY,
		user_id            TEXT NOT NULL,
		course_id          TEXT NOT NULL DEFAULT '',
		topic              TEXT NOT NULL,
		topic_key          TEXT NOT NULL,
		base_difficulty    TEXT NOT NULL,
		score_percent      INTEGER NOT NULL,
		correct_count      INTEGER NOT NULL,
		total_questions    INTEGER NOT NULL,
		time_spent_seconds INTEGER NOT NULL,
		created_at         INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS quiz_history_user_created ON quiz_history (user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS topic_mastery (
		user_id        TEXT NOT NULL,
		topic_key      TEXT NOT NULL,
		topic          TEXT NOT NULL,
		mastery        INTEGER NOT NULL,
		sessions_count INTEGER NOT NULL,
		last_studied   INTEGER NOT NULL,
		PRIMARY KEY (user_id, topic_key)
	)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL,
		timestamp     INTEGER NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		success       INTEGER NOT NULL,
		error_kind    TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		request_body  TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS llm_request_events_sequence ON llm_request_events (sequence)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
