package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

const topicMasteryTable = "topic_mastery"

var topicMasteryColumns = []string{
	"user_id", "topic_key", "topic", "mastery", "sessions_count", "last_studied",
}

type masteryRepo struct {
	db *sql.DB
}

func (r *masteryRepo) GetMastery(ctx context.Context, userID, topicKey string) (*TopicMasteryData, error) {
	query, args := sqlite.Select(topicMasteryColumns...).
		From(sqlite.Table(topicMasteryTable)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("topic_key", topicKey),
		)).
		Query()

	m, err := scanMastery(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (r *masteryRepo) SaveMastery(ctx context.Context, m *TopicMasteryData) error {
	query, args := sqlite.Insert(topicMasteryTable).
		Columns(topicMasteryColumns...).
		Values(m.UserID, m.TopicKey, m.Topic, m.Mastery, m.SessionsCount, toUnix(m.LastStudied)).
		OnConflict(
			entsql.ConflictColumns("user_id", "topic_key"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save topic mastery: %w", err)
	}
	return nil
}

func (r *masteryRepo) ListMastery(ctx context.Context, userID string) ([]TopicMasteryData, error) {
	query, args := sqlite.Select(topicMasteryColumns...).
		From(sqlite.Table(topicMasteryTable)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("topic_key").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query topic mastery: %w", err)
	}
	defer rows.Close()

	var out []TopicMasteryData
	for rows.Next() {
		m, err := scanMastery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func scanMastery(row rowScanner) (*TopicMasteryData, error) {
	var (
		m       TopicMasteryData
		studied int64
	)
	err := row.Scan(&m.UserID, &m.TopicKey, &m.Topic, &m.Mastery, &m.SessionsCount, &studied)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan topic mastery: %w", err)
	}
	m.LastStudied = fromUnix(studied)
	return &m, nil
}
