package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const (
	quizSessionsTable = "quiz_sessions"
	quizHistoryTable  = "quiz_history"
)

type quizSessionRepo struct {
	db *sql.DB
}

func (r *quizSessionRepo) GetSession(ctx context.Context, id string) (*QuizSessionRecord, error) {
	query, args := sqlite.Select("id", "user_id", "completed", "updated_at", "state").
		From(sqlite.Table(quizSessionsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	var (
		rec     QuizSessionRecord
		updated int64
		state   string
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&rec.ID, &rec.UserID, &rec.Completed, &updated, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz session: %w", err)
	}
	rec.UpdatedAt = fromUnix(updated)
	rec.State = []byte(state)
	return &rec, nil
}

func (r *quizSessionRepo) SaveSession(ctx context.Context, rec *QuizSessionRecord) error {
	query, args := sqlite.Insert(quizSessionsTable).
		Columns("id", "user_id", "completed", "updated_at", "state").
		Values(rec.ID, rec.UserID, rec.Completed, toUnix(rec.UpdatedAt), string(rec.State)).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save quiz session: %w", err)
	}
	return nil
}

func (r *quizSessionRepo) StaleSessionIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
	query, args := sqlite.Select("id").
		From(sqlite.Table(quizSessionsTable)).
		Where(staleBefore(cutoff)).
		OrderBy("id").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stale quiz sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan stale quiz session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *quizSessionRepo) DeleteStaleSession(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	query, args := sqlite.Delete(quizSessionsTable).
		Where(entsql.And(entsql.EQ("id", id), staleBefore(cutoff))).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete stale quiz session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func staleBefore(cutoff time.Time) *entsql.Predicate {
	return entsql.And(
		entsql.EQ("completed", false),
		entsql.LT("updated_at", toUnix(cutoff)),
	)
}

type quizHistoryRepo struct {
	db *sql.DB
}

var quizHistoryColumns = []string{
	"id", "user_id", "course_id", "topic", "topic_key", "base_difficulty",
	"score_percent", "correct_count", "total_questions", "time_spent_seconds", "created_at",
}

func (r *quizHistoryRepo) AppendHistory(ctx context.Context, e QuizHistoryEntryData) error {
	query, args := sqlite.Insert(quizHistoryTable).
		Columns(quizHistoryColumns...).
		Values(
			e.ID, e.UserID, e.CourseID, e.Topic, e.TopicKey, e.BaseDifficulty,
			e.ScorePercent, e.CorrectCount, e.TotalQuestions, e.TimeSpentSeconds,
			toUnix(e.CreatedAt),
		).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.DoNothing(),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append quiz history: %w", err)
	}
	return nil
}

func (r *quizHistoryRepo) ListHistory(ctx context.Context, userID string) ([]QuizHistoryEntryData, error) {
	query, args := sqlite.Select(quizHistoryColumns...).
		From(sqlite.Table(quizHistoryTable)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query quiz history: %w", err)
	}
	defer rows.Close()

	var out []QuizHistoryEntryData
	for rows.Next() {
		var (
			e       QuizHistoryEntryData
			created int64
		)
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.CourseID, &e.Topic, &e.TopicKey, &e.BaseDifficulty,
			&e.ScorePercent, &e.CorrectCount, &e.TotalQuestions, &e.TimeSpentSeconds,
			&created,
		); err != nil {
			return nil, fmt.Errorf("scan quiz history: %w", err)
		}
		e.CreatedAt = fromUnix(created)
		out = append(out, e)
	}
	return out, rows.Err()
}
