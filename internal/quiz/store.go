// Package quiz runs adaptive multiple-choice quiz sessions.
package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/tutorgate/internal/lockmap"
	"github.com/abhisek/tutorgate/internal/logging"
	"github.com/abhisek/tutorgate/internal/store"
	"github.com/abhisek/tutorgate/internal/topic"
)

// MasteryDelta bounds the mastery credit of a single quiz.
const (
	MinMasteryDelta = 1
	MaxMasteryDelta = 8
)

// MasteryUpdater applies a mastery delta. mastery.Tracker implements it.
type MasteryUpdater interface {
	Update(ctx context.Context, userID, topic string, delta int) (store.TopicMasteryData, error)
}

// Options configures a Store.
type Options struct {
	Bank      *Bank
	Generator *Generator // nil disables AI sessions
	Mastery   MasteryUpdater
	Sessions  store.QuizSessionRepo
	History   store.QuizHistoryRepo
	Log       *logging.Logger
}

// Store owns quiz session lifecycle. Operations on the same session are
// serialized.
type Store struct {
	bank      *Bank
	generator *Generator
	mastery   MasteryUpdater
	sessions  store.QuizSessionRepo
	history   store.QuizHistoryRepo
	log       *logging.Logger
	locks     lockmap.Map

	now  func() time.Time
	pick func(n int) int
}

// NewStore creates a Store.
func NewStore(opts Options) (*Store, error) {
	if opts.Bank == nil {
		return nil, errors.New("quiz: question bank is required")
	}
	if opts.Mastery == nil || opts.Sessions == nil || opts.History == nil {
		return nil, errors.New("quiz: mastery, session and history repositories are required")
	}
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}
	return &Store{
		bank:      opts.Bank,
		generator: opts.Generator,
		mastery:   opts.Mastery,
		sessions:  opts.Sessions,
		history:   opts.History,
		log:       log,
		now:       time.Now,
		pick:      rand.IntN,
	}, nil
}

// Create starts a session and selects its first question.
func (st *Store) Create(ctx context.Context, in StartInput) (*StartResult, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, ErrMissingUser
	}
	name := strings.TrimSpace(in.Topic)
	key := topic.Key(name)
	if key == "" {
		return nil, ErrMissingTopic
	}
	d, err := ParseDifficulty(in.Difficulty)
	if err != nil {
		return nil, err
	}

	now := st.now().UTC()
	s := &Session{
		ID:                uuid.NewString(),
		UserID:            in.UserID,
		CourseID:          in.CourseID,
		Topic:             name,
		TopicKey:          key,
		TargetCount:       clamp(in.QuestionCount, MinQuestions, MaxQuestions),
		BaseDifficulty:    d,
		CurrentDifficulty: d,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if in.UseAI {
		if st.generator == nil {
			return nil, ErrAIUnavailable
		}
		pool, err := st.generator.Generate(ctx, GenerateInput{
			Topic:      name,
			TopicKey:   key,
			Count:      s.TargetCount,
			Difficulty: d,
			Keys:       in.Keys,
		})
		if err != nil {
			return nil, err
		}
		s.Pool = pool
	}

	q, err := s.selectNext(ctx, st.sourceFor(s), st.pick)
	if err != nil {
		return nil, fmt.Errorf("select question: %w", err)
	}
	if q == nil {
		return nil, ErrNoQuestions
	}

	if err := st.save(ctx, s); err != nil {
		return nil, err
	}
	st.log.Info("quiz started", "session_id", s.ID, "user_id", s.UserID, "topic", key,
		"difficulty", string(d), "target", s.TargetCount, "ai", in.UseAI)

	return &StartResult{
		SessionID:      s.ID,
		Topic:          s.Topic,
		BaseDifficulty: s.BaseDifficulty,
		TotalQuestions: s.TargetCount,
		Question:       q.Public(),
		Progress:       s.Progress(),
	}, nil
}

// Submit records the answer to the pending question, adapts the difficulty
// and selects the next question. Once the target count is reached no next
// question is returned and the session waits for Finalize. When the topic
// runs out of questions first, the session completes early.
func (st *Store) Submit(ctx context.Context, in AnswerInput) (*AnswerResult, error) {
	unlock := st.locks.Lock(in.SessionID)
	defer unlock()

	s, err := st.load(ctx, in.SessionID, in.UserID)
	if err != nil {
		return nil, err
	}
	if s.Completed {
		return nil, ErrAlreadyCompleted
	}
	if s.PendingQuestionID == "" || in.QuestionID != s.PendingQuestionID {
		return nil, ErrQuestionMismatch
	}
	src := st.sourceFor(s)
	q, ok := src.Lookup(in.QuestionID)
	if !ok || q.TopicKey != s.TopicKey {
		return nil, ErrQuestionMismatch
	}

	selected := NoAnswer
	if in.SelectedIndex != nil && *in.SelectedIndex >= 0 && *in.SelectedIndex < len(q.Options) {
		selected = *in.SelectedIndex
	}
	correct := selected == q.CorrectIndex

	s.Items = append(s.Items, AttemptItem{
		QuestionID:    q.ID,
		Difficulty:    q.Difficulty,
		SelectedIndex: selected,
		Correct:       correct,
		CorrectIndex:  q.CorrectIndex,
		Explanation:   q.Explanation,
	})
	s.CurrentIndex++
	s.PendingQuestionID = ""
	s.CurrentDifficulty = s.CurrentDifficulty.Adapt(correct)

	var next *Question
	if s.CurrentIndex < s.TargetCount {
		next, err = s.selectNext(ctx, src, st.pick)
		if err != nil {
			return nil, fmt.Errorf("select question: %w", err)
		}
		if next == nil {
			s.Completed = true
			s.EndedEarly = true
		}
	}
	s.UpdatedAt = st.now().UTC()

	if err := st.save(ctx, s); err != nil {
		return nil, err
	}

	res := &AnswerResult{
		Correct:           correct,
		CorrectIndex:      q.CorrectIndex,
		Explanation:       q.Explanation,
		Progress:          s.Progress(),
		UpdatedDifficulty: s.CurrentDifficulty,
		EndedEarly:        s.EndedEarly,
	}
	if next != nil {
		res.NextQuestion = next.Public()
	}
	return res, nil
}

// Finalize scores the session, applies the mastery delta once and appends
// the history entry once. Later calls return the stored result unchanged.
//
// The result is saved before mastery and history are touched, and each of
// those steps is marked on the session once done, so a call that failed on
// a write can be retried without repeating a committed step.
func (st *Store) Finalize(ctx context.Context, sessionID, userID string, timeSpentSeconds int) (*FinalResult, error) {
	unlock := st.locks.Lock(sessionID)
	defer unlock()

	s, err := st.load(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if s.Result != nil && s.MasteryApplied && s.HistoryRecorded {
		return s.Result, nil
	}

	if s.Result == nil {
		st.settle(s, timeSpentSeconds)
		if err := st.save(ctx, s); err != nil {
			return nil, err
		}
	}

	if !s.MasteryApplied {
		updated, err := st.mastery.Update(ctx, s.UserID, s.Topic, MasteryDeltaFor(s.Result.ScorePercent))
		if err != nil {
			return nil, fmt.Errorf("update mastery: %w", err)
		}
		s.Result.UpdatedMastery = updated
		s.MasteryApplied = true
		if err := st.save(ctx, s); err != nil {
			return nil, err
		}
	}

	if !s.HistoryRecorded {
		if err := st.history.AppendHistory(ctx, s.Result.HistoryEntry); err != nil {
			return nil, fmt.Errorf("append history: %w", err)
		}
		s.HistoryRecorded = true
		if err := st.save(ctx, s); err != nil {
			return nil, err
		}
	}

	st.log.Info("quiz finalized", "session_id", s.ID, "user_id", s.UserID, "topic", s.TopicKey,
		"score", s.Result.ScorePercent, "answered", s.Result.TotalQuestions,
		"mastery", s.Result.UpdatedMastery.Mastery)
	return s.Result, nil
}

// settle completes the session and fixes its result. The mastery snapshot
// is filled in once the update has been applied.
func (st *Store) settle(s *Session, timeSpentSeconds int) {
	correctCount := 0
	for _, it := range s.Items {
		if it.Correct {
			correctCount++
		}
	}
	total := len(s.Items)
	score := Score(correctCount, total)
	now := st.now().UTC()

	// A question still pending is withdrawn so asked ids match answered items.
	if s.PendingQuestionID != "" {
		s.AskedQuestionIDs = removeID(s.AskedQuestionIDs, s.PendingQuestionID)
		s.PendingQuestionID = ""
	}
	s.Completed = true
	s.UpdatedAt = now
	s.Result = &FinalResult{
		ScorePercent:       score,
		CorrectCount:       correctCount,
		TotalQuestions:     total,
		RequestedQuestions: s.TargetCount,
		EndedEarly:         s.EndedEarly || total < s.TargetCount,
		Items:              append([]AttemptItem(nil), s.Items...),
		HistoryEntry: store.QuizHistoryEntryData{
			ID:               s.ID,
			UserID:           s.UserID,
			CourseID:         s.CourseID,
			Topic:            s.Topic,
			TopicKey:         s.TopicKey,
			BaseDifficulty:   string(s.BaseDifficulty),
			ScorePercent:     score,
			CorrectCount:     correctCount,
			TotalQuestions:   total,
			TimeSpentSeconds: max(timeSpentSeconds, 0),
			CreatedAt:        now,
		},
	}
}

// Session returns a copy of the session state for its owner.
func (st *Store) Session(ctx context.Context, sessionID, userID string) (*Session, error) {
	return st.load(ctx, sessionID, userID)
}

// History returns the user's finalized quizzes, newest first.
func (st *Store) History(ctx context.Context, userID string) ([]store.QuizHistoryEntryData, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	entries, err := st.history.ListHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// Topics lists the topics of the static bank.
func (st *Store) Topics() []TopicSummary {
	return st.bank.Topics()
}

// EvictStale deletes unfinished sessions idle for longer than olderThan.
// Each session is deleted under its lock and only if it is still idle, so
// an answer being recorded concurrently keeps its session.
func (st *Store) EvictStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := st.now().UTC().Add(-olderThan)
	ids, err := st.sessions.StaleSessionIDs(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stale sessions: %w", err)
	}

	n := 0
	for _, id := range ids {
		deleted, err := st.evict(ctx, id, cutoff)
		if err != nil {
			return n, fmt.Errorf("evict session %s: %w", id, err)
		}
		if deleted {
			n++
		}
	}
	if n > 0 {
		st.log.Info("evicted stale quiz sessions", "count", n)
	}
	return n, nil
}

func (st *Store) evict(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	unlock := st.locks.Lock(id)
	defer unlock()
	return st.sessions.DeleteStaleSession(ctx, id, cutoff)
}

func (st *Store) sourceFor(s *Session) Source {
	if len(s.Pool) > 0 {
		return poolSource(s.Pool)
	}
	return st.bank
}

func (st *Store) load(ctx context.Context, sessionID, userID string) (*Session, error) {
	rec, err := st.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if rec == nil {
		return nil, ErrSessionNotFound
	}
	var s Session
	if err := json.Unmarshal(rec.State, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	if s.UserID != userID {
		return nil, ErrForbidden
	}
	return &s, nil
}

func (st *Store) save(ctx context.Context, s *Session) error {
	state, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := st.sessions.SaveSession(ctx, &store.QuizSessionRecord{
		ID:        s.ID,
		UserID:    s.UserID,
		Completed: s.Completed,
		UpdatedAt: s.UpdatedAt,
		State:     state,
	}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Score is the rounded percentage of correct answers, 0 when nothing was
// answered.
func Score(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// MasteryDeltaFor maps a score to the mastery credit of one quiz.
func MasteryDeltaFor(score int) int {
	return clamp(int(math.Round(float64(score)/100*MaxMasteryDelta)), MinMasteryDelta, MaxMasteryDelta)
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
