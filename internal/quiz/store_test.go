package quiz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorgate/internal/llm"
	"github.com/abhisek/tutorgate/internal/mastery"
	"github.com/abhisek/tutorgate/internal/store"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	store *Store
	mem   *store.Memory
	bank  *Bank
	clock *testClock
}

func newFixture(t *testing.T, bank *Bank, gen *Generator) *fixture {
	t.Helper()
	if bank == nil {
		var err error
		bank, err = DefaultBank()
		require.NoError(t, err)
	}
	mem := store.NewMemory()
	st, err := NewStore(Options{
		Bank:      bank,
		Generator: gen,
		Mastery:   mastery.NewTracker(mem),
		Sessions:  mem,
		History:   mem,
	})
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	st.now = clock.Now
	return &fixture{store: st, mem: mem, bank: bank, clock: clock}
}

// makeQuestions builds n valid questions per difficulty for topicKey.
func makeQuestions(topicKey string, perLevel map[Difficulty]int) []Question {
	var out []Question
	for _, d := range difficultyLevels {
		for i := 0; i < perLevel[d]; i++ {
			out = append(out, Question{
				ID:           fmt.Sprintf("%s%s-%s-%d", BankIDPrefix, topicKey, d, i),
				TopicKey:     topicKey,
				Difficulty:   d,
				Text:         fmt.Sprintf("%s %s question %d", topicKey, d, i),
				Options:      []string{"w", "x", "y", "z"},
				CorrectIndex: i % OptionCount,
				Explanation:  "explained",
			})
		}
	}
	return out
}

func intp(v int) *int { return &v }

// answer submits the correct (or a wrong) option for the pending question.
func (f *fixture) answer(t *testing.T, sessionID, userID string, q *PublicQuestion, correct bool) *AnswerResult {
	t.Helper()
	full, ok := f.store.sourceFor(f.session(t, sessionID, userID)).Lookup(q.ID)
	require.True(t, ok, "question %s must exist", q.ID)
	sel := full.CorrectIndex
	if !correct {
		sel = (full.CorrectIndex + 1) % OptionCount
	}
	res, err := f.store.Submit(context.Background(), AnswerInput{
		SessionID:     sessionID,
		UserID:        userID,
		QuestionID:    q.ID,
		SelectedIndex: intp(sel),
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) session(t *testing.T, sessionID, userID string) *Session {
	t.Helper()
	s, err := f.store.Session(context.Background(), sessionID, userID)
	require.NoError(t, err)
	return s
}

func assertAskedInvariant(t *testing.T, s *Session) {
	t.Helper()
	want := len(s.Items)
	if s.PendingQuestionID != "" {
		want++
	}
	assert.Len(t, s.AskedQuestionIDs, want)
	assert.LessOrEqual(t, s.CurrentIndex, s.TargetCount)
}

func TestScenarioA_ArraysAllCorrect(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	start, err := f.store.Create(ctx, StartInput{UserID: "u1", CourseID: "cs101", Topic: "Arrays", Difficulty: "easy", QuestionCount: 3})
	require.NoError(t, err)
	assert.Equal(t, "Arrays", start.Topic)
	assert.Equal(t, Easy, start.BaseDifficulty)
	assert.Equal(t, 3, start.TotalQuestions)
	assert.Equal(t, Progress{Current: 1, Answered: 0, Total: 3}, start.Progress)
	require.NotNil(t, start.Question)

	q := start.Question
	for i := 0; i < 3; i++ {
		res := f.answer(t, start.SessionID, "u1", q, true)
		assert.True(t, res.Correct)
		if i < 2 {
			require.NotNil(t, res.NextQuestion)
		} else {
			assert.Nil(t, res.NextQuestion)
			assert.False(t, res.EndedEarly)
		}
		q = res.NextQuestion
	}

	final, err := f.store.Finalize(ctx, start.SessionID, "u1", 95)
	require.NoError(t, err)
	assert.Equal(t, 100, final.ScorePercent)
	assert.Equal(t, 3, final.CorrectCount)
	assert.Equal(t, 3, final.TotalQuestions)
	assert.Equal(t, 3, final.RequestedQuestions)
	assert.False(t, final.EndedEarly)
	assert.Equal(t, 8, final.UpdatedMastery.Mastery)
	assert.Equal(t, "arrays", final.UpdatedMastery.TopicKey)
	assert.Equal(t, 95, final.HistoryEntry.TimeSpentSeconds)
	assert.Equal(t, start.SessionID, final.HistoryEntry.ID)
	assert.Equal(t, "easy", final.HistoryEntry.BaseDifficulty)
	assert.Len(t, final.Items, 3)

	s := f.session(t, start.SessionID, "u1")
	assert.Equal(t, StatusCompleted, s.Status())
}

func TestSubmit_NoRepeatedQuestions(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	start, err := f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Arrays", Difficulty: "medium", QuestionCount: 5})
	require.NoError(t, err)

	seen := map[string]bool{start.Question.ID: true}
	q := start.Question
	for i := 0; i < 5; i++ {
		res := f.answer(t, start.SessionID, "u1", q, i%2 == 0)
		assertAskedInvariant(t, f.session(t, start.SessionID, "u1"))
		if res.NextQuestion == nil {
			break
		}
		assert.False(t, seen[res.NextQuestion.ID], "question %s repeated", res.NextQuestion.ID)
		seen[res.NextQuestion.ID] = true
		q = res.NextQuestion
	}

	s := f.session(t, start.SessionID, "u1")
	assert.Len(t, s.Items, 5)
	assert.Len(t, seen, 5)
}

func TestSubmit_AdaptiveDifficulty(t *testing.T) {
	bank := NewBank(makeQuestions("graphs", map[Difficulty]int{Easy: 5, Medium: 5, Hard: 5}))
	f := newFixture(t, bank, nil)
	ctx := context.Background()

	t.Run("correct from medium climbs and caps at hard", func(t *testing.T) {
		start, err := f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Graphs", Difficulty: "medium", QuestionCount: 5})
		require.NoError(t, err)
		assert.Equal(t, Medium, start.Question.Difficulty)

		res := f.answer(t, start.SessionID, "u1", start.Question, true)
		assert.Equal(t, Hard, res.UpdatedDifficulty)
		require.NotNil(t, res.NextQuestion)
		assert.Equal(t, Hard, res.NextQuestion.Difficulty)

		res = f.answer(t, start.SessionID, "u1", res.NextQuestion, true)
		assert.Equal(t, Hard, res.UpdatedDifficulty)
		assert.Equal(t, Hard, f.session(t, start.SessionID, "u1").CurrentDifficulty)
	})

	t.Run("incorrect from easy stays at easy", func(t *testing.T) {
		start, err := f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Graphs", Difficulty: "easy", QuestionCount: 5})
		require.NoError(t, err)

		res := f.answer(t, start.SessionID, "u1", start.Question, false)
		assert.False(t, res.Correct)
		assert.Equal(t, Easy, res.UpdatedDifficulty)
		require.NotNil(t, res.NextQuestion)
		assert.Equal(t, Easy, res.NextQuestion.Difficulty)
	})

	t.Run("incorrect from hard steps down", func(t *testing.T) {
		start, err := f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Graphs", Difficulty: "hard", QuestionCount: 5})
		require.NoError(t, err)

		res := f.answer(t, start.SessionID, "u1", start.Question, false)
		assert.Equal(t, Medium, res.UpdatedDifficulty)
	})
}

func TestCreate_FallsBackToOtherDifficulties(t *testing.T) {
	bank := NewBank(makeQuestions("heaps", map[Difficulty]int{Easy: 4}))
	f := newFixture(t, bank, nil)

	start, err := f.store.Create(context.Background(), StartInput{UserID: "u1", Topic: "Heaps", Difficulty: "hard", QuestionCount: 3})
	require.NoError(t, err)
	assert.Equal(t, Easy, start.Question.Difficulty)
	assert.Equal(t, Hard, start.BaseDifficulty)
	assert.Equal(t, Easy, f.session(t, start.SessionID, "u1").CurrentDifficulty)
}

func TestCreate_TriesEasierBeforeHarder(t *testing.T) {
	bank := NewBank(makeQuestions("tries", map[Difficulty]int{Easy: 1, Hard: 1}))
	f := newFixture(t, bank, nil)

	start, err := f.store.Create(context.Background(), StartInput{UserID: "u1", Topic: "Tries", Difficulty: "medium", QuestionCount: 3})
	require.NoError(t, err)
	assert.Equal(t, Easy, start.Question.Difficulty)
}

func TestSubmit_EndsEarlyWhenTopicRunsDry(t *testing.T) {
	bank := NewBank(makeQuestions("stacks", map[Difficulty]int{Medium: 2}))
	f := newFixture(t, bank, nil)
	ctx := context.Background()

	start, err := f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Stacks", QuestionCount: 3})
	require.NoError(t, err)

	res := f.answer(t, start.SessionID, "u1", start.Question, true)
	require.NotNil(t, res.NextQuestion)
	res = f.answer(t, start.SessionID, "u1", res.NextQuestion, true)
	assert.Nil(t, res.NextQuestion)
	assert.True(t, res.EndedEarly)

	_, err = f.store.Submit(ctx, AnswerInput{SessionID: start.SessionID, UserID: "u1", QuestionID: start.Question.ID, SelectedIndex: intp(0)})
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	final, err := f.store.Finalize(ctx, start.SessionID, "u1", 30)
	require.NoError(t, err)
	assert.Equal(t, 2, final.TotalQuestions)
	assert.Equal(t, 3, final.RequestedQuestions)
	assert.True(t, final.EndedEarly)
	assert.Equal(t, 100, final.ScorePercent)
}

func TestSubmit_TargetReachedWaitsForFinalize(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	start, err := f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Sorting", QuestionCount: 3})
	require.NoError(t, err)

	q := start.Question
	var last *AnswerResult
	for i := 0; i < 3; i++ {
		last = f.answer(t, start.SessionID, "u1", q, false)
		q = last.NextQuestion
	}
	assert.Nil(t, last.NextQuestion)
	assert.Equal(t, Progress{Current: 0, Answered: 3, Total: 3}, last.Progress)

	s := f.session(t, start.SessionID, "u1")
	assert.False(t, s.Completed, "session stays open until finalize")
	assert.Equal(t, StatusInProgress, s.Status())

	_, err = f.store.Submit(ctx, AnswerInput{SessionID: start.SessionID, UserID: "u1", QuestionID: s.AskedQuestionIDs[0], SelectedIndex: intp(0)})
	assert.ErrorIs(t, err, ErrQuestionMismatch)
}

func TestSubmit_Errors(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	start, err := f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Recursion", QuestionCount: 3})
	require.NoError(t, err)

	_, err = f.store.Submit(ctx, AnswerInput{SessionID: "missing", UserID: "u1", QuestionID: start.Question.ID})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.store.Submit(ctx, AnswerInput{SessionID: start.SessionID, UserID: "u2", QuestionID: start.Question.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.store.Submit(ctx, AnswerInput{SessionID: start.SessionID, UserID: "u1", QuestionID: "bank-arrays-1"})
	assert.ErrorIs(t, err, ErrQuestionMismatch)

	_, err = f.store.Finalize(ctx, start.SessionID, "u2", 0)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.store.Finalize(ctx, "missing", "u1", 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	s := f.session(t, start.SessionID, "u1")
	assert.Empty(t, s.Items, "failed submissions must not mutate the session")
	assertAskedInvariant(t, s)
}

func TestSubmit_MissingSelectionIsIncorrect(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	start, err := f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Big O", QuestionCount: 3})
	require.NoError(t, err)

	res, err := f.store.Submit(ctx, AnswerInput{SessionID: start.SessionID, UserID: "u1", QuestionID: start.Question.ID})
	require.NoError(t, err)
	assert.False(t, res.Correct)

	s := f.session(t, start.SessionID, "u1")
	require.Len(t, s.Items, 1)
	assert.Equal(t, NoAnswer, s.Items[0].SelectedIndex)
}

func TestSubmit_OutOfRangeSelectionIsRecordedAsNoAnswer(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	start, err := f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Big O", QuestionCount: 3})
	require.NoError(t, err)

	res, err := f.store.Submit(ctx, AnswerInput{
		SessionID:     start.SessionID,
		UserID:        "u1",
		QuestionID:    start.Question.ID,
		SelectedIndex: intp(7),
	})
	require.NoError(t, err)
	assert.False(t, res.Correct)
	res, err = f.store.Submit(ctx, AnswerInput{
		SessionID:     start.SessionID,
		UserID:        "u1",
		QuestionID:    res.NextQuestion.ID,
		SelectedIndex: intp(-3),
	})
	require.NoError(t, err)
	assert.False(t, res.Correct)

	s := f.session(t, start.SessionID, "u1")
	require.Len(t, s.Items, 2)
	assert.Equal(t, NoAnswer, s.Items[0].SelectedIndex)
	assert.Equal(t, NoAnswer, s.Items[1].SelectedIndex)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	_, err := f.store.Create(ctx, StartInput{Topic: "Arrays"})
	assert.ErrorIs(t, err, ErrMissingUser)

	_, err = f.store.Create(ctx, StartInput{UserID: "u1", Topic: "  "})
	assert.ErrorIs(t, err, ErrMissingTopic)

	_, err = f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Arrays", Difficulty: "insane"})
	assert.ErrorIs(t, err, ErrInvalidDifficulty)

	_, err = f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Quantum Basket Weaving"})
	assert.ErrorIs(t, err, ErrNoQuestions)

	_, err = f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Arrays", UseAI: true})
	assert.ErrorIs(t, err, ErrAIUnavailable)
}

func TestCreate_ClampsQuestionCount(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	low, err := f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Arrays", QuestionCount: 1})
	require.NoError(t, err)
	assert.Equal(t, MinQuestions, low.TotalQuestions)

	high, err := f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Arrays", QuestionCount: 500})
	require.NoError(t, err)
	assert.Equal(t, MaxQuestions, high.TotalQuestions)
}

func TestFinalize_Idempotent(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	start, err := f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Linked Lists", QuestionCount: 3})
	require.NoError(t, err)
	res := f.answer(t, start.SessionID, "u1", start.Question, true)
	f.answer(t, start.SessionID, "u1", res.NextQuestion, false)

	first, err := f.store.Finalize(ctx, start.SessionID, "u1", 40)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	second, err := f.store.Finalize(ctx, start.SessionID, "u1", 999)
	require.NoError(t, err)

	assert.Equal(t, first.ScorePercent, second.ScorePercent)
	assert.Equal(t, first.CorrectCount, second.CorrectCount)
	assert.Equal(t, first.HistoryEntry, second.HistoryEntry)
	assert.Equal(t, 50, first.ScorePercent)

	history, err := f.store.History(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, history, 1, "history entry appended once")

	m, err := f.mem.GetMastery(ctx, "u1", "linked-lists")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 1, m.SessionsCount, "mastery updated once")
	assert.Equal(t, 4, m.Mastery)

	_, err = f.store.Submit(ctx, AnswerInput{SessionID: start.SessionID, UserID: "u1", QuestionID: res.NextQuestion.ID})
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

// failingSessions fails the completed-session saves whose ordinal is listed
// in failOn, counting from 1.
type failingSessions struct {
	*store.Memory
	failOn    map[int]bool
	completed int
}

func (f *failingSessions) SaveSession(ctx context.Context, rec *store.QuizSessionRecord) error {
	if rec.Completed {
		f.completed++
		if f.failOn[f.completed] {
			return errors.New("disk full")
		}
	}
	return f.Memory.SaveSession(ctx, rec)
}

// failingHistory fails the first failures appends.
type failingHistory struct {
	*store.Memory
	failures int
}

func (f *failingHistory) AppendHistory(ctx context.Context, e store.QuizHistoryEntryData) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("disk full")
	}
	return f.Memory.AppendHistory(ctx, e)
}

func TestFinalize_RetryAfterFailedWrite(t *testing.T) {
	tests := []struct {
		name        string
		failSaves   map[int]bool
		failAppends int
	}{
		{name: "result save fails", failSaves: map[int]bool{1: true}},
		{name: "history append fails", failAppends: 1},
		{name: "history mark save fails", failSaves: map[int]bool{3: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			mem := store.NewMemory()
			bank, err := DefaultBank()
			require.NoError(t, err)
			st, err := NewStore(Options{
				Bank:     bank,
				Mastery:  mastery.NewTracker(mem),
				Sessions: &failingSessions{Memory: mem, failOn: tt.failSaves},
				History:  &failingHistory{Memory: mem, failures: tt.failAppends},
			})
			require.NoError(t, err)

			start, err := st.Create(ctx, StartInput{UserID: "u1", Topic: "Arrays", QuestionCount: 3})
			require.NoError(t, err)
			q, ok := bank.Lookup(start.Question.ID)
			require.True(t, ok)
			_, err = st.Submit(ctx, AnswerInput{
				SessionID:     start.SessionID,
				UserID:        "u1",
				QuestionID:    q.ID,
				SelectedIndex: intp(q.CorrectIndex),
			})
			require.NoError(t, err)

			_, err = st.Finalize(ctx, start.SessionID, "u1", 30)
			require.Error(t, err)

			first, err := st.Finalize(ctx, start.SessionID, "u1", 30)
			require.NoError(t, err)
			second, err := st.Finalize(ctx, start.SessionID, "u1", 30)
			require.NoError(t, err)
			assert.Equal(t, first.ScorePercent, second.ScorePercent)
			assert.Equal(t, first.HistoryEntry, second.HistoryEntry)
			assert.Equal(t, first.UpdatedMastery.Mastery, second.UpdatedMastery.Mastery)
			assert.Equal(t, 100, first.ScorePercent)

			history, err := mem.ListHistory(ctx, "u1")
			require.NoError(t, err)
			assert.Len(t, history, 1, "history entry appended once")

			m, err := mem.GetMastery(ctx, "u1", "arrays")
			require.NoError(t, err)
			require.NotNil(t, m)
			assert.Equal(t, 1, m.SessionsCount, "mastery updated once")
			assert.Equal(t, MaxMasteryDelta, m.Mastery)
			assert.Equal(t, m.Mastery, first.UpdatedMastery.Mastery)
		})
	}
}

func TestFinalize_WithoutAnswers(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	start, err := f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Arrays", QuestionCount: 3})
	require.NoError(t, err)

	final, err := f.store.Finalize(ctx, start.SessionID, "u1", -5)
	require.NoError(t, err)
	assert.Equal(t, 0, final.ScorePercent)
	assert.Equal(t, 0, final.TotalQuestions)
	assert.Equal(t, 0, final.HistoryEntry.TimeSpentSeconds)
	assert.Equal(t, MinMasteryDelta, final.UpdatedMastery.Mastery)

	s := f.session(t, start.SessionID, "u1")
	assert.Empty(t, s.PendingQuestionID)
	assertAskedInvariant(t, s)
}

func TestScoreAndMasteryDelta(t *testing.T) {
	assert.Equal(t, 0, Score(0, 0))
	assert.Equal(t, 67, Score(2, 3))
	assert.Equal(t, 33, Score(1, 3))
	assert.Equal(t, 100, Score(5, 5))

	assert.Equal(t, 1, MasteryDeltaFor(0))
	assert.Equal(t, 1, MasteryDeltaFor(10))
	assert.Equal(t, 4, MasteryDeltaFor(50))
	assert.Equal(t, 5, MasteryDeltaFor(67))
	assert.Equal(t, 8, MasteryDeltaFor(100))
}

func TestHistory_NewestFirst(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	var ids []string
	for _, topicName := range []string{"Arrays", "Sorting"} {
		start, err := f.store.Create(ctx, StartInput{UserID: "u1", Topic: topicName, QuestionCount: 3})
		require.NoError(t, err)
		_, err = f.store.Finalize(ctx, start.SessionID, "u1", 10)
		require.NoError(t, err)
		ids = append(ids, start.SessionID)
		f.clock.Advance(time.Minute)
	}

	history, err := f.store.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ids[1], history[0].ID)
	assert.Equal(t, ids[0], history[1].ID)

	_, err = f.store.History(ctx, "")
	assert.ErrorIs(t, err, ErrMissingUser)
}

func TestEvictStale(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	idle, err := f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Arrays", QuestionCount: 3})
	require.NoError(t, err)
	done, err := f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Sorting", QuestionCount: 3})
	require.NoError(t, err)
	_, err = f.store.Finalize(ctx, done.SessionID, "u1", 10)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	fresh, err := f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Recursion", QuestionCount: 3})
	require.NoError(t, err)

	n, err := f.store.EvictStale(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.store.Submit(ctx, AnswerInput{SessionID: idle.SessionID, UserID: "u1", QuestionID: idle.Question.ID})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.store.Finalize(ctx, done.SessionID, "u1", 10)
	assert.NoError(t, err, "completed sessions are kept")

	_, err = f.store.Session(ctx, fresh.SessionID, "u1")
	assert.NoError(t, err)
}

func TestEvictStale_KeepsSessionAnsweredSinceListing(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	start, err := f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Arrays", QuestionCount: 3})
	require.NoError(t, err)
	f.clock.Advance(2 * time.Hour)

	cutoff := f.clock.Now().Add(-time.Hour)
	ids, err := f.mem.StaleSessionIDs(ctx, cutoff)
	require.NoError(t, err)
	require.Equal(t, []string{start.SessionID}, ids)

	// The answer lands between listing and deleting.
	f.answer(t, start.SessionID, "u1", start.Question, true)

	deleted, err := f.store.evict(ctx, start.SessionID, cutoff)
	require.NoError(t, err)
	assert.False(t, deleted)

	s := f.session(t, start.SessionID, "u1")
	assert.Len(t, s.Items, 1)
}

func TestSubmit_ConcurrentAnswersAppliedOnce(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	start, err := f.store.Create(ctx, StartInput{UserID: "u1", Topic: "Arrays", QuestionCount: 5})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, mismatched int
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.store.Submit(ctx, AnswerInput{SessionID: start.SessionID, UserID: "u1", QuestionID: start.Question.ID, SelectedIndex: intp(0)})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrQuestionMismatch):
				mismatched++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 9, mismatched)
	s := f.session(t, start.SessionID, "u1")
	assert.Len(t, s.Items, 1)
	assertAskedInvariant(t, s)
}

func TestAISession_UsesGeneratedPool(t *testing.T) {
	gw := &scriptedGateway{results: []llm.Result{
		okResult(batchJSON(t, validItem(1, Medium), validItem(2, Hard), validItem(3, Easy))),
	}}
	f := newFixture(t, nil, NewGenerator(gw, time.Second, nil))
	ctx := context.Background()

	start, err := f.store.Create(ctx, StartInput{
		UserID:        "u1",
		Topic:         "Arrays",
		Difficulty:    "medium",
		QuestionCount: 3,
		UseAI:         true,
		Keys:          testGenerateInput(3).Keys,
	})
	require.NoError(t, err)
	assert.Contains(t, start.Question.ID, AIIDPrefix)
	assert.Equal(t, "Generated question 1?", start.Question.Text)

	res := f.answer(t, start.SessionID, "u1", start.Question, true)
	require.NotNil(t, res.NextQuestion)
	assert.Equal(t, Hard, res.NextQuestion.Difficulty)
	assert.Contains(t, res.NextQuestion.ID, AIIDPrefix)

	_, err = f.store.Submit(ctx, AnswerInput{SessionID: start.SessionID, UserID: "u1", QuestionID: "bank-arrays-1", SelectedIndex: intp(0)})
	assert.ErrorIs(t, err, ErrQuestionMismatch, "bank questions are not part of an AI session")
}

func TestAISession_GenerationFailure(t *testing.T) {
	gw := &scriptedGateway{results: []llm.Result{{ErrorKind: llm.KindQuotaExceeded, ErrorMessage: "quota"}}}
	f := newFixture(t, nil, NewGenerator(gw, time.Second, nil))

	_, err := f.store.Create(context.Background(), StartInput{UserID: "u1", Topic: "Arrays", UseAI: true})
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, llm.KindQuotaExceeded, genErr.Kind)
}

func TestStore_PersistsThroughSQLite(t *testing.T) {
	db, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bank, err := DefaultBank()
	require.NoError(t, err)
	st, err := NewStore(Options{
		Bank:     bank,
		Mastery:  mastery.NewTracker(db.MasteryRepo()),
		Sessions: db.QuizSessionRepo(),
		History:  db.QuizHistoryRepo(),
	})
	require.NoError(t, err)
	ctx := context.Background()

	start, err := st.Create(ctx, StartInput{UserID: "u1", Topic: "Arrays", Difficulty: "easy", QuestionCount: 3})
	require.NoError(t, err)

	q := start.Question
	for q != nil {
		full, ok := bank.Lookup(q.ID)
		require.True(t, ok)
		res, err := st.Submit(ctx, AnswerInput{SessionID: start.SessionID, UserID: "u1", QuestionID: q.ID, SelectedIndex: intp(full.CorrectIndex)})
		require.NoError(t, err)
		q = res.NextQuestion
	}

	final, err := st.Finalize(ctx, start.SessionID, "u1", 60)
	require.NoError(t, err)
	assert.Equal(t, 100, final.ScorePercent)

	again, err := st.Finalize(ctx, start.SessionID, "u1", 60)
	require.NoError(t, err)
	assert.Equal(t, final.HistoryEntry.ID, again.HistoryEntry.ID)
	assert.Equal(t, final.UpdatedMastery.Mastery, again.UpdatedMastery.Mastery)

	history, err := st.History(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
