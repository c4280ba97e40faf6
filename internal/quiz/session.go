package quiz

import (
	"context"
	"slices"
	"time"

	"github.com/abhisek/tutorgate/internal/llm"
	"github.com/abhisek/tutorgate/internal/store"
)

// Question count bounds for a session.
const (
	MinQuestions = 3
	MaxQuestions = 20
)

// Status is a session's lifecycle state.
type Status string

const (
	StatusCreated    Status = "created"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// NoAnswer is recorded as the selected index when the student skipped.
const NoAnswer = -1

// AttemptItem is one answered question. Never mutated after it is appended.
type AttemptItem struct {
	QuestionID    string     `json:"questionId"`
	Difficulty    Difficulty `json:"difficulty"`
	SelectedIndex int        `json:"selectedIndex"`
	Correct       bool       `json:"correct"`
	CorrectIndex  int        `json:"correctIndex"`
	Explanation   string     `json:"explanation"`
}

// Session is one quiz from start to finalize. It is the persisted state.
type Session struct {
	ID                string        `json:"id"`
	UserID            string        `json:"userId"`
	CourseID          string        `json:"courseId"`
	Topic             string        `json:"topic"`
	TopicKey          string        `json:"topicKey"`
	TargetCount       int           `json:"targetCount"`
	BaseDifficulty    Difficulty    `json:"baseDifficulty"`
	CurrentDifficulty Difficulty    `json:"currentDifficulty"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
	CurrentIndex      int           `json:"currentIndex"`
	AskedQuestionIDs  []string      `json:"askedQuestionIds"`
	PendingQuestionID string        `json:"pendingQuestionId,omitempty"`
	Items             []AttemptItem `json:"items"`
	Completed         bool          `json:"completed"`
	EndedEarly        bool          `json:"endedEarly"`

	// Pool holds generated questions for AI sessions.
	Pool []Question `json:"pool,omitempty"`

	// Result is fixed by the first finalize and returned by every later one.
	Result *FinalResult `json:"result,omitempty"`

	// Finalize steps already committed. A finalize interrupted by a failed
	// write resumes after the last committed step.
	MasteryApplied  bool `json:"masteryApplied,omitempty"`
	HistoryRecorded bool `json:"historyRecorded,omitempty"`
}

// Status derives the lifecycle state.
func (s *Session) Status() Status {
	switch {
	case s.Completed:
		return StatusCompleted
	case len(s.Items) > 0:
		return StatusInProgress
	default:
		return StatusCreated
	}
}

// Progress reports how far along a session is.
func (s *Session) Progress() Progress {
	p := Progress{Answered: len(s.Items), Total: s.TargetCount}
	if s.PendingQuestionID != "" {
		p.Current = s.CurrentIndex + 1
	}
	return p
}

func (s *Session) asked(id string) bool {
	return slices.Contains(s.AskedQuestionIDs, id)
}

// selectNext finds an unused question at the current difficulty, then one
// step easier, one harder, two easier and two harder. The difficulty it was
// found at becomes current. It returns nil when the topic is exhausted.
func (s *Session) selectNext(ctx context.Context, src Source, pick func(n int) int) (*Question, error) {
	for _, d := range fallbackOrder(s.CurrentDifficulty) {
		qs, err := src.Questions(ctx, s.TopicKey, d)
		if err != nil {
			return nil, err
		}
		var unused []Question
		for _, q := range qs {
			if !s.asked(q.ID) {
				unused = append(unused, q)
			}
		}
		if len(unused) == 0 {
			continue
		}
		q := unused[pick(len(unused))]
		s.CurrentDifficulty = d
		s.AskedQuestionIDs = append(s.AskedQuestionIDs, q.ID)
		s.PendingQuestionID = q.ID
		return &q, nil
	}
	return nil, nil
}

// Progress is the position within a session. Current is the 1-based number
// of the pending question, or 0 when none is pending.
type Progress struct {
	Current  int `json:"current"`
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

// StartInput starts a session.
type StartInput struct {
	UserID        string
	CourseID      string
	Topic         string
	Difficulty    string
	QuestionCount int
	UseAI         bool
	Keys          []llm.Credential
}

// StartResult is returned by Create.
type StartResult struct {
	SessionID      string          `json:"sessionId"`
	Topic          string          `json:"topic"`
	BaseDifficulty Difficulty      `json:"baseDifficulty"`
	TotalQuestions int             `json:"totalQuestions"`
	Question       *PublicQuestion `json:"question"`
	Progress       Progress        `json:"progress"`
}

// AnswerInput submits one answer. A nil SelectedIndex is recorded as
// NoAnswer and scored incorrect.
type AnswerInput struct {
	SessionID     string
	UserID        string
	QuestionID    string
	SelectedIndex *int
}

// AnswerResult is returned by Submit.
type AnswerResult struct {
	Correct           bool            `json:"correct"`
	CorrectIndex      int             `json:"correctIndex"`
	Explanation       string          `json:"explanation"`
	NextQuestion      *PublicQuestion `json:"nextQuestion"`
	Progress          Progress        `json:"progress"`
	UpdatedDifficulty Difficulty      `json:"updatedDifficulty"`
	EndedEarly        bool            `json:"endedEarly"`
}

// FinalResult is returned by Finalize.
type FinalResult struct {
	ScorePercent       int                        `json:"scorePercent"`
	CorrectCount       int                        `json:"correctCount"`
	TotalQuestions     int                        `json:"totalQuestions"`
	RequestedQuestions int                        `json:"requestedQuestions"`
	EndedEarly         bool                       `json:"endedEarly"`
	Items              []AttemptItem              `json:"items"`
	UpdatedMastery     store.TopicMasteryData     `json:"updatedMastery"`
	HistoryEntry       store.QuizHistoryEntryData `json:"historyEntry"`
}
