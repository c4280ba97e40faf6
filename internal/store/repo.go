package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match when set
}

// LLMRequestEventData captures the data for a single LLM request event.
// It never carries API keys.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorKind    string
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates token usage for one purpose or model.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
}

// LLMEventRepo adds the read side used by the CLI.
type LLMEventRepo interface {
	EventRepo
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}

// QuizSessionRecord is the persisted form of a quiz session. State is the
// owning package's JSON encoding; the store only indexes the other fields.
type QuizSessionRecord struct {
	ID        string
	UserID    string
	Completed bool
	UpdatedAt time.Time
	State     []byte
}

// QuizSessionRepo stores quiz sessions by id.
type QuizSessionRepo interface {
	// GetSession returns nil, nil when the session does not exist.
	GetSession(ctx context.Context, id string) (*QuizSessionRecord, error)

	// SaveSession inserts or replaces the session.
	SaveSession(ctx context.Context, rec *QuizSessionRecord) error

	// StaleSessionIDs lists sessions that are not completed and were last
	// updated before cutoff.
	StaleSessionIDs(ctx context.Context, cutoff time.Time) ([]string, error)

	// DeleteStaleSession removes the session only if it is still not
	// completed and was last updated before cutoff. It reports whether a
	// row was removed.
	DeleteStaleSession(ctx context.Context, id string, cutoff time.Time) (bool, error)
}

// QuizHistoryEntryData is one finalized quiz.
type QuizHistoryEntryData struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	CourseID         string    `json:"courseId"`
	Topic            string    `json:"topic"`
	TopicKey         string    `json:"topicKey"`
	BaseDifficulty   string    `json:"baseDifficulty"`
	ScorePercent     int       `json:"scorePercent"`
	CorrectCount     int       `json:"correctCount"`
	TotalQuestions   int       `json:"totalQuestions"`
	TimeSpentSeconds int       `json:"timeSpentSeconds"`
	CreatedAt        time.Time `json:"createdAt"`
}

// QuizHistoryRepo is the append-only per-user quiz history.
type QuizHistoryRepo interface {
	// AppendHistory stores e. An entry whose id already exists is left
	// untouched and no error is returned.
	AppendHistory(ctx context.Context, e QuizHistoryEntryData) error

	// ListHistory returns the user's entries, newest first.
	ListHistory(ctx context.Context, userID string) ([]QuizHistoryEntryData, error)
}

// TopicMasteryData is a user's running score for one topic.
type TopicMasteryData struct {
	UserID        string    `json:"-"`
	Topic         string    `json:"topic"`
	TopicKey      string    `json:"topicKey"`
	Mastery       int       `json:"mastery"`
	SessionsCount int       `json:"sessionsCount"`
	LastStudied   time.Time `json:"lastStudied"`
}

// MasteryRepo stores topic mastery keyed by (user, topic key).
type MasteryRepo interface {
	// GetMastery returns nil, nil on first touch.
	GetMastery(ctx context.Context, userID, topicKey string) (*TopicMasteryData, error)
	SaveMastery(ctx context.Context, m *TopicMasteryData) error

	// ListMastery returns every topic of the user ordered by topic key.
	ListMastery(ctx context.Context, userID string) ([]TopicMasteryData, error)
}
