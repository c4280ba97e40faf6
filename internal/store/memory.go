package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory implements every repository in process memory for tests.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]QuizSessionRecord
	history  map[string][]QuizHistoryEntryData
	mastery  map[string]map[string]TopicMasteryData
	events   []LLMEvent
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]QuizSessionRecord),
		history:  make(map[string][]QuizHistoryEntryData),
		mastery:  make(map[string]map[string]TopicMasteryData),
	}
}

func (m *Memory) GetSession(_ context.Context, id string) (*QuizSessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	rec.State = append([]byte(nil), rec.State...)
	return &rec, nil
}

func (m *Memory) SaveSession(_ context.Context, rec *QuizSessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	cp.State = append([]byte(nil), rec.State...)
	m.sessions[rec.ID] = cp
	return nil
}

func (m *Memory) StaleSessionIDs(_ context.Context, cutoff time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, rec := range m.sessions {
		if isStale(rec, cutoff) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *Memory) DeleteStaleSession(_ context.Context, id string, cutoff time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.sessions[id]
	if !ok || !isStale(rec, cutoff) {
		return false, nil
	}
	delete(m.sessions, id)
	return true, nil
}

func isStale(rec QuizSessionRecord, cutoff time.Time) bool {
	return !rec.Completed && rec.UpdatedAt.Before(cutoff)
}

func (m *Memory) AppendHistory(_ context.Context, e QuizHistoryEntryData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entries := range m.history {
		for _, prev := range entries {
			if prev.ID == e.ID {
				return nil
			}
		}
	}
	m.history[e.UserID] = append(m.history[e.UserID], e)
	return nil
}

func (m *Memory) ListHistory(_ context.Context, userID string) ([]QuizHistoryEntryData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.history[userID]
	out := make([]QuizHistoryEntryData, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) GetMastery(_ context.Context, userID, topicKey string) (*TopicMasteryData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.mastery[userID][topicKey]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *Memory) SaveMastery(_ context.Context, t *TopicMasteryData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mastery[t.UserID] == nil {
		m.mastery[t.UserID] = make(map[string]TopicMasteryData)
	}
	m.mastery[t.UserID][t.TopicKey] = *t
	return nil
}

func (m *Memory) ListMastery(_ context.Context, userID string) ([]TopicMasteryData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TopicMasteryData, 0, len(m.mastery[userID]))
	for _, t := range m.mastery[userID] {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TopicKey < out[j].TopicKey })
	return out, nil
}

func (m *Memory) AppendLLMRequest(_ context.Context, data LLMRequestEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.events) + 1
	m.events = append(m.events, LLMEvent{
		ID:                  n,
		Sequence:            int64(n),
		Timestamp:           time.Now().UTC(),
		LLMRequestEventData: data,
	})
	return nil
}

// LLMEvents returns a copy of the recorded events, oldest first.
func (m *Memory) LLMEvents() []LLMEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LLMEvent(nil), m.events...)
}

var (
	_ QuizSessionRepo = (*Memory)(nil)
	_ QuizHistoryRepo = (*Memory)(nil)
	_ MasteryRepo     = (*Memory)(nil)
	_ EventRepo       = (*Memory)(nil)
)
