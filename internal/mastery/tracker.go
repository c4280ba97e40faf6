// Package mastery tracks a per-user, per-topic mastery score.
package mastery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/tutorgate/internal/lockmap"
	"github.com/abhisek/tutorgate/internal/store"
	"github.com/abhisek/tutorgate/internal/topic"
)

const (
	// MaxDelta bounds a single update in either direction.
	MaxDelta = 8

	MinMastery = 0
	MaxMastery = 100

	// Study sessions earn one point per StudyMinutesPerPoint, between
	// MinStudyDelta and MaxStudyDelta.
	StudyMinutesPerPoint = 5
	MinStudyDelta        = 1
	MaxStudyDelta        = 5
)

var (
	ErrMissingUser   = errors.New("user id is required")
	ErrMissingTopic  = errors.New("topic is required")
	ErrStudyTooShort = errors.New("study session must last at least one minute")
)

// Tracker is the only mutation path for topic mastery. Updates to the same
// (user, topic key) pair are serialized.
type Tracker struct {
	repo  store.MasteryRepo
	locks lockmap.Map
	now   func() time.Time
}

// NewTracker creates a Tracker backed by repo.
func NewTracker(repo store.MasteryRepo) *Tracker {
	return &Tracker{repo: repo, now: time.Now}
}

// Update applies delta to the user's mastery of topic. The delta is clamped
// to [-MaxDelta, MaxDelta] and the result to [MinMastery, MaxMastery]. The
// first update of a topic starts from zero.
func (t *Tracker) Update(ctx context.Context, userID, topicName string, delta int) (store.TopicMasteryData, error) {
	name := strings.TrimSpace(topicName)
	if userID == "" {
		return store.TopicMasteryData{}, ErrMissingUser
	}
	key := topic.Key(name)
	if key == "" {
		return store.TopicMasteryData{}, ErrMissingTopic
	}

	unlock := t.locks.Lock(userID + "\x00" + key)
	defer unlock()

	cur, err := t.repo.GetMastery(ctx, userID, key)
	if err != nil {
		return store.TopicMasteryData{}, fmt.Errorf("load mastery: %w", err)
	}
	if cur == nil {
		cur = &store.TopicMasteryData{UserID: userID, Topic: name, TopicKey: key}
	}

	cur.Mastery = clamp(cur.Mastery+clamp(delta, -MaxDelta, MaxDelta), MinMastery, MaxMastery)
	cur.SessionsCount++
	cur.LastStudied = t.now().UTC()

	if err := t.repo.SaveMastery(ctx, cur); err != nil {
		return store.TopicMasteryData{}, fmt.Errorf("save mastery: %w", err)
	}
	return *cur, nil
}

// RecordStudySession credits a timed study session: one point per five
// minutes, at least one and at most five.
func (t *Tracker) RecordStudySession(ctx context.Context, userID, topicName string, d time.Duration) (store.TopicMasteryData, error) {
	if d < time.Minute {
		return store.TopicMasteryData{}, ErrStudyTooShort
	}
	return t.Update(ctx, userID, topicName, StudyDelta(d))
}

// StudyDelta is the mastery credit for a study session of length d.
func StudyDelta(d time.Duration) int {
	minutes := int(d / time.Minute)
	return clamp(minutes/StudyMinutesPerPoint, MinStudyDelta, MaxStudyDelta)
}

// List returns every topic the user has touched, ordered by topic key.
func (t *Tracker) List(ctx context.Context, userID string) ([]store.TopicMasteryData, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	out, err := t.repo.ListMastery(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list mastery: %w", err)
	}
	return out, nil
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
