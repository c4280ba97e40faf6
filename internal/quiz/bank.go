package quiz

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/tutorgate/internal/topic"
)

// Source supplies questions for a session.
type Source interface {
	// Questions returns the questions for topicKey at difficulty d, in a
	// stable order.
	Questions(ctx context.Context, topicKey string, d Difficulty) ([]Question, error)

	// Lookup finds a question by id.
	Lookup(id string) (Question, bool)
}

//go:embed bank/questions.yaml
var defaultBankYAML []byte

type bankFile struct {
	Topics []struct {
		Topic     string `yaml:"topic"`
		Questions []struct {
			Difficulty  string   `yaml:"difficulty"`
			Question    string   `yaml:"question"`
			Options     []string `yaml:"options"`
			Answer      int      `yaml:"answer"`
			Explanation string   `yaml:"explanation"`
		} `yaml:"questions"`
	} `yaml:"topics"`
}

// Bank is a static question collection indexed by topic key and difficulty.
type Bank struct {
	byTopic map[string]map[Difficulty][]Question
	byID    map[string]Question
	names   map[string]string
}

// LoadBank parses a YAML question bank. Any question that breaks the
// option or answer invariants fails the whole load.
func LoadBank(r io.Reader) (*Bank, error) {
	var f bankFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}

	var qs []Question
	names := make(map[string]string)
	for _, t := range f.Topics {
		key := topic.Key(t.Topic)
		if key == "" {
			return nil, fmt.Errorf("question bank: topic with empty name")
		}
		if _, dup := names[key]; dup {
			return nil, fmt.Errorf("question bank: topic %q listed twice", t.Topic)
		}
		names[key] = strings.TrimSpace(t.Topic)

		for i, raw := range t.Questions {
			q := Question{
				ID:           fmt.Sprintf("%s%s-%d", BankIDPrefix, key, i+1),
				TopicKey:     key,
				Difficulty:   Difficulty(strings.ToLower(raw.Difficulty)),
				Text:         strings.TrimSpace(raw.Question),
				Options:      raw.Options,
				CorrectIndex: raw.Answer,
				Explanation:  strings.TrimSpace(raw.Explanation),
			}
			if err := q.Validate(); err != nil {
				return nil, fmt.Errorf("question bank: %s: %w", q.ID, err)
			}
			qs = append(qs, q)
		}
	}

	b := NewBank(qs)
	for k, n := range names {
		b.names[k] = n
	}
	return b, nil
}

// NewBank indexes already validated questions.
func NewBank(questions []Question) *Bank {
	b := &Bank{
		byTopic: make(map[string]map[Difficulty][]Question),
		byID:    make(map[string]Question, len(questions)),
		names:   make(map[string]string),
	}
	for _, q := range questions {
		if b.byTopic[q.TopicKey] == nil {
			b.byTopic[q.TopicKey] = make(map[Difficulty][]Question)
		}
		b.byTopic[q.TopicKey][q.Difficulty] = append(b.byTopic[q.TopicKey][q.Difficulty], q)
		b.byID[q.ID] = q
		if _, ok := b.names[q.TopicKey]; !ok {
			b.names[q.TopicKey] = q.TopicKey
		}
	}
	return b
}

var (
	defaultBankOnce sync.Once
	defaultBank     *Bank
	defaultBankErr  error
)

// DefaultBank returns the embedded question bank.
func DefaultBank() (*Bank, error) {
	defaultBankOnce.Do(func() {
		defaultBank, defaultBankErr = LoadBank(bytes.NewReader(defaultBankYAML))
	})
	return defaultBank, defaultBankErr
}

func (b *Bank) Questions(_ context.Context, topicKey string, d Difficulty) ([]Question, error) {
	return b.byTopic[topicKey][d], nil
}

func (b *Bank) Lookup(id string) (Question, bool) {
	q, ok := b.byID[id]
	return q, ok
}

// TopicSummary describes one topic of the bank.
type TopicSummary struct {
	Topic    string             `json:"topic"`
	TopicKey string             `json:"topicKey"`
	Counts   map[Difficulty]int `json:"counts"`
}

// Topics lists the bank's topics ordered by key.
func (b *Bank) Topics() []TopicSummary {
	out := make([]TopicSummary, 0, len(b.byTopic))
	for key, levels := range b.byTopic {
		s := TopicSummary{Topic: b.names[key], TopicKey: key, Counts: make(map[Difficulty]int, len(levels))}
		for d, qs := range levels {
			s.Counts[d] = len(qs)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TopicKey < out[j].TopicKey })
	return out
}

// poolSource serves the questions generated for one AI session.
type poolSource []Question

func (p poolSource) Questions(_ context.Context, topicKey string, d Difficulty) ([]Question, error) {
	var out []Question
	for _, q := range p {
		if q.TopicKey == topicKey && q.Difficulty == d {
			out = append(out, q)
		}
	}
	return out, nil
}

func (p poolSource) Lookup(id string) (Question, bool) {
	for _, q := range p {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
