package quiz

import (
	"errors"
	"fmt"
	"strings"
)

// OptionCount is the number of answer options every question carries.
const OptionCount = 4

// Id prefixes that tell a question's provenance apart.
const (
	BankIDPrefix = "bank-"
	AIIDPrefix   = "ai-"
)

// Question is one multiple-choice question. It is immutable once accepted.
type Question struct {
	ID           string     `json:"id"`
	TopicKey     string     `json:"topicKey"`
	Difficulty   Difficulty `json:"difficulty"`
	Text         string     `json:"questionText"`
	Options      []string   `json:"options"`
	CorrectIndex int        `json:"correctIndex"`
	Explanation  string     `json:"explanation"`
}

// Validate checks the invariants a question needs to enter a session:
// text, a known difficulty, exactly four pairwise distinct options and an
// in-range correct index.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("question text is empty")
	}
	if !q.Difficulty.Valid() {
		return fmt.Errorf("unknown difficulty %q", q.Difficulty)
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("want %d options, got %d", OptionCount, len(q.Options))
	}
	seen := make(map[string]bool, len(q.Options))
	for i, o := range q.Options {
		norm := strings.ToLower(strings.TrimSpace(o))
		if norm == "" {
			return fmt.Errorf("option %d is empty", i)
		}
		if seen[norm] {
			return fmt.Errorf("option %d duplicates an earlier option", i)
		}
		seen[norm] = true
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("correct index %d out of range", q.CorrectIndex)
	}
	return nil
}

// PublicQuestion is what a student sees before answering.
type PublicQuestion struct {
	ID         string     `json:"id"`
	TopicKey   string     `json:"topicKey"`
	Difficulty Difficulty `json:"difficulty"`
	Text       string     `json:"questionText"`
	Options    []string   `json:"options"`
}

// Public strips the answer and explanation.
func (q Question) Public() *PublicQuestion {
	return &PublicQuestion{
		ID:         q.ID,
		TopicKey:   q.TopicKey,
		Difficulty: q.Difficulty,
		Text:       q.Text,
		Options:    append([]string(nil), q.Options...),
	}
}
