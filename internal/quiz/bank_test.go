package quiz

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBank_LoadsAndValidates(t *testing.T) {
	b, err := DefaultBank()
	require.NoError(t, err)

	topics := b.Topics()
	require.NotEmpty(t, topics)

	var arrays *TopicSummary
	for i := range topics {
		if topics[i].TopicKey == "arrays" {
			arrays = &topics[i]
		}
	}
	require.NotNil(t, arrays, "arrays topic must be present")
	for _, d := range difficultyLevels {
		assert.GreaterOrEqual(t, arrays.Counts[d], 3, "arrays needs 3 %s questions", d)
	}

	for _, s := range topics {
		for _, d := range difficultyLevels {
			qs, err := b.Questions(context.Background(), s.TopicKey, d)
			require.NoError(t, err)
			for _, q := range qs {
				assert.NoError(t, q.Validate(), q.ID)
				assert.True(t, strings.HasPrefix(q.ID, BankIDPrefix+s.TopicKey+"-"), q.ID)
				got, ok := b.Lookup(q.ID)
				assert.True(t, ok)
				assert.Equal(t, q, got)
			}
		}
	}
}

func TestDefaultBank_TopicKeys(t *testing.T) {
	b, err := DefaultBank()
	require.NoError(t, err)

	qs, err := b.Questions(context.Background(), "big-o", Easy)
	require.NoError(t, err)
	assert.NotEmpty(t, qs)

	q, ok := b.Lookup("bank-arrays-1")
	require.True(t, ok)
	assert.Equal(t, Easy, q.Difficulty)
}

func TestLoadBank_RejectsDuplicateOptions(t *testing.T) {
	src := `
topics:
  - topic: Arrays
    questions:
      - difficulty: easy
        question: Pick one
        options: ["a", "b", "A", "c"]
        answer: 0
        explanation: x
`
	_, err := LoadBank(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bank-arrays-1")
}

func TestLoadBank_RejectsBadAnswerIndex(t *testing.T) {
	src := `
topics:
  - topic: Arrays
    questions:
      - difficulty: easy
        question: Pick one
        options: ["a", "b", "c", "d"]
        answer: 4
        explanation: x
`
	_, err := LoadBank(strings.NewReader(src))
	assert.Error(t, err)
}

func TestLoadBank_RejectsWrongOptionCount(t *testing.T) {
	src := `
topics:
  - topic: Arrays
    questions:
      - difficulty: easy
        question: Pick one
        options: ["a", "b", "c"]
        answer: 0
        explanation: x
`
	_, err := LoadBank(strings.NewReader(src))
	assert.Error(t, err)
}

func TestLoadBank_RejectsUnknownFields(t *testing.T) {
	src := `
topics:
  - topic: Arrays
    questions:
      - difficulty: easy
        question: Pick one
        options: ["a", "b", "c", "d"]
        correct: 0
        explanation: x
`
	_, err := LoadBank(strings.NewReader(src))
	assert.Error(t, err)
}

func TestQuestionValidate(t *testing.T) {
	good := Question{Text: "q", Difficulty: Medium, Options: []string{"a", "b", "c", "d"}, CorrectIndex: 3}
	assert.NoError(t, good.Validate())

	bad := good
	bad.Difficulty = "extreme"
	assert.Error(t, bad.Validate())

	bad = good
	bad.Options = []string{"a", "b", "c", " "}
	assert.Error(t, bad.Validate())

	bad = good
	bad.CorrectIndex = -1
	assert.Error(t, bad.Validate())

	bad = good
	bad.Text = "  "
	assert.Error(t, bad.Validate())
}

func TestQuestionPublicHidesAnswer(t *testing.T) {
	q := Question{ID: "x", TopicKey: "t", Difficulty: Easy, Text: "q", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 2, Explanation: "because"}
	p := q.Public()
	assert.Equal(t, "x", p.ID)
	assert.Equal(t, q.Options, p.Options)

	p.Options[0] = "mutated"
	assert.Equal(t, "a", q.Options[0], "public copy must not alias the bank")
}
