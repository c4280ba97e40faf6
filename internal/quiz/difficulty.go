package quiz

import (
	"fmt"
	"strings"
)

// Difficulty is a three-point ordinal: easy < medium < hard.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

var difficultyLevels = [...]Difficulty{Easy, Medium, Hard}

// ParseDifficulty accepts easy, medium or hard in any case. An empty string
// means medium.
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Medium, nil
	}
	d := Difficulty(s)
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
	}
	return d, nil
}

// Valid reports whether d is one of the three levels.
func (d Difficulty) Valid() bool {
	return d.level() >= 0
}

func (d Difficulty) level() int {
	for i, l := range difficultyLevels {
		if l == d {
			return i
		}
	}
	return -1
}

// Step moves n levels harder (negative n: easier), clamped at the ends.
func (d Difficulty) Step(n int) Difficulty {
	i := d.level() + n
	if i < 0 {
		i = 0
	}
	if i >= len(difficultyLevels) {
		i = len(difficultyLevels) - 1
	}
	return difficultyLevels[i]
}

// Adapt applies the answer rule: a correct answer makes the next question
// one step harder, an incorrect one one step easier.
func (d Difficulty) Adapt(correct bool) Difficulty {
	if correct {
		return d.Step(1)
	}
	return d.Step(-1)
}

// fallbackOrder lists where to look for a question, starting at d: one step
// easier, one harder, two easier, two harder. Clamped duplicates are
// dropped, so every level appears once.
func fallbackOrder(d Difficulty) []Difficulty {
	out := make([]Difficulty, 0, len(difficultyLevels))
	seen := make(map[Difficulty]bool, len(difficultyLevels))
	for _, step := range []int{0, -1, 1, -2, 2} {
		c := d.Step(step)
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
