package quiz

import (
	"fmt"
	"strings"
)

const generatorSystemPrompt = `You are a computer science tutor writing multiple-choice quiz questions.

Rules:
- Respond with a single JSON object of the form {"questions": [...]} and nothing else.
- Each question has "questionText", "options", "correctIndex", "explanation" and "difficulty".
- "options" holds exactly 4 distinct answers. Exactly one is correct.
- "correctIndex" is the 0-based position of the correct option. Vary it across questions.
- "difficulty" is one of "easy", "medium" or "hard".
- Distractors should reflect common misconceptions, not random values.
- The explanation says in one or two sentences why the correct option is right.
- Use plain text or markdown. Never use HTML.
- Do not repeat any question from the "already asked" list.`

// maxPriorQuestions bounds the dedup list sent with a top-up request.
const maxPriorQuestions = 30

func buildGeneratorMessage(topicName string, count int, base Difficulty, prior []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Topic: %s\n", topicName)
	fmt.Fprintf(&b, "Number of questions: %d\n", count)
	fmt.Fprintf(&b, "Target difficulty: %s\n", base)
	b.WriteString("Spread the questions across easy, medium and hard, with most at the target difficulty.\n")

	b.WriteString("\nAlready asked:\n")
	b.WriteString(buildDedup(prior, maxPriorQuestions))

	return b.String()
}

// buildDedup formats prior question texts as a numbered list, keeping the
// most recent max. Returns "None" when there are none.
func buildDedup(prior []string, max int) string {
	if len(prior) == 0 {
		return "None"
	}
	if max > 0 && len(prior) > max {
		prior = prior[len(prior)-max:]
	}

	var b strings.Builder
	for i, q := range prior {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}
