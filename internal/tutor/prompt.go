package tutor

import (
	"fmt"
	"strings"
)

const persona = `You are a patient programming tutor for university students.
Explain concepts step by step, check understanding with a short follow-up question when it helps,
and prefer small, runnable examples. Answer in Markdown. Never output HTML or script tags.
If a question is unrelated to the course, answer briefly and steer back to the material.`

// SystemPrompt builds the tutoring system prompt for a course and topic.
// Either may be empty.
func SystemPrompt(courseID, topic string) string {
	var b strings.Builder
	b.WriteString(persona)

	courseID = strings.TrimSpace(courseID)
	topic = strings.TrimSpace(topic)
	switch {
	case courseID != "" && topic != "":
		fmt.Fprintf(&b, "\n\nThe student is studying %q in the course %q. Keep examples relevant to that topic.", topic, courseID)
	case topic != "":
		fmt.Fprintf(&b, "\n\nThe student is studying %q. Keep examples relevant to that topic.", topic)
	case courseID != "":
		fmt.Fprintf(&b, "\n\nThe student is enrolled in the course %q.", courseID)
	}
	return b.String()
}
