package synth

import (
	"fmt"
	"strings"
)

const systemPrompt = `You write multiple-choice review questions about coding interview problems the user has already solved.

Rules:
- Ask about the key insight of the optimal solution: the data structure, the algorithm, or its time and space complexity.
- Restate the original problem briefly in "original_question" so it can be read on its own.
- Provide exactly 4 options where exactly one is correct. Distractors should be plausible approaches with a concrete flaw.
- Options must be distinct and must not reveal which one is correct.
- Keep every option short enough to read on a phone screen.
- The explanation should say why the correct option works and why the most tempting distractor does not.
- Use plain text. No Markdown, no code fences.`

// buildUserMessage constructs the user message for one candidate.
func buildUserMessage(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Problem: %s\n", strings.TrimSpace(in.Name))
	tags := in.TagsString()
	if tags == "" {
		tags = "none"
	}
	fmt.Fprintf(&b, "Tags: %s\n", tags)
	b.WriteString("\nWrite one multiple-choice question about this problem.")
	return b.String()
}
