package respond

import (
	"strings"
)

// promptBuilder assembles the XML-tagged prompt structure shared by every
// responder variant.
type promptBuilder struct {
	builder strings.Builder
}

func newPromptBuilder() *promptBuilder {
	return &promptBuilder{}
}

func (p *promptBuilder) writeReferenceMaterial(context string) {
	if context == "" {
		return
	}
	p.builder.WriteString("<reference_material>\n")
	p.builder.WriteString(context)
	p.builder.WriteString("\n</reference_material>\n\n")
}

func (p *promptBuilder) writeToolOutput(output string) {
	if output == "" {
		return
	}
	p.builder.WriteString("<live_data>\n")
	p.builder.WriteString(output)
	p.builder.WriteString("\n</live_data>\n\n")
}

func (p *promptBuilder) writeTask(task string) {
	p.builder.WriteString("<task>\n")
	p.builder.WriteString(task)
	p.builder.WriteString("\n</task>\n\n")
}

func (p *promptBuilder) writeGuidelines(lines []string) {
	p.builder.WriteString("<guidelines>\n")
	for _, line := range lines {
		p.builder.WriteString(line)
		p.builder.WriteString("\n")
	}
	p.builder.WriteString("</guidelines>\n\n")
}

func (p *promptBuilder) writeUserQuestion(query string) {
	p.builder.WriteString("<user_question>\n")
	p.builder.WriteString(query)
	p.builder.WriteString("\n</user_question>\n\n")
	p.builder.WriteString("Answer:")
}

func (p *promptBuilder) String() string {
	return p.builder.String()
}

// baseGuidelines apply to every responder regardless of intent.
func baseGuidelines() []string {
	return []string{
		"1. Answer ONLY from the reference material and live data provided.",
		"2. Speak in first person as the portfolio owner's assistant.",
		"3. If the material doesn't cover what's asked, say so honestly and suggest what you can answer instead.",
		"4. Keep the answer complete but focused on the question.",
	}
}

// alternateGuidelines replace the base set on quality retries. Shorter,
// stricter, no stylistic freedom.
func alternateGuidelines() []string {
	return []string{
		"1. Answer strictly and literally from the reference material.",
		"2. Use short declarative sentences. No speculation, no filler.",
		"3. If a fact is not in the material, state that it is not available.",
	}
}
