package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"portfolio-assistant-be/pkg/llm"
)

// Classifier assigns exactly one Intent to a raw visitor query.
// Classification is a pure LLM call with temperature 0; when the model is
// unreachable or returns garbage, a keyword ruleset decides instead, and the
// designated default covers everything else. Classify never fails.
type Classifier struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

// NewClassifier creates an intent classifier.
func NewClassifier(llmProvider llm.LLMProvider, logger *log.Logger) *Classifier {
	return &Classifier{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// classification is the structured output requested from the model.
type classification struct {
	Intent     string  `json:"intent"`
	Confidence float32 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Classify maps a query to a member of the closed intent enumeration.
// The second return reports whether the model path degraded to the ruleset.
func (c *Classifier) Classify(ctx context.Context, query string) (Intent, bool) {
	prompt := c.buildPrompt(query)

	response, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		c.logger.Printf("[WARN] Intent classification degraded to ruleset: %v", err)
		return classifyByRules(query), true
	}

	resolved, err := c.parseClassification(response)
	if err != nil {
		c.logger.Printf("[WARN] Intent parsing failed, using ruleset: %v", err)
		return classifyByRules(query), true
	}

	c.logger.Printf("[INTENT] Resolved: %s (confidence %.2f)", resolved.Intent, resolved.Confidence)

	it, ok := Parse(resolved.Intent)
	if !ok {
		c.logger.Printf("[WARN] Model returned unknown intent %q, using ruleset", resolved.Intent)
		return classifyByRules(query), true
	}
	return it, false
}

func (c *Classifier) buildPrompt(query string) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are an intent classifier for a professional portfolio assistant.\n")
	prompt.WriteString("You do NOT answer questions. You only classify them.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<user_query>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</user_query>\n\n")

	prompt.WriteString("<intent_definitions>\n")
	prompt.WriteString("Choose ONE intent that best matches what the visitor asks about:\n\n")
	prompt.WriteString("EDUCATION: degrees, universities, courses, certifications, academic background\n")
	prompt.WriteString("EXPERIENCE: jobs, employers, roles, responsibilities, career history\n")
	prompt.WriteString("PERSONAL_PROJECT: side projects, open-source work, things built outside a job\n")
	prompt.WriteString("SKILLS: languages, frameworks, tooling, competencies, what the owner is good at\n")
	prompt.WriteString("CASE_STUDY: deep dives into a delivered piece of work, architecture write-ups\n")
	prompt.WriteString("PROJECT_TOUR: a guided walkthrough of the project catalog, 'show me your repos'\n")
	prompt.WriteString("GENERAL: greetings, small talk, or anything that fits no category above\n")
	prompt.WriteString("</intent_definitions>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"intent\": \"EDUCATION|EXPERIENCE|PERSONAL_PROJECT|SKILLS|CASE_STUDY|PROJECT_TOUR|GENERAL\",\n")
	prompt.WriteString("  \"confidence\": 0.95,\n")
	prompt.WriteString("  \"reasoning\": \"Brief explanation\"\n")
	prompt.WriteString("}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func (c *Classifier) parseClassification(response string) (*classification, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var resolved classification
	if err := json.Unmarshal([]byte(jsonContent), &resolved); err != nil {
		return nil, fmt.Errorf("JSON unmarshal failed: %w", err)
	}

	resolved.Intent = strings.ToUpper(strings.TrimSpace(resolved.Intent))
	return &resolved, nil
}

// classifyByRules is the deterministic fallback: first keyword family that
// matches wins, otherwise the default intent.
func classifyByRules(query string) Intent {
	q := strings.ToLower(query)

	rules := []struct {
		intent   Intent
		keywords []string
	}{
		{IntentEducation, []string{"degree", "study", "studied", "university", "college", "education", "course", "certificat", "graduat", "thesis"}},
		{IntentProjectTour, []string{"walk me through", "tour", "show me your projects", "show me your repos", "repositories", "portfolio of projects", "catalog"}},
		{IntentCaseStudy, []string{"case study", "architecture", "deep dive", "how did you build", "design decision", "write-up"}},
		{IntentPersonalProject, []string{"side project", "personal project", "open source", "open-source", "hobby", "built in your free time"}},
		{IntentSkills, []string{"skill", "stack", "framework", "language", "tool", "proficien", "good at", "technolog"}},
		{IntentExperience, []string{"experience", "job", "work", "employer", "company", "role", "career", "position"}},
	}

	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				return rule.intent
			}
		}
	}
	return Default
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
