// Package guardrail validates draft answers before they leave the pipeline.
// Drafts move through a small state machine: every draft starts PENDING and
// ends PASSED, RETRY, or FAILED_SAFE.
package guardrail

import (
	"log"
	"regexp"
	"strings"
	"unicode/utf8"
)

// State of a draft under validation.
type State string

const (
	StatePending    State = "PENDING"
	StatePassed     State = "PASSED"
	StateRetry      State = "RETRY"
	StateFailedSafe State = "FAILED_SAFE"
)

// Action tells the orchestrator how to retry.
type Action string

const (
	ActionNone Action = ""
	// ActionWidenRetrieval re-runs enrichment with the wider profile.
	ActionWidenRetrieval Action = "widen_retrieval"
	// ActionAlternateStrategy re-runs the responder with the alternate
	// generation strategy.
	ActionAlternateStrategy Action = "alternate_strategy"
)

// Verdict is the outcome of one validation pass.
type Verdict struct {
	State  State
	Action Action
	Reason string
}

// SafeFallback is the canned answer returned when validation exhausts its
// retries or trips the safety check.
const SafeFallback = "I wasn't able to put together a reliable answer for that question right now. " +
	"You're welcome to rephrase it, or ask about the projects, experience, education, or skills covered in this portfolio."

// Gate runs the ordered validation checks: length, then quality, then
// safety. Safety failures are terminal regardless of remaining retries.
type Gate struct {
	MinLength  int
	MaxRetries int
	logger     *log.Logger

	safetyPatterns []*regexp.Regexp
}

func NewGate(logger *log.Logger) *Gate {
	return &Gate{
		MinLength:  50,
		MaxRetries: 2,
		logger:     logger,
		safetyPatterns: []*regexp.Regexp{
			// Prompt-leak markers: tag structure from our own prompts
			// surfacing in the answer.
			regexp.MustCompile(`(?i)</?(?:reference_material|task|guidelines|user_question|live_data)>`),
			// The model talking about its instructions instead of answering.
			regexp.MustCompile(`(?i)\bas an ai (?:language )?model\b`),
			regexp.MustCompile(`(?i)\bmy (?:system )?instructions (?:say|tell|are)\b`),
		},
	}
}

// Evaluate runs the checks against a draft. generationFailed marks drafts
// whose responder errored; they skip straight to the quality path so the
// retry uses the alternate strategy.
func (g *Gate) Evaluate(draft string, retryCount int, generationFailed bool) Verdict {
	if generationFailed {
		return g.fail(retryCount, ActionAlternateStrategy, "generation_failed")
	}

	if utf8.RuneCountInString(strings.TrimSpace(draft)) < g.MinLength {
		return g.fail(retryCount, ActionWidenRetrieval, "too_short")
	}

	if reason, ok := g.qualityIssue(draft); ok {
		return g.fail(retryCount, ActionAlternateStrategy, reason)
	}

	for _, pattern := range g.safetyPatterns {
		if pattern.MatchString(draft) {
			g.logger.Printf("[WARN] Safety check tripped: %s", pattern.String())
			return Verdict{State: StateFailedSafe, Reason: "safety_violation"}
		}
	}

	return Verdict{State: StatePassed}
}

func (g *Gate) fail(retryCount int, action Action, reason string) Verdict {
	if retryCount >= g.MaxRetries {
		g.logger.Printf("[WARN] Validation retries exhausted (%d), failing safe: %s", retryCount, reason)
		return Verdict{State: StateFailedSafe, Reason: reason}
	}
	return Verdict{State: StateRetry, Action: action, Reason: reason}
}

// qualityIssue flags drafts that are technically long enough but useless:
// the model refusing, apologizing in a loop, or echoing the question.
func (g *Gate) qualityIssue(draft string) (string, bool) {
	lower := strings.ToLower(draft)

	refusals := []string{
		"i cannot answer",
		"i can't answer",
		"i am unable to answer",
		"i'm unable to answer",
	}
	for _, phrase := range refusals {
		if strings.Contains(lower, phrase) {
			return "refusal", true
		}
	}

	// A draft that is one sentence repeated is a degenerate generation.
	if isRepetitive(draft) {
		return "repetitive", true
	}

	return "", false
}

func isRepetitive(draft string) bool {
	sentences := strings.Split(draft, ".")
	if len(sentences) < 4 {
		return false
	}
	seen := make(map[string]int)
	for _, s := range sentences {
		s = strings.TrimSpace(strings.ToLower(s))
		if s == "" {
			continue
		}
		seen[s]++
		if seen[s] >= 3 {
			return true
		}
	}
	return false
}
