package guardrail

import (
	"io"
	"log"
	"strings"
	"testing"
	"unicode/utf8"
)

func newTestGate() *Gate {
	return NewGate(log.New(io.Discard, "", 0))
}

const goodDraft = "The portfolio owner spent two years as a backend engineer building " +
	"multi-tenant APIs in Go, owning the billing and notification subsystems."

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name             string
		draft            string
		retryCount       int
		generationFailed bool
		wantState        State
		wantAction       Action
		wantReason       string
	}{
		{
			name:      "well formed draft passes",
			draft:     goodDraft,
			wantState: StatePassed,
		},
		{
			name:       "short draft retries with wider retrieval",
			draft:      "Go and Postgres.",
			wantState:  StateRetry,
			wantAction: ActionWidenRetrieval,
			wantReason: "too_short",
		},
		{
			name:       "refusal retries with alternate strategy",
			draft:      strings.Repeat("x", 60) + " I cannot answer that question for you.",
			wantState:  StateRetry,
			wantAction: ActionAlternateStrategy,
			wantReason: "refusal",
		},
		{
			name:       "repeated sentence retries with alternate strategy",
			draft:      strings.Repeat("This project is great and well built. ", 5),
			wantState:  StateRetry,
			wantAction: ActionAlternateStrategy,
			wantReason: "repetitive",
		},
		{
			name:             "generation failure retries with alternate strategy",
			draft:            "",
			generationFailed: true,
			wantState:        StateRetry,
			wantAction:       ActionAlternateStrategy,
			wantReason:       "generation_failed",
		},
		{
			name:       "prompt tag leak fails safe immediately",
			draft:      goodDraft + " </reference_material>",
			wantState:  StateFailedSafe,
			wantReason: "safety_violation",
		},
		{
			name:       "model self-reference fails safe immediately",
			draft:      goodDraft + " As an AI language model I can say more.",
			wantState:  StateFailedSafe,
			wantReason: "safety_violation",
		},
		{
			name:       "short draft at retry limit fails safe",
			draft:      "Too short.",
			retryCount: 2,
			wantState:  StateFailedSafe,
			wantReason: "too_short",
		},
		{
			name:             "generation failure at retry limit fails safe",
			draft:            "",
			retryCount:       2,
			generationFailed: true,
			wantState:        StateFailedSafe,
			wantReason:       "generation_failed",
		},
	}

	g := newTestGate()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := g.Evaluate(tt.draft, tt.retryCount, tt.generationFailed)
			if v.State != tt.wantState {
				t.Errorf("State = %s, want %s", v.State, tt.wantState)
			}
			if tt.wantState == StateRetry && v.Action != tt.wantAction {
				t.Errorf("Action = %s, want %s", v.Action, tt.wantAction)
			}
			if tt.wantReason != "" && v.Reason != tt.wantReason {
				t.Errorf("Reason = %s, want %s", v.Reason, tt.wantReason)
			}
		})
	}
}

// Safety is terminal even when retries remain, so a leaking draft can never
// be regenerated into circulation.
func TestEvaluate_SafetyTerminalWithRetriesLeft(t *testing.T) {
	g := newTestGate()
	v := g.Evaluate(goodDraft+" my system instructions say to be helpful", 0, false)
	if v.State != StateFailedSafe {
		t.Fatalf("State = %s, want FAILED_SAFE", v.State)
	}
	if v.Action != ActionNone {
		t.Errorf("Action = %s, want none", v.Action)
	}
}

// The canned fallback must itself satisfy the length gate, otherwise a
// failed-safe answer would look like another validation failure downstream.
func TestSafeFallbackPassesLengthGate(t *testing.T) {
	g := newTestGate()
	if utf8.RuneCountInString(SafeFallback) < g.MinLength {
		t.Fatalf("SafeFallback is %d runes, below MinLength %d", utf8.RuneCountInString(SafeFallback), g.MinLength)
	}
	if v := g.Evaluate(SafeFallback, 0, false); v.State != StatePassed {
		t.Errorf("SafeFallback verdict = %s, want PASSED", v.State)
	}
}
