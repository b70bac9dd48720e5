package respond

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-assistant-be/pkg/intent"
	"portfolio-assistant-be/pkg/llm"
)

// promptRecordingLLM captures the last prompt and temperature it was given.
type promptRecordingLLM struct {
	response string
	err      error

	lastPrompt  string
	lastOptions llm.Options
}

func (p *promptRecordingLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return p.response, p.err
}

func (p *promptRecordingLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	p.lastPrompt = prompt
	p.lastOptions = llm.Options{}
	for _, opt := range options {
		opt(&p.lastOptions)
	}
	return p.response, p.err
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestSetRouting(t *testing.T) {
	provider := &promptRecordingLLM{response: "answer"}
	set := NewDefaultSet(provider, testLogger())

	profile := set.For(intent.IntentEducation)
	assert.Same(t, profile, set.For(intent.IntentExperience))
	assert.Same(t, profile, set.For(intent.IntentSkills))

	project := set.For(intent.IntentPersonalProject)
	assert.Same(t, project, set.For(intent.IntentCaseStudy))
	assert.NotSame(t, profile, project)

	// unmapped intents land on the general fallback
	assert.Same(t, set.For(intent.IntentGeneral), set.For(intent.Intent("UNMAPPED")))
}

func TestRespond_EmptyContextShortCircuits(t *testing.T) {
	provider := &promptRecordingLLM{response: "should not be used"}
	set := NewDefaultSet(provider, testLogger())

	draft, err := set.For(intent.IntentEducation).Respond(context.Background(), Request{
		Query:  "Where did you study?",
		Intent: intent.IntentEducation,
	})
	require.NoError(t, err)
	assert.Empty(t, provider.lastPrompt, "LLM must not be called without context")

	// the canned answer has to clear the 50-rune validation gate
	assert.GreaterOrEqual(t, utf8.RuneCountInString(draft), 50)
}

func TestRespond_TourUsesToolOutputWithoutContext(t *testing.T) {
	provider := &promptRecordingLLM{response: "Here are the repositories worth a look."}
	set := NewDefaultSet(provider, testLogger())

	draft, err := set.For(intent.IntentProjectTour).Respond(context.Background(), Request{
		Query:      "Show me your repos",
		Intent:     intent.IntentProjectTour,
		ToolOutput: "- repo-one (Go)\n- repo-two (TypeScript)",
	})
	require.NoError(t, err)
	assert.Equal(t, "Here are the repositories worth a look.", draft)
	assert.Contains(t, provider.lastPrompt, "<live_data>")
	assert.Contains(t, provider.lastPrompt, "repo-one")
}

func TestRespond_PromptCarriesContextAndQuery(t *testing.T) {
	provider := &promptRecordingLLM{response: "A long enough answer about the degree and coursework."}
	set := NewDefaultSet(provider, testLogger())

	_, err := set.For(intent.IntentEducation).Respond(context.Background(), Request{
		Query:   "Where did you study?",
		Context: "[education] Bachelor of Computer Science\nGraduated with honors.",
		Intent:  intent.IntentEducation,
	})
	require.NoError(t, err)
	assert.Contains(t, provider.lastPrompt, "<reference_material>")
	assert.Contains(t, provider.lastPrompt, "Bachelor of Computer Science")
	assert.Contains(t, provider.lastPrompt, "Where did you study?")
}

func TestRespond_StrategyControlsTemperature(t *testing.T) {
	provider := &promptRecordingLLM{response: "A perfectly reasonable draft answer."}
	set := NewDefaultSet(provider, testLogger())
	req := Request{
		Query:   "q",
		Context: "some context",
		Intent:  intent.IntentGeneral,
	}

	_, err := set.For(intent.IntentGeneral).Respond(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0.7, provider.lastOptions.Temperature)

	req.Strategy = StrategyAlternate
	_, err = set.For(intent.IntentGeneral).Respond(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0.2, provider.lastOptions.Temperature)
}

func TestRespond_BlankModelOutputIsErrEmptyDraft(t *testing.T) {
	provider := &promptRecordingLLM{response: "   \n  "}
	set := NewDefaultSet(provider, testLogger())

	_, err := set.For(intent.IntentGeneral).Respond(context.Background(), Request{
		Query:   "q",
		Context: "ctx",
		Intent:  intent.IntentGeneral,
	})
	require.ErrorIs(t, err, ErrEmptyDraft)
}

func TestRespond_ProviderErrorPropagates(t *testing.T) {
	wantErr := errors.New("model overloaded")
	provider := &promptRecordingLLM{err: wantErr}
	set := NewDefaultSet(provider, testLogger())

	_, err := set.For(intent.IntentCaseStudy).Respond(context.Background(), Request{
		Query:   "q",
		Context: "ctx",
		Intent:  intent.IntentCaseStudy,
	})
	require.ErrorIs(t, err, wantErr)
}

func TestGuidelinesTightenOnAlternate(t *testing.T) {
	base := baseGuidelines()
	alt := alternateGuidelines()
	assert.NotEqual(t, base, alt)
	assert.NotEmpty(t, alt)
	for _, line := range alt {
		assert.NotEmpty(t, strings.TrimSpace(line))
	}
}
