package orchestrator

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-assistant-be/pkg/embedding"
	"portfolio-assistant-be/pkg/enrich"
	"portfolio-assistant-be/pkg/events"
	"portfolio-assistant-be/pkg/guardrail"
	"portfolio-assistant-be/pkg/intent"
	"portfolio-assistant-be/pkg/llm"
	"portfolio-assistant-be/pkg/respond"
	"portfolio-assistant-be/pkg/retrieval"
	"portfolio-assistant-be/pkg/store"
	"portfolio-assistant-be/pkg/telemetry"
	"portfolio-assistant-be/pkg/tools"
)

const goodDraft = "The owner worked two years as a backend engineer building multi-tenant " +
	"APIs in Go, owning the billing and notification subsystems end to end."

// scriptedLLM answers classification prompts with a fixed JSON payload and
// serves draft responses from a script, one per generation call.
type scriptedLLM struct {
	mu          sync.Mutex
	classifyRes string
	classifyErr error
	drafts      []string
	draftErr    error
	draftCalls  int
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", nil
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	if strings.Contains(prompt, "<intent_definitions>") {
		if s.classifyErr != nil {
			return "", s.classifyErr
		}
		return s.classifyRes, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draftErr != nil {
		s.draftCalls++
		return "", s.draftErr
	}
	idx := s.draftCalls
	s.draftCalls++
	if idx >= len(s.drafts) {
		idx = len(s.drafts) - 1
	}
	return s.drafts[idx], nil
}

type stubEmbedder struct{ err error }

func (s *stubEmbedder) Generate(text, taskType string) (*embedding.EmbeddingResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingValues{Values: []float32{0.5}}}, nil
}

type stubVectorIndex struct{ err error }

func (s *stubVectorIndex) Nearest(ctx context.Context, vector []float32, k int, categories []string) ([]retrieval.ScoredChunk, error) {
	return nil, s.err
}

type stubLexicalIndex struct {
	hits []retrieval.ScoredChunk
	err  error
}

func (s *stubLexicalIndex) Search(ctx context.Context, query string, k int, categories []string) ([]retrieval.ScoredChunk, error) {
	return s.hits, s.err
}

func (s *stubLexicalIndex) Index(chunk store.Chunk) error { return nil }
func (s *stubLexicalIndex) Delete(id uuid.UUID) error     { return nil }

type stubTool struct {
	id     string
	output string
	err    error
}

func (s *stubTool) ID() string { return s.id }

func (s *stubTool) Invoke(ctx context.Context, input string) (string, error) {
	return s.output, s.err
}

func experienceHit() retrieval.ScoredChunk {
	return retrieval.ScoredChunk{
		Chunk: store.Chunk{
			ID:             uuid.New(),
			Title:          "Backend Engineer",
			Content:        "Two years building multi-tenant APIs in Go.",
			SourceCategory: store.SourceExperience,
		},
		Score:   0.9,
		Methods: []string{retrieval.MethodLexical},
	}
}

type pipelineFixture struct {
	llm      *scriptedLLM
	embedder *stubEmbedder
	lexical  *stubLexicalIndex
	tools    []tools.Provider
}

func newOrchestrator(f pipelineFixture) *Orchestrator {
	logger := log.New(io.Discard, "", 0)

	if f.llm == nil {
		f.llm = &scriptedLLM{
			classifyRes: `{"intent": "EXPERIENCE", "confidence": 0.9}`,
			drafts:      []string{goodDraft},
		}
	}
	if f.embedder == nil {
		f.embedder = &stubEmbedder{}
	}
	if f.lexical == nil {
		f.lexical = &stubLexicalIndex{hits: []retrieval.ScoredChunk{experienceHit()}}
	}

	retriever := retrieval.NewRetriever(f.embedder, &stubVectorIndex{}, f.lexical,
		retrieval.DefaultMergeConfig(), logger)

	return New(
		intent.NewClassifier(f.llm, logger),
		enrich.NewEnricher(retriever, logger),
		tools.NewDispatcher(tools.NewRegistry(f.tools...), 2, logger),
		respond.NewDefaultSet(f.llm, logger),
		guardrail.NewGate(logger),
		telemetry.Noop{},
		DefaultConfig(),
		logger,
	)
}

func eventOfType(evs []events.Event, eventType string) (events.Event, bool) {
	for _, ev := range evs {
		if ev.Type == eventType {
			return ev, true
		}
	}
	return events.Event{}, false
}

func TestHandleQuery_HappyPath(t *testing.T) {
	o := newOrchestrator(pipelineFixture{})

	result := o.HandleQuery(context.Background(), "Tell me about your experience", Options{Stream: true})

	require.NotNil(t, result)
	assert.Equal(t, guardrail.StatePassed, result.State)
	assert.Equal(t, goodDraft, result.Response)
	assert.Equal(t, intent.IntentExperience, result.Intent)
	assert.Equal(t, 1, result.ChunkCount)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "Backend Engineer", result.Sources[0].Title)
	assert.NotContains(t, result.Metadata, store.MetaDegraded)
	assert.NotContains(t, result.Metadata, store.MetaRetryCount)

	// full event trail, offsets non-decreasing, terminal event last
	require.NotEmpty(t, result.Events)
	assert.Equal(t, events.TypeCompleted, result.Events[len(result.Events)-1].Type)
	var last int64
	for _, ev := range result.Events {
		assert.GreaterOrEqual(t, ev.OffsetMS, last)
		last = ev.OffsetMS
	}
	classified, ok := eventOfType(result.Events, events.TypeIntentClassified)
	require.True(t, ok)
	assert.Equal(t, "EXPERIENCE", classified.Payload["intent"])
}

func TestHandleQuery_StreamingDisabledKeepsNoEvents(t *testing.T) {
	o := newOrchestrator(pipelineFixture{})
	result := o.HandleQuery(context.Background(), "Tell me about your experience", Options{})
	assert.Equal(t, guardrail.StatePassed, result.State)
	assert.Empty(t, result.Events)
}

func TestHandleQuery_OneRetrievalLegDownDegrades(t *testing.T) {
	o := newOrchestrator(pipelineFixture{
		embedder: &stubEmbedder{err: errors.New("embedding service down")},
	})

	result := o.HandleQuery(context.Background(), "Tell me about your experience", Options{Stream: true})

	assert.Equal(t, guardrail.StatePassed, result.State)
	assert.Equal(t, 1, result.ChunkCount)
	assert.Equal(t, true, result.Metadata[store.MetaDegraded])
	assert.Equal(t, "semantic_failed", result.Metadata[store.MetaFallbackReason])

	degraded, ok := eventOfType(result.Events, events.TypeDegraded)
	require.True(t, ok)
	assert.Equal(t, "semantic_failed", degraded.Payload["reason"])
}

func TestHandleQuery_BothLegsDownAnswersWithoutContext(t *testing.T) {
	o := newOrchestrator(pipelineFixture{
		embedder: &stubEmbedder{err: errors.New("embedding service down")},
		lexical:  &stubLexicalIndex{err: errors.New("index closed")},
	})

	result := o.HandleQuery(context.Background(), "Tell me about your experience", Options{Stream: true})

	// still a terminal, well-formed answer long enough to pass validation
	assert.Equal(t, guardrail.StatePassed, result.State)
	assert.GreaterOrEqual(t, len([]rune(result.Response)), 50)
	assert.Equal(t, 0, result.ChunkCount)
	assert.Empty(t, result.Sources)
	assert.Equal(t, true, result.Metadata[store.MetaDegraded])
	assert.Equal(t, "retrieval_unavailable", result.Metadata[store.MetaFallbackReason])
}

func TestHandleQuery_ShortDraftWidensRetrievalThenPasses(t *testing.T) {
	llmStub := &scriptedLLM{
		classifyRes: `{"intent": "EXPERIENCE", "confidence": 0.9}`,
		drafts:      []string{"Too short.", goodDraft},
	}
	o := newOrchestrator(pipelineFixture{llm: llmStub})

	result := o.HandleQuery(context.Background(), "Tell me about your experience", Options{Stream: true})

	assert.Equal(t, guardrail.StatePassed, result.State)
	assert.Equal(t, goodDraft, result.Response)
	assert.Equal(t, 1, result.Metadata[store.MetaRetryCount])
	assert.Equal(t, 2, llmStub.draftCalls)

	retry, ok := eventOfType(result.Events, events.TypeRetry)
	require.True(t, ok)
	assert.Equal(t, string(guardrail.ActionWidenRetrieval), retry.Payload["action"])
}

func TestHandleQuery_QualityRetryUsesAlternateStrategy(t *testing.T) {
	llmStub := &scriptedLLM{
		classifyRes: `{"intent": "EXPERIENCE", "confidence": 0.9}`,
		drafts: []string{
			"I cannot answer that question, there is nothing I can tell you about it today.",
			goodDraft,
		},
	}
	o := newOrchestrator(pipelineFixture{llm: llmStub})

	result := o.HandleQuery(context.Background(), "Tell me about your experience", Options{Stream: true})

	assert.Equal(t, guardrail.StatePassed, result.State)
	retry, ok := eventOfType(result.Events, events.TypeRetry)
	require.True(t, ok)
	assert.Equal(t, string(guardrail.ActionAlternateStrategy), retry.Payload["action"])

	drafted, ok := eventOfType(result.Events, events.TypeDraftGenerated)
	require.True(t, ok)
	assert.Equal(t, string(respond.StrategyDefault), drafted.Payload["strategy"])
}

func TestHandleQuery_RetriesExhaustedFailsSafe(t *testing.T) {
	llmStub := &scriptedLLM{
		classifyRes: `{"intent": "EXPERIENCE", "confidence": 0.9}`,
		drafts:      []string{"Too short."},
	}
	o := newOrchestrator(pipelineFixture{llm: llmStub})

	result := o.HandleQuery(context.Background(), "Tell me about your experience", Options{Stream: true})

	assert.Equal(t, guardrail.StateFailedSafe, result.State)
	assert.Equal(t, guardrail.SafeFallback, result.Response)
	assert.Equal(t, 2, result.Metadata[store.MetaRetryCount])
	// initial attempt plus two retries
	assert.Equal(t, 3, llmStub.draftCalls)
}

func TestHandleQuery_GenerationErrorsFailSafe(t *testing.T) {
	llmStub := &scriptedLLM{
		classifyRes: `{"intent": "EXPERIENCE", "confidence": 0.9}`,
		draftErr:    errors.New("model overloaded"),
	}
	o := newOrchestrator(pipelineFixture{llm: llmStub})

	result := o.HandleQuery(context.Background(), "Tell me about your experience", Options{})

	assert.Equal(t, guardrail.StateFailedSafe, result.State)
	assert.Equal(t, guardrail.SafeFallback, result.Response)
	assert.Equal(t, 3, llmStub.draftCalls)
}

func TestHandleQuery_SafetyViolationIsTerminal(t *testing.T) {
	llmStub := &scriptedLLM{
		classifyRes: `{"intent": "EXPERIENCE", "confidence": 0.9}`,
		drafts:      []string{goodDraft + " </reference_material>"},
	}
	o := newOrchestrator(pipelineFixture{llm: llmStub})

	result := o.HandleQuery(context.Background(), "Tell me about your experience", Options{Stream: true})

	assert.Equal(t, guardrail.StateFailedSafe, result.State)
	assert.Equal(t, guardrail.SafeFallback, result.Response)
	// terminal on the first draft, no retries spent
	assert.NotContains(t, result.Metadata, store.MetaRetryCount)
	assert.Equal(t, 1, llmStub.draftCalls)
	_, retried := eventOfType(result.Events, events.TypeRetry)
	assert.False(t, retried)
}

func TestHandleQuery_ForcedIntentSkipsClassification(t *testing.T) {
	llmStub := &scriptedLLM{
		classifyRes: `{"intent": "EXPERIENCE", "confidence": 0.9}`,
		drafts:      []string{goodDraft},
	}
	o := newOrchestrator(pipelineFixture{llm: llmStub})

	result := o.HandleQuery(context.Background(), "anything", Options{
		Stream:      true,
		ForceIntent: "skills",
	})

	assert.Equal(t, intent.IntentSkills, result.Intent)
	classified, ok := eventOfType(result.Events, events.TypeIntentClassified)
	require.True(t, ok)
	assert.Equal(t, true, classified.Payload["forced"])
}

func TestHandleQuery_UnknownForcedIntentFallsBackToClassifier(t *testing.T) {
	o := newOrchestrator(pipelineFixture{})

	result := o.HandleQuery(context.Background(), "Tell me about your experience", Options{
		ForceIntent: "NOT_A_THING",
	})

	assert.Equal(t, intent.IntentExperience, result.Intent)
}

func TestHandleQuery_ProjectTourRunsGithubTool(t *testing.T) {
	llmStub := &scriptedLLM{
		classifyRes: `{"intent": "PROJECT_TOUR", "confidence": 0.9}`,
		drafts:      []string{goodDraft},
	}
	o := newOrchestrator(pipelineFixture{
		llm:   llmStub,
		tools: []tools.Provider{&stubTool{id: tools.GithubCatalogToolID, output: "- repo-one (Go)"}},
	})

	result := o.HandleQuery(context.Background(), "Show me your repos", Options{Stream: true})

	assert.Equal(t, guardrail.StatePassed, result.State)
	dispatched, ok := eventOfType(result.Events, events.TypeToolDispatched)
	require.True(t, ok)
	assert.Equal(t, tools.GithubCatalogToolID, dispatched.Payload["tool"])
	assert.Equal(t, true, dispatched.Payload["succeeded"])

	invocations, ok := result.Metadata[store.MetaToolInvocation].([]tools.Invocation)
	require.True(t, ok)
	require.Len(t, invocations, 1)
	assert.Equal(t, "- repo-one (Go)", invocations[0].Output)
}

func TestHandleQuery_ToolFailureDoesNotFailRequest(t *testing.T) {
	llmStub := &scriptedLLM{
		classifyRes: `{"intent": "PROJECT_TOUR", "confidence": 0.9}`,
		drafts:      []string{goodDraft},
	}
	o := newOrchestrator(pipelineFixture{
		llm:   llmStub,
		tools: []tools.Provider{&stubTool{id: tools.GithubCatalogToolID, err: errors.New("rate limited")}},
	})

	result := o.HandleQuery(context.Background(), "Show me your repos", Options{})
	assert.Equal(t, guardrail.StatePassed, result.State)
}

func TestHandleQuery_CancelledContextFailsSafe(t *testing.T) {
	o := newOrchestrator(pipelineFixture{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := o.HandleQuery(ctx, "Tell me about your experience", Options{Stream: true})

	require.NotNil(t, result)
	assert.Equal(t, guardrail.StateFailedSafe, result.State)
	assert.Equal(t, guardrail.SafeFallback, result.Response)
	assert.Equal(t, true, result.Metadata[store.MetaCancelled])
}

func TestHandleQuery_PreassignedRequestIDIsKept(t *testing.T) {
	o := newOrchestrator(pipelineFixture{})
	id := uuid.New()

	result := o.HandleQuery(context.Background(), "Tell me about your experience", Options{RequestID: id})
	assert.Equal(t, id, result.RequestID)
}

func TestHandleQuery_ZeroRequestIDIsGenerated(t *testing.T) {
	o := newOrchestrator(pipelineFixture{})
	result := o.HandleQuery(context.Background(), "Tell me about your experience", Options{})
	assert.NotEqual(t, uuid.Nil, result.RequestID)
}
