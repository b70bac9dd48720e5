// Package orchestrator drives one visitor query through the full pipeline:
// classify, enrich, dispatch tools, respond, validate. The flow is linear
// with a single bounded back-edge from validation to enrichment or response.
package orchestrator

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"portfolio-assistant-be/pkg/enrich"
	"portfolio-assistant-be/pkg/events"
	"portfolio-assistant-be/pkg/guardrail"
	"portfolio-assistant-be/pkg/intent"
	"portfolio-assistant-be/pkg/respond"
	"portfolio-assistant-be/pkg/store"
	"portfolio-assistant-be/pkg/telemetry"
	"portfolio-assistant-be/pkg/tools"
)

// Config caps how long each stage may run. A stage hitting its deadline is
// treated like any other stage failure, never a panic.
type Config struct {
	ClassifyTimeout time.Duration
	EnrichTimeout   time.Duration
	DispatchTimeout time.Duration
	RespondTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		ClassifyTimeout: 2 * time.Second,
		EnrichTimeout:   3 * time.Second,
		DispatchTimeout: 5 * time.Second,
		RespondTimeout:  5 * time.Second,
	}
}

// Options are per-request knobs.
type Options struct {
	// Stream enables event emission for a live client.
	Stream bool
	// ForceIntent skips classification when set to a valid intent.
	ForceIntent string
	// RequestID lets streaming clients subscribe before the pipeline runs.
	// Zero means generate one.
	RequestID uuid.UUID
	// Sink receives events as they happen; may be nil.
	Sink events.Sink
}

// Result is the terminal answer. HandleQuery always produces one.
type Result struct {
	RequestID  uuid.UUID         `json:"request_id"`
	Response   string            `json:"response"`
	Intent     intent.Intent     `json:"intent"`
	Sources    []store.SourceRef `json:"sources,omitempty"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
	State      guardrail.State   `json:"state"`
	ChunkCount int               `json:"chunk_count"`
	Events     []events.Event    `json:"events,omitempty"`
}

// Orchestrator owns the pipeline components. Safe for concurrent use; all
// per-request mutation lives in RequestState.
type Orchestrator struct {
	classifier *intent.Classifier
	enricher   *enrich.Enricher
	dispatcher *tools.Dispatcher
	responders *respond.Set
	gate       *guardrail.Gate
	recorder   telemetry.Recorder
	config     Config
	logger     *log.Logger
}

func New(
	classifier *intent.Classifier,
	enricher *enrich.Enricher,
	dispatcher *tools.Dispatcher,
	responders *respond.Set,
	gate *guardrail.Gate,
	recorder telemetry.Recorder,
	config Config,
	logger *log.Logger,
) *Orchestrator {
	return &Orchestrator{
		classifier: classifier,
		enricher:   enricher,
		dispatcher: dispatcher,
		responders: responders,
		gate:       gate,
		recorder:   recorder,
		config:     config,
		logger:     logger,
	}
}

// HandleQuery runs the pipeline. It never returns an error: every failure
// path, timeouts and cancellation included, ends in a well-formed Result.
func (o *Orchestrator) HandleQuery(ctx context.Context, query string, opts Options) *Result {
	state := store.NewRequestState(opts.RequestID, query, opts.Stream)
	emitter := events.NewEmitter(state.ID, state.StartedAt, state.Events, opts.Sink, opts.Stream)

	o.logger.Printf("[DEBUG] Query %s started: %q", state.ID, query)

	o.classify(ctx, state, opts, emitter)

	if o.cancelled(ctx, state, emitter) {
		return o.finish(state, emitter, guardrail.StateFailedSafe, guardrail.SafeFallback)
	}

	o.enrichStage(ctx, state, emitter, false)

	if o.cancelled(ctx, state, emitter) {
		return o.finish(state, emitter, guardrail.StateFailedSafe, guardrail.SafeFallback)
	}

	toolOutput := o.dispatchStage(ctx, state, emitter)

	if o.cancelled(ctx, state, emitter) {
		return o.finish(state, emitter, guardrail.StateFailedSafe, guardrail.SafeFallback)
	}

	finalState := o.respondAndValidate(ctx, state, emitter, toolOutput)

	return o.finish(state, emitter, finalState, state.Draft)
}

func (o *Orchestrator) classify(ctx context.Context, state *store.RequestState, opts Options, emitter *events.Emitter) {
	start := time.Now()

	if opts.ForceIntent != "" {
		if forced, ok := intent.Parse(opts.ForceIntent); ok {
			state.AssignIntent(forced)
			emitter.Emit(events.TypeIntentClassified, map[string]any{
				"intent": forced.String(),
				"forced": true,
			})
			return
		}
		o.logger.Printf("[WARN] Ignoring unknown forced intent %q", opts.ForceIntent)
	}

	cctx, cancel := context.WithTimeout(ctx, o.config.ClassifyTimeout)
	defer cancel()

	resolved, degraded := o.classifier.Classify(cctx, state.Query)
	state.AssignIntent(resolved)
	if degraded {
		state.Metadata[store.MetaClassifierPath] = true
	}

	o.recorder.RecordLatency("classify", time.Since(start).Milliseconds())
	emitter.Emit(events.TypeIntentClassified, map[string]any{
		"intent":   resolved.String(),
		"degraded": degraded,
	})
}

func (o *Orchestrator) enrichStage(ctx context.Context, state *store.RequestState, emitter *events.Emitter, wide bool) {
	start := time.Now()

	ectx, cancel := context.WithTimeout(ctx, o.config.EnrichTimeout)
	defer cancel()

	enrichment, err := o.enricher.Enrich(ectx, state.Intent, state.Query, wide)
	if err != nil {
		// Both retrieval legs down. Respond from nothing rather than fail
		// the request.
		o.logger.Printf("[WARN] Enrichment failed, responding without context: %v", err)
		state.Context = ""
		state.Sources = nil
		state.Metadata[store.MetaDegraded] = true
		state.Metadata[store.MetaFallbackReason] = "retrieval_unavailable"
		emitter.Emit(events.TypeDegraded, map[string]any{"reason": "retrieval_unavailable"})
		return
	}

	state.Context = enrichment.Context
	state.Sources = enrichment.Sources
	if enrichment.Degraded {
		state.Metadata[store.MetaDegraded] = true
		state.Metadata[store.MetaFallbackReason] = enrichment.FallbackReason
		emitter.Emit(events.TypeDegraded, map[string]any{"reason": enrichment.FallbackReason})
	}

	o.recorder.RecordLatency("enrich", time.Since(start).Milliseconds())
	emitter.Emit(events.TypeContextEnriched, map[string]any{
		"chunks": enrichment.ChunkCount,
		"wide":   wide,
	})
}

func (o *Orchestrator) dispatchStage(ctx context.Context, state *store.RequestState, emitter *events.Emitter) string {
	specs := tools.SpecsFor(state.Intent, state.Query)
	if len(specs) == 0 {
		return ""
	}

	start := time.Now()
	dctx, cancel := context.WithTimeout(ctx, o.config.DispatchTimeout)
	defer cancel()

	invocations := o.dispatcher.Dispatch(dctx, specs)
	state.Metadata[store.MetaToolInvocation] = invocations

	var output string
	for _, inv := range invocations {
		emitter.Emit(events.TypeToolDispatched, map[string]any{
			"tool":      inv.ToolID,
			"succeeded": inv.Succeeded,
		})
		if inv.Succeeded {
			if output != "" {
				output += "\n\n"
			}
			output += inv.Output
		}
	}

	o.recorder.RecordLatency("dispatch", time.Since(start).Milliseconds())
	return output
}

// respondAndValidate is the bounded retry loop. Each pass generates one
// draft and evaluates it; RETRY verdicts adjust either retrieval width or
// generation strategy, never both at once.
func (o *Orchestrator) respondAndValidate(ctx context.Context, state *store.RequestState, emitter *events.Emitter, toolOutput string) guardrail.State {
	strategy := respond.StrategyDefault

	for {
		draft, genErr := o.generateDraft(ctx, state, toolOutput, strategy)
		if genErr == nil {
			state.Draft = draft
			emitter.Emit(events.TypeDraftGenerated, map[string]any{
				"runes":    len([]rune(draft)),
				"strategy": string(strategy),
			})
		}

		verdict := o.gate.Evaluate(draft, state.RetryCount, genErr != nil)
		emitter.Emit(events.TypeValidation, map[string]any{
			"state":  string(verdict.State),
			"reason": verdict.Reason,
		})
		o.recorder.RecordEvent("validation", map[string]string{
			"state":  string(verdict.State),
			"reason": verdict.Reason,
		})

		switch verdict.State {
		case guardrail.StatePassed:
			state.Draft = draft
			return guardrail.StatePassed

		case guardrail.StateFailedSafe:
			state.Metadata[store.MetaValidatorState] = string(guardrail.StateFailedSafe)
			state.Draft = guardrail.SafeFallback
			return guardrail.StateFailedSafe

		case guardrail.StateRetry:
			state.RetryCount++
			state.Metadata[store.MetaRetryCount] = state.RetryCount
			emitter.Emit(events.TypeRetry, map[string]any{
				"attempt": state.RetryCount,
				"action":  string(verdict.Action),
			})

			if o.cancelled(ctx, state, emitter) {
				state.Draft = guardrail.SafeFallback
				return guardrail.StateFailedSafe
			}

			switch verdict.Action {
			case guardrail.ActionWidenRetrieval:
				o.enrichStage(ctx, state, emitter, true)
			case guardrail.ActionAlternateStrategy:
				strategy = respond.StrategyAlternate
			}
		}
	}
}

func (o *Orchestrator) generateDraft(ctx context.Context, state *store.RequestState, toolOutput string, strategy respond.Strategy) (string, error) {
	rctx, cancel := context.WithTimeout(ctx, o.config.RespondTimeout)
	defer cancel()

	start := time.Now()
	responder := o.responders.For(state.Intent)
	draft, err := responder.Respond(rctx, respond.Request{
		Query:      state.Query,
		Context:    state.Context,
		Intent:     state.Intent,
		ToolOutput: toolOutput,
		Strategy:   strategy,
	})
	o.recorder.RecordLatency("respond", time.Since(start).Milliseconds())
	return draft, err
}

func (o *Orchestrator) cancelled(ctx context.Context, state *store.RequestState, emitter *events.Emitter) bool {
	if ctx.Err() == nil {
		return false
	}
	o.logger.Printf("[WARN] Query %s cancelled: %v", state.ID, ctx.Err())
	state.Metadata[store.MetaCancelled] = true
	return true
}

func (o *Orchestrator) finish(state *store.RequestState, emitter *events.Emitter, finalState guardrail.State, response string) *Result {
	emitter.Emit(events.TypeCompleted, map[string]any{
		"state":       string(finalState),
		"retry_count": state.RetryCount,
	})

	o.recorder.RecordEvent("query_completed", map[string]string{
		"intent": state.Intent.String(),
		"state":  string(finalState),
	})

	o.logger.Printf("[DEBUG] Query %s finished: state=%s retries=%d chunks=%d",
		state.ID, finalState, state.RetryCount, len(state.Sources))

	return &Result{
		RequestID:  state.ID,
		Response:   response,
		Intent:     state.Intent,
		Sources:    state.Sources,
		Metadata:   state.Metadata,
		State:      finalState,
		ChunkCount: len(state.Sources),
		Events:     state.Events.Snapshot(),
	}
}
