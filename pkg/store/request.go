package store

import (
	"time"

	"github.com/google/uuid"

	"portfolio-assistant-be/pkg/events"
	"portfolio-assistant-be/pkg/intent"
)

// Metadata keys written by the orchestration pipeline.
const (
	MetaDegraded       = "degraded"
	MetaRetryCount     = "retry_count"
	MetaFallbackReason = "fallback_reason"
	MetaValidatorState = "validator_state"
	MetaToolInvocation = "tool_invocation"
	MetaCancelled      = "cancelled"
	MetaClassifierPath = "classifier_degraded"
)

// RequestState is the single mutable value threaded through one query's
// pipeline. The orchestrator owns it exclusively for the request's lifetime;
// no component keeps a reference past its own call.
type RequestState struct {
	ID         uuid.UUID
	Query      string
	Intent     intent.Intent
	Context    string
	Draft      string
	Sources    []SourceRef
	Metadata   map[string]any
	RetryCount int
	StartedAt  time.Time
	Streaming  bool
	Events     *events.Log

	intentSet bool
}

// NewRequestState creates the per-request state. A zero id is replaced so
// streaming clients can subscribe before the pipeline starts.
func NewRequestState(id uuid.UUID, query string, streaming bool) *RequestState {
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &RequestState{
		ID:        id,
		Query:     query,
		Intent:    intent.Default,
		Metadata:  make(map[string]any),
		StartedAt: time.Now(),
		Streaming: streaming,
		Events:    events.NewLog(),
	}
}

// AssignIntent sets the intent exactly once. Later calls are ignored, which
// keeps the write-once invariant even if a caller misbehaves.
func (s *RequestState) AssignIntent(it intent.Intent) bool {
	if s.intentSet {
		return false
	}
	s.Intent = it
	s.intentSet = true
	return true
}

// IntentAssigned reports whether classification has run.
func (s *RequestState) IntentAssigned() bool {
	return s.intentSet
}
