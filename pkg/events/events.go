// Package events holds the per-request progress log consumed by the
// streaming transport.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types emitted during one query's lifecycle.
const (
	TypeIntentClassified = "intent_classified"
	TypeContextEnriched  = "context_enriched"
	TypeToolDispatched   = "tool_dispatched"
	TypeDraftGenerated   = "draft_generated"
	TypeValidation       = "validation"
	TypeRetry            = "retry"
	TypeDegraded         = "degraded"
	TypeCompleted        = "completed"
)

// Event is one progress entry. OffsetMS is request-relative and monotonic
// within a single log.
type Event struct {
	Type     string         `json:"type"`
	OffsetMS int64          `json:"offset_ms"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// Log is an append-only event sequence with a consistent-prefix read
// contract: Snapshot copies the slice under the same lock appends take, so a
// concurrent reader never observes a torn entry.
type Log struct {
	mu      sync.Mutex
	entries []Event
}

// NewLog creates an empty event log.
func NewLog() *Log {
	return &Log{}
}

// Append publishes one entry atomically.
func (l *Log) Append(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, ev)
}

// Snapshot returns a copy of every entry appended so far.
func (l *Log) Snapshot() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of appended entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Sink receives events as they are appended, keyed by request id. The
// websocket hub implements this to push progress frames to a live client.
type Sink interface {
	Publish(requestID uuid.UUID, ev Event)
}

// Emitter appends progress events for one request. When streaming is
// disabled it is a no-op, so callers fire events unconditionally.
type Emitter struct {
	requestID uuid.UUID
	start     time.Time
	log       *Log
	sink      Sink
	enabled   bool
	lastMS    int64
}

// NewEmitter binds an emitter to one request's log. sink may be nil.
func NewEmitter(requestID uuid.UUID, start time.Time, log *Log, sink Sink, enabled bool) *Emitter {
	return &Emitter{
		requestID: requestID,
		start:     start,
		log:       log,
		sink:      sink,
		enabled:   enabled,
	}
}

// Emit appends an event and forwards it to the sink. Offsets are clamped to
// be non-decreasing even if the wall clock steps backwards.
func (e *Emitter) Emit(eventType string, payload map[string]any) {
	if e == nil || !e.enabled {
		return
	}

	offset := time.Since(e.start).Milliseconds()
	if offset < e.lastMS {
		offset = e.lastMS
	}
	e.lastMS = offset

	ev := Event{
		Type:     eventType,
		OffsetMS: offset,
		Payload:  payload,
	}
	e.log.Append(ev)

	if e.sink != nil {
		e.sink.Publish(e.requestID, ev)
	}
}
