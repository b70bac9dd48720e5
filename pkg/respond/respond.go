// Package respond generates draft answers from enriched context. One
// responder exists per intent family; the orchestrator picks by intent and
// the validator may re-run a responder with the alternate strategy.
package respond

import (
	"context"
	"errors"

	"portfolio-assistant-be/pkg/intent"
)

// Strategy selects the generation approach. Alternate is used on quality
// retries: it tightens the prompt and drops the temperature.
type Strategy string

const (
	StrategyDefault   Strategy = "default"
	StrategyAlternate Strategy = "alternate"
)

// ErrEmptyDraft is returned when the model produced no usable text. The
// validator treats it as a quality failure.
var ErrEmptyDraft = errors.New("responder produced empty draft")

// Request carries everything a responder needs for one generation.
type Request struct {
	Query      string
	Context    string
	Intent     intent.Intent
	ToolOutput string
	Strategy   Strategy
}

// Responder turns an enriched request into a draft answer.
type Responder interface {
	Respond(ctx context.Context, req Request) (string, error)
}

// Set routes requests to the responder registered for their intent.
type Set struct {
	responders map[intent.Intent]Responder
	fallback   Responder
}

// NewSet builds the routing table. fallback handles any intent without an
// explicit entry and must not be nil.
func NewSet(fallback Responder) *Set {
	return &Set{
		responders: make(map[intent.Intent]Responder),
		fallback:   fallback,
	}
}

func (s *Set) Register(in intent.Intent, r Responder) {
	s.responders[in] = r
}

func (s *Set) For(in intent.Intent) Responder {
	if r, ok := s.responders[in]; ok {
		return r
	}
	return s.fallback
}
