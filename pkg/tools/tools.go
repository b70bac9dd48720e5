// Package tools hosts external data providers the pipeline can consult
// before responding. Dispatch is optional and advisory: a tool failure never
// fails the request, it only leaves the invocation marked unsuccessful.
package tools

import (
	"context"
	"log"
	"strings"

	"portfolio-assistant-be/pkg/intent"
)

// Provider is one invocable tool.
type Provider interface {
	ID() string
	Invoke(ctx context.Context, input string) (string, error)
}

// Spec names a tool to call and the input to hand it.
type Spec struct {
	ToolID string
	Input  string
}

// Invocation records one dispatch attempt.
type Invocation struct {
	ToolID    string `json:"tool_id"`
	Input     string `json:"input"`
	Output    string `json:"output,omitempty"`
	Succeeded bool   `json:"succeeded"`
	Err       string `json:"error,omitempty"`
}

// Registry maps tool ids to providers.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		r.providers[p.ID()] = p
	}
	return r
}

func (r *Registry) Get(id string) (Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return ids
}

// Dispatcher invokes tools with a per-request call cap.
type Dispatcher struct {
	registry *Registry
	maxCalls int
	logger   *log.Logger
}

func NewDispatcher(registry *Registry, maxCalls int, logger *log.Logger) *Dispatcher {
	if maxCalls <= 0 {
		maxCalls = 2
	}
	return &Dispatcher{
		registry: registry,
		maxCalls: maxCalls,
		logger:   logger,
	}
}

// Dispatch runs each spec in order until the call cap is hit. Unknown tool
// ids are skipped. Errors are captured on the invocation, not returned.
func (d *Dispatcher) Dispatch(ctx context.Context, specs []Spec) []Invocation {
	var invocations []Invocation

	for _, spec := range specs {
		if len(invocations) >= d.maxCalls {
			d.logger.Printf("[WARN] Tool call cap (%d) reached, skipping %s", d.maxCalls, spec.ToolID)
			break
		}

		provider, ok := d.registry.Get(spec.ToolID)
		if !ok {
			d.logger.Printf("[WARN] Unknown tool id: %s", spec.ToolID)
			continue
		}

		inv := Invocation{ToolID: spec.ToolID, Input: spec.Input}
		output, err := provider.Invoke(ctx, spec.Input)
		if err != nil {
			inv.Err = err.Error()
			d.logger.Printf("[WARN] Tool %s failed: %v", spec.ToolID, err)
		} else {
			inv.Output = output
			inv.Succeeded = true
		}
		invocations = append(invocations, inv)
	}

	return invocations
}

// SpecsFor decides which tools a request needs based on its intent and query
// text. Most requests need none.
func SpecsFor(in intent.Intent, query string) []Spec {
	var specs []Spec

	if in == intent.IntentProjectTour {
		specs = append(specs, Spec{ToolID: GithubCatalogToolID, Input: query})
	}

	if mentionsWeather(query) {
		specs = append(specs, Spec{ToolID: WeatherToolID, Input: extractCity(query)})
	}

	return specs
}

func mentionsWeather(query string) bool {
	lower := strings.ToLower(query)
	return strings.Contains(lower, "weather") || strings.Contains(lower, "temperature")
}

// extractCity pulls the last "in <city>" phrase out of the query; falls back
// to the whole query so the tool can still attempt a lookup.
func extractCity(query string) string {
	lower := strings.ToLower(query)
	idx := strings.LastIndex(lower, " in ")
	if idx < 0 {
		return strings.TrimSpace(query)
	}
	city := strings.TrimSpace(query[idx+4:])
	city = strings.Trim(city, "?!. ")
	if city == "" {
		return strings.TrimSpace(query)
	}
	return city
}
