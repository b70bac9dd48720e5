package tools

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"portfolio-assistant-be/pkg/intent"
)

// stubTool is a scriptable provider.
type stubTool struct {
	id     string
	output string
	err    error
	calls  int
}

func (s *stubTool) ID() string { return s.id }

func (s *stubTool) Invoke(ctx context.Context, input string) (string, error) {
	s.calls++
	return s.output, s.err
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestDispatch_CapturesErrorsWithoutFailing(t *testing.T) {
	ok := &stubTool{id: "ok", output: "data"}
	broken := &stubTool{id: "broken", err: errors.New("upstream 503")}
	d := NewDispatcher(NewRegistry(ok, broken), 5, testLogger())

	invocations := d.Dispatch(context.Background(), []Spec{
		{ToolID: "ok", Input: "a"},
		{ToolID: "broken", Input: "b"},
	})

	if len(invocations) != 2 {
		t.Fatalf("invocations = %d, want 2", len(invocations))
	}
	if !invocations[0].Succeeded || invocations[0].Output != "data" {
		t.Errorf("first invocation = %+v", invocations[0])
	}
	if invocations[1].Succeeded || invocations[1].Err != "upstream 503" {
		t.Errorf("second invocation = %+v", invocations[1])
	}
}

func TestDispatch_EnforcesCallCap(t *testing.T) {
	tool := &stubTool{id: "t", output: "x"}
	d := NewDispatcher(NewRegistry(tool), 2, testLogger())

	specs := []Spec{
		{ToolID: "t"}, {ToolID: "t"}, {ToolID: "t"}, {ToolID: "t"},
	}
	invocations := d.Dispatch(context.Background(), specs)

	if len(invocations) != 2 {
		t.Errorf("invocations = %d, want cap of 2", len(invocations))
	}
	if tool.calls != 2 {
		t.Errorf("tool called %d times, want 2", tool.calls)
	}
}

func TestDispatch_SkipsUnknownTools(t *testing.T) {
	tool := &stubTool{id: "known", output: "x"}
	d := NewDispatcher(NewRegistry(tool), 5, testLogger())

	invocations := d.Dispatch(context.Background(), []Spec{
		{ToolID: "missing"},
		{ToolID: "known"},
	})

	if len(invocations) != 1 {
		t.Fatalf("invocations = %d, want 1", len(invocations))
	}
	if invocations[0].ToolID != "known" {
		t.Errorf("dispatched %s, want known", invocations[0].ToolID)
	}
}

func TestSpecsFor(t *testing.T) {
	tests := []struct {
		name      string
		intent    intent.Intent
		query     string
		wantTools []string
	}{
		{
			name:      "project tour gets the github catalog",
			intent:    intent.IntentProjectTour,
			query:     "Show me your repos",
			wantTools: []string{GithubCatalogToolID},
		},
		{
			name:      "weather question gets the weather tool",
			intent:    intent.IntentGeneral,
			query:     "What's the weather in Jakarta?",
			wantTools: []string{WeatherToolID},
		},
		{
			name:      "tour plus weather stacks both",
			intent:    intent.IntentProjectTour,
			query:     "Tour your projects, and what's the temperature in Oslo",
			wantTools: []string{GithubCatalogToolID, WeatherToolID},
		},
		{
			name:      "plain question needs no tools",
			intent:    intent.IntentEducation,
			query:     "Where did you study?",
			wantTools: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs := SpecsFor(tt.intent, tt.query)
			if len(specs) != len(tt.wantTools) {
				t.Fatalf("specs = %d, want %d", len(specs), len(tt.wantTools))
			}
			for i, id := range tt.wantTools {
				if specs[i].ToolID != id {
					t.Errorf("spec[%d] = %s, want %s", i, specs[i].ToolID, id)
				}
			}
		})
	}
}

func TestExtractCity(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{query: "What's the weather in Jakarta?", want: "Jakarta"},
		{query: "temperature in New York", want: "New York"},
		{query: "is it raining in the city you live in Berlin!", want: "Berlin"},
		{query: "weather please", want: "weather please"},
	}

	for _, tt := range tests {
		if got := extractCity(tt.query); got != tt.want {
			t.Errorf("extractCity(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}
