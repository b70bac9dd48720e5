package respond

import (
	"context"
	"log"
	"strings"

	"portfolio-assistant-be/pkg/llm"
)

// noContextFallback is returned when retrieval produced nothing usable. Kept
// long enough to pass the validator's length gate so the request still ends
// in a well-formed answer.
const noContextFallback = "I don't have enough material on that topic in this portfolio yet. " +
	"Feel free to ask about the projects, work experience, education, or skills documented here."

// generate runs the LLM with strategy-appropriate settings and normalizes
// empty output into ErrEmptyDraft.
func generate(ctx context.Context, provider llm.LLMProvider, logger *log.Logger, prompt string, strategy Strategy) (string, error) {
	temperature := 0.7
	if strategy == StrategyAlternate {
		temperature = 0.2
	}

	response, err := provider.Generate(ctx, prompt, llm.WithTemperature(temperature))
	if err != nil {
		logger.Printf("[ERROR] LLM generation failed: %v", err)
		return "", err
	}

	response = strings.TrimSpace(response)
	if response == "" {
		return "", ErrEmptyDraft
	}
	return response, nil
}

// ProfileResponder answers factual questions about the owner's background:
// education, work experience, and skills.
type ProfileResponder struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewProfileResponder(llmProvider llm.LLMProvider, logger *log.Logger) *ProfileResponder {
	return &ProfileResponder{llmProvider: llmProvider, logger: logger}
}

func (r *ProfileResponder) Respond(ctx context.Context, req Request) (string, error) {
	if req.Context == "" {
		return noContextFallback, nil
	}

	p := newPromptBuilder()
	p.writeReferenceMaterial(req.Context)
	p.writeTask("You are the assistant on a developer's portfolio site, answering a visitor's question about the owner's background.\nPresent the relevant facts clearly, in chronological order where dates exist.")
	guidelines := baseGuidelines()
	if req.Strategy == StrategyAlternate {
		guidelines = alternateGuidelines()
	}
	p.writeGuidelines(guidelines)
	p.writeUserQuestion(req.Query)

	return generate(ctx, r.llmProvider, r.logger, p.String(), req.Strategy)
}

// ProjectResponder answers questions about individual projects and case
// studies, emphasizing the problem, approach, and outcome.
type ProjectResponder struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewProjectResponder(llmProvider llm.LLMProvider, logger *log.Logger) *ProjectResponder {
	return &ProjectResponder{llmProvider: llmProvider, logger: logger}
}

func (r *ProjectResponder) Respond(ctx context.Context, req Request) (string, error) {
	if req.Context == "" {
		return noContextFallback, nil
	}

	p := newPromptBuilder()
	p.writeReferenceMaterial(req.Context)
	p.writeTask("You are the assistant on a developer's portfolio site, walking a visitor through project work.\nStructure the answer around what problem the project solved, how it was built, and what came of it. Name concrete technologies from the material.")
	guidelines := baseGuidelines()
	if req.Strategy == StrategyAlternate {
		guidelines = alternateGuidelines()
	}
	p.writeGuidelines(guidelines)
	p.writeUserQuestion(req.Query)

	return generate(ctx, r.llmProvider, r.logger, p.String(), req.Strategy)
}

// TourResponder handles guided project tours. It blends the corpus context
// with the live repository catalog when the github tool ran.
type TourResponder struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewTourResponder(llmProvider llm.LLMProvider, logger *log.Logger) *TourResponder {
	return &TourResponder{llmProvider: llmProvider, logger: logger}
}

func (r *TourResponder) Respond(ctx context.Context, req Request) (string, error) {
	if req.Context == "" && req.ToolOutput == "" {
		return noContextFallback, nil
	}

	p := newPromptBuilder()
	p.writeReferenceMaterial(req.Context)
	p.writeToolOutput(req.ToolOutput)
	p.writeTask("You are the assistant on a developer's portfolio site, giving a visitor a guided tour of the project catalog.\nOpen with a one-paragraph overview, then highlight a handful of projects worth exploring and why. Prefer live repository data over the written material when they disagree.")
	guidelines := baseGuidelines()
	if req.Strategy == StrategyAlternate {
		guidelines = alternateGuidelines()
	}
	p.writeGuidelines(guidelines)
	p.writeUserQuestion(req.Query)

	return generate(ctx, r.llmProvider, r.logger, p.String(), req.Strategy)
}

// GeneralResponder covers everything without a specialized variant,
// including small talk and cross-cutting questions.
type GeneralResponder struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewGeneralResponder(llmProvider llm.LLMProvider, logger *log.Logger) *GeneralResponder {
	return &GeneralResponder{llmProvider: llmProvider, logger: logger}
}

func (r *GeneralResponder) Respond(ctx context.Context, req Request) (string, error) {
	if req.Context == "" && req.ToolOutput == "" {
		return noContextFallback, nil
	}

	p := newPromptBuilder()
	p.writeReferenceMaterial(req.Context)
	p.writeToolOutput(req.ToolOutput)
	p.writeTask("You are the assistant on a developer's portfolio site.\nAnswer the visitor's question conversationally, drawing on whatever the material covers.")
	guidelines := baseGuidelines()
	if req.Strategy == StrategyAlternate {
		guidelines = alternateGuidelines()
	}
	p.writeGuidelines(guidelines)
	p.writeUserQuestion(req.Query)

	return generate(ctx, r.llmProvider, r.logger, p.String(), req.Strategy)
}
