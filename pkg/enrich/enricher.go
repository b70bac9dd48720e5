package enrich

import (
	"context"
	"fmt"
	"log"
	"strings"

	"portfolio-assistant-be/pkg/intent"
	"portfolio-assistant-be/pkg/retrieval"
	"portfolio-assistant-be/pkg/store"
)

// Profile tunes retrieval per intent: how many chunks to fetch, which source
// categories to search, and how much assembled context the responder gets.
type Profile struct {
	K int
	// WideK replaces K when a validation retry asks for broader retrieval.
	WideK int
	// Sources restricts retrieval to these categories; empty means all.
	Sources []string
	// ContextBudget caps the assembled context, in runes.
	ContextBudget int
}

func defaultProfiles() map[intent.Intent]Profile {
	return map[intent.Intent]Profile{
		intent.IntentEducation: {
			K: 12, WideK: 20,
			Sources:       []string{store.SourceEducation},
			ContextBudget: 6000,
		},
		intent.IntentExperience: {
			K: 12, WideK: 20,
			Sources:       []string{store.SourceExperience, store.SourceResume},
			ContextBudget: 6000,
		},
		intent.IntentSkills: {
			K: 12, WideK: 20,
			Sources:       []string{store.SourceResume, store.SourceExperience, store.SourceProjects},
			ContextBudget: 6000,
		},
		intent.IntentPersonalProject: {
			K: 16, WideK: 24,
			Sources:       []string{store.SourceProjects, store.SourceCaseStudy},
			ContextBudget: 6000,
		},
		intent.IntentCaseStudy: {
			K: 16, WideK: 24,
			Sources:       []string{store.SourceCaseStudy, store.SourceProjects},
			ContextBudget: 6000,
		},
		intent.IntentProjectTour: {
			K: 16, WideK: 24,
			Sources:       []string{store.SourceProjects, store.SourceCaseStudy},
			ContextBudget: 6000,
		},
		intent.IntentGeneral: {
			K: 12, WideK: 20,
			Sources:       nil,
			ContextBudget: 6000,
		},
	}
}

// Enrichment is the assembled context plus the chunks that made it in.
type Enrichment struct {
	Context        string
	Sources        []store.SourceRef
	ChunkCount     int
	Degraded       bool
	FallbackReason string
}

// Enricher retrieves and assembles context for a classified request.
type Enricher struct {
	retriever *retrieval.Retriever
	profiles  map[intent.Intent]Profile
	logger    *log.Logger
}

func NewEnricher(retriever *retrieval.Retriever, logger *log.Logger) *Enricher {
	return &Enricher{
		retriever: retriever,
		profiles:  defaultProfiles(),
		logger:    logger,
	}
}

// ProfileFor exposes the retrieval profile applied for an intent.
func (e *Enricher) ProfileFor(in intent.Intent) Profile {
	if p, ok := e.profiles[in]; ok {
		return p
	}
	return e.profiles[intent.Default]
}

// Enrich runs hybrid retrieval with the intent's profile and assembles the
// context block. wide selects the broader retry profile.
func (e *Enricher) Enrich(ctx context.Context, in intent.Intent, query string, wide bool) (*Enrichment, error) {
	profile := e.ProfileFor(in)
	k := profile.K
	if wide {
		k = profile.WideK
	}

	result, err := e.retriever.Retrieve(ctx, query, k, profile.Sources)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed for intent %s: %w", in, err)
	}

	enrichment := &Enrichment{
		Degraded:       result.Degraded,
		FallbackReason: result.FallbackReason,
	}

	var builder strings.Builder
	budget := profile.ContextBudget

	for _, scored := range result.Chunks {
		block := formatChunk(scored.Chunk)
		if builder.Len() > 0 && len([]rune(builder.String()))+len([]rune(block)) > budget {
			// Chunks arrive ranked, so everything past the budget is the
			// least relevant tail.
			break
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(block)

		enrichment.Sources = append(enrichment.Sources, store.SourceRef{
			ChunkID:        scored.Chunk.ID,
			Title:          scored.Chunk.Title,
			SourceCategory: scored.Chunk.SourceCategory,
			Score:          scored.Score,
			Methods:        scored.Methods,
		})
	}

	enrichment.Context = builder.String()
	enrichment.ChunkCount = len(enrichment.Sources)

	e.logger.Printf("[DEBUG] Enrichment: intent=%s k=%d chunks=%d context_runes=%d",
		in, k, enrichment.ChunkCount, len([]rune(enrichment.Context)))

	return enrichment, nil
}

func formatChunk(chunk store.Chunk) string {
	title := chunk.Title
	if title == "" {
		title = "Untitled"
	}
	return fmt.Sprintf("[%s] %s\n%s", chunk.SourceCategory, title, chunk.Content)
}
