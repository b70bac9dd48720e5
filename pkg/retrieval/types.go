package retrieval

import (
	"context"

	"github.com/google/uuid"

	"portfolio-assistant-be/pkg/store"
)

// Method names recorded on each retrieved chunk.
const (
	MethodSemantic = "semantic"
	MethodLexical  = "lexical"
)

// ScoredChunk is a chunk with its retrieval confidence and the methods that
// surfaced it.
type ScoredChunk struct {
	Chunk   store.Chunk
	Score   float64
	Methods []string
}

// Result is the outcome of one hybrid retrieval pass.
type Result struct {
	Chunks   []ScoredChunk
	Degraded bool
	// FallbackReason is set when Degraded is true ("semantic_failed" or
	// "lexical_failed").
	FallbackReason string
}

// VectorIndex is the semantic leg. Implemented by the pgvector-backed chunk
// repository.
type VectorIndex interface {
	// Nearest returns up to k chunks ordered by cosine similarity to the
	// query vector, restricted to the given source categories (empty slice
	// means all categories). Scores are similarity in [0, 1].
	Nearest(ctx context.Context, vector []float32, k int, categories []string) ([]ScoredChunk, error)
}

// LexicalIndex is the keyword leg.
type LexicalIndex interface {
	// Search returns up to k chunks matching the query text, restricted to
	// the given source categories. Scores are normalized to [0, 1] within
	// the result set.
	Search(ctx context.Context, query string, k int, categories []string) ([]ScoredChunk, error)
	// Index adds or replaces a chunk in the index.
	Index(chunk store.Chunk) error
	// Delete removes a chunk from the index.
	Delete(id uuid.UUID) error
}

// MergeConfig controls how the two retrieval legs are combined.
type MergeConfig struct {
	// SimilarityThreshold drops semantic hits below this confidence.
	SimilarityThreshold float64
	// BothMethodsBoost is added to the score of chunks found by both legs.
	BothMethodsBoost float64
	// SourcePriority breaks score ties; lower rank wins.
	SourcePriority map[string]int
}

func DefaultMergeConfig() MergeConfig {
	return MergeConfig{
		SimilarityThreshold: 0.7,
		BothMethodsBoost:    0.05,
		SourcePriority:      store.SourcePriority,
	}
}
