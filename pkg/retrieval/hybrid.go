package retrieval

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"portfolio-assistant-be/pkg/embedding"
	"portfolio-assistant-be/pkg/store"
)

// Retriever runs the semantic and lexical legs concurrently and merges the
// results deterministically.
type Retriever struct {
	embeddingProvider embedding.EmbeddingProvider
	vectorIndex       VectorIndex
	lexicalIndex      LexicalIndex
	config            MergeConfig
	logger            *log.Logger
}

func NewRetriever(
	embeddingProvider embedding.EmbeddingProvider,
	vectorIndex VectorIndex,
	lexicalIndex LexicalIndex,
	config MergeConfig,
	logger *log.Logger,
) *Retriever {
	return &Retriever{
		embeddingProvider: embeddingProvider,
		vectorIndex:       vectorIndex,
		lexicalIndex:      lexicalIndex,
		config:            config,
		logger:            logger,
	}
}

// Retrieve fetches up to k chunks for the query, restricted to the given
// source categories. If one leg fails the other's results are returned with
// Degraded set; only when both fail is an error returned.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, categories []string) (*Result, error) {
	var (
		wg          sync.WaitGroup
		semantic    []ScoredChunk
		lexical     []ScoredChunk
		semanticErr error
		lexicalErr  error
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		semantic, semanticErr = r.semanticLeg(ctx, query, k, categories)
	}()

	go func() {
		defer wg.Done()
		lexical, lexicalErr = r.lexicalIndex.Search(ctx, query, k, categories)
	}()

	wg.Wait()

	if semanticErr != nil && lexicalErr != nil {
		return nil, fmt.Errorf("both retrieval legs failed: semantic: %v, lexical: %w", semanticErr, lexicalErr)
	}

	result := &Result{}
	switch {
	case semanticErr != nil:
		r.logger.Printf("[WARN] Semantic retrieval failed, falling back to lexical only: %v", semanticErr)
		result.Degraded = true
		result.FallbackReason = "semantic_failed"
		semantic = nil
	case lexicalErr != nil:
		r.logger.Printf("[WARN] Lexical retrieval failed, falling back to semantic only: %v", lexicalErr)
		result.Degraded = true
		result.FallbackReason = "lexical_failed"
		lexical = nil
	}

	result.Chunks = r.merge(semantic, lexical, k)

	r.logger.Printf("[DEBUG] Retrieval: semantic=%d lexical=%d merged=%d degraded=%v",
		len(semantic), len(lexical), len(result.Chunks), result.Degraded)

	return result, nil
}

func (r *Retriever) semanticLeg(ctx context.Context, query string, k int, categories []string) ([]ScoredChunk, error) {
	embeddingRes, err := r.embeddingProvider.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	hits, err := r.vectorIndex.Nearest(ctx, embeddingRes.Embedding.Values, k, categories)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	// Drop low-confidence hits before merging so lexical matches are not
	// crowded out by weak semantic neighbors.
	kept := hits[:0]
	for _, hit := range hits {
		if hit.Score >= r.config.SimilarityThreshold {
			hit.Methods = []string{MethodSemantic}
			kept = append(kept, hit)
		}
	}
	return kept, nil
}

// merge unions both legs by chunk id, keeps the higher score for duplicates,
// boosts chunks found by both methods, then orders by score descending with
// source priority and chunk id as tie-breaks.
func (r *Retriever) merge(semantic, lexical []ScoredChunk, k int) []ScoredChunk {
	byID := make(map[string]*ScoredChunk)
	order := make([]string, 0, len(semantic)+len(lexical))

	for _, leg := range [][]ScoredChunk{semantic, lexical} {
		for _, hit := range leg {
			id := hit.Chunk.ID.String()
			existing, ok := byID[id]
			if !ok {
				copied := hit
				copied.Methods = append([]string(nil), hit.Methods...)
				byID[id] = &copied
				order = append(order, id)
				continue
			}
			if hit.Score > existing.Score {
				existing.Score = hit.Score
			}
			existing.Methods = append(existing.Methods, hit.Methods...)
		}
	}

	merged := make([]ScoredChunk, 0, len(order))
	for _, id := range order {
		hit := *byID[id]
		if len(hit.Methods) > 1 {
			hit.Score += r.config.BothMethodsBoost
			if hit.Score > 1.0 {
				hit.Score = 1.0
			}
		}
		merged = append(merged, hit)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		pi := r.sourceRank(merged[i].Chunk.SourceCategory)
		pj := r.sourceRank(merged[j].Chunk.SourceCategory)
		if pi != pj {
			return pi < pj
		}
		return merged[i].Chunk.ID.String() < merged[j].Chunk.ID.String()
	})

	if len(merged) > k {
		merged = merged[:k]
	}
	return merged
}

func (r *Retriever) sourceRank(category string) int {
	if rank, ok := r.config.SourcePriority[category]; ok {
		return rank
	}
	return len(store.SourcePriority)
}
