package service

import (
	"context"

	"portfolio-assistant-be/internal/mapper"
	"portfolio-assistant-be/internal/repository/contract"
	"portfolio-assistant-be/pkg/retrieval"
)

// chunkVectorIndex adapts the pgvector chunk repository to the retriever's
// VectorIndex interface. The DB-side threshold stays at zero; confidence
// filtering happens in the retriever where it is configurable.
type chunkVectorIndex struct {
	repo   contract.ChunkRepository
	mapper *mapper.ChunkMapper
}

func NewChunkVectorIndex(repo contract.ChunkRepository) retrieval.VectorIndex {
	return &chunkVectorIndex{
		repo:   repo,
		mapper: mapper.NewChunkMapper(),
	}
}

func (a *chunkVectorIndex) Nearest(ctx context.Context, vector []float32, k int, categories []string) ([]retrieval.ScoredChunk, error) {
	scored, err := a.repo.SearchSimilarWithScore(ctx, vector, k, categories, 0.0)
	if err != nil {
		return nil, err
	}

	out := make([]retrieval.ScoredChunk, len(scored))
	for i, s := range scored {
		out[i] = retrieval.ScoredChunk{
			Chunk: a.mapper.ToStoreChunk(s.Chunk),
			Score: s.Similarity,
		}
	}
	return out, nil
}
