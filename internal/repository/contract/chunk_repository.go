package contract

import (
	"context"

	"github.com/google/uuid"

	"portfolio-assistant-be/internal/entity"
	"portfolio-assistant-be/internal/repository/specification"
)

// ScoredChunk pairs a chunk with its cosine similarity to a query vector.
type ScoredChunk struct {
	Chunk      *entity.Chunk
	Similarity float64
}

type ChunkRepository interface {
	Create(ctx context.Context, chunk *entity.Chunk) error
	CreateBulk(ctx context.Context, chunks []*entity.Chunk) error
	Update(ctx context.Context, chunk *entity.Chunk) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SearchSimilarWithScore runs pgvector cosine search restricted to the
	// given source categories (empty means all), dropping hits below the
	// similarity threshold.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, categories []string, threshold float64) ([]*ScoredChunk, error)
}
