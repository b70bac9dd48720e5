package service

import (
	"context"
	"fmt"
	"log"

	"portfolio-assistant-be/internal/mapper"
	"portfolio-assistant-be/internal/repository/contract"
	"portfolio-assistant-be/pkg/retrieval"
)

type IIndexerService interface {
	BuildLexicalIndex(ctx context.Context) error
}

// indexerService loads the chunk corpus into the in-memory lexical index at
// startup. The corpus is a single portfolio, so a full rebuild is fast.
type indexerService struct {
	chunkRepo contract.ChunkRepository
	index     retrieval.LexicalIndex
	mapper    *mapper.ChunkMapper
}

func NewIndexerService(chunkRepo contract.ChunkRepository, index retrieval.LexicalIndex) IIndexerService {
	return &indexerService{
		chunkRepo: chunkRepo,
		index:     index,
		mapper:    mapper.NewChunkMapper(),
	}
}

func (s *indexerService) BuildLexicalIndex(ctx context.Context) error {
	chunks, err := s.chunkRepo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chunks for indexing: %w", err)
	}

	indexed := 0
	for _, chunk := range chunks {
		if err := s.index.Index(s.mapper.ToStoreChunk(chunk)); err != nil {
			log.Printf("[WARN] Failed to index chunk %s: %v", chunk.Id, err)
			continue
		}
		indexed++
	}

	log.Printf("[INFO] Lexical index built: %d/%d chunks", indexed, len(chunks))
	return nil
}
