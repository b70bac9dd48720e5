package retrieval

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/google/uuid"

	"portfolio-assistant-be/pkg/store"
)

// BleveIndex implements LexicalIndex using an in-memory Bleve index built
// from the chunk table at startup. The corpus is small (a single portfolio),
// so rebuilding on boot is cheap and avoids index files on disk.
type BleveIndex struct {
	index bleve.Index

	mu     sync.RWMutex
	chunks map[string]store.Chunk
}

type bleveDoc struct {
	Title          string `json:"title"`
	Content        string `json:"content"`
	SourceCategory string `json:"source_category"`
}

func NewBleveIndex() (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so exact project
	// and technology names match as typed.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("source_category", keywordFieldMapping)
	im.AddDocumentMapping("chunk", docMapping)
	im.DefaultType = "chunk"
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}

	return &BleveIndex{
		index:  index,
		chunks: make(map[string]store.Chunk),
	}, nil
}

func (b *BleveIndex) Index(chunk store.Chunk) error {
	doc := bleveDoc{
		Title:          chunk.Title,
		Content:        chunk.Content,
		SourceCategory: chunk.SourceCategory,
	}
	if err := b.index.Index(chunk.ID.String(), doc); err != nil {
		return fmt.Errorf("bleve index failed: %w", err)
	}

	b.mu.Lock()
	b.chunks[chunk.ID.String()] = chunk
	b.mu.Unlock()
	return nil
}

func (b *BleveIndex) Delete(id uuid.UUID) error {
	if err := b.index.Delete(id.String()); err != nil {
		return fmt.Errorf("bleve delete failed: %w", err)
	}

	b.mu.Lock()
	delete(b.chunks, id.String())
	b.mu.Unlock()
	return nil
}

// Search runs a match query over title and content, optionally restricted to
// source categories, and normalizes scores by the top hit so they are
// comparable with semantic similarity.
func (b *BleveIndex) Search(ctx context.Context, query string, k int, categories []string) ([]ScoredChunk, error) {
	mq := bleve.NewMatchQuery(query)

	var q blevequery.Query = mq
	if len(categories) > 0 {
		catQueries := make([]blevequery.Query, len(categories))
		for i, cat := range categories {
			tq := bleve.NewTermQuery(cat)
			tq.SetField("source_category")
			catQueries[i] = tq
		}
		q = bleve.NewConjunctionQuery(mq, bleve.NewDisjunctionQuery(catQueries...))
	}

	req := bleve.NewSearchRequest(q)
	req.Size = k
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	if len(results.Hits) == 0 {
		return nil, nil
	}

	// Bleve TF-IDF scores are unbounded, divide by the best hit to land in
	// [0, 1] like the semantic leg.
	maxScore := results.Hits[0].Score
	for _, hit := range results.Hits {
		if hit.Score > maxScore {
			maxScore = hit.Score
		}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]ScoredChunk, 0, len(results.Hits))
	for _, hit := range results.Hits {
		chunk, ok := b.chunks[hit.ID]
		if !ok {
			continue
		}
		score := hit.Score
		if maxScore > 0 {
			score = hit.Score / maxScore
		}
		out = append(out, ScoredChunk{
			Chunk:   chunk,
			Score:   score,
			Methods: []string{MethodLexical},
		})
	}
	return out, nil
}
