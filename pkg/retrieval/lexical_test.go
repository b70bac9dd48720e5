package retrieval

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-assistant-be/pkg/store"
)

func seedIndex(t *testing.T) (*BleveIndex, map[string]store.Chunk) {
	t.Helper()

	idx, err := NewBleveIndex()
	require.NoError(t, err)

	chunks := map[string]store.Chunk{
		"notes": {
			ID:             uuid.New(),
			Title:          "Real-time collaborative notes",
			Content:        "A collaborative note editor with CRDT merge and Redis pub/sub fanout.",
			SourceCategory: store.SourceProjects,
		},
		"search": {
			ID:             uuid.New(),
			Title:          "Case study: hybrid search migration",
			Content:        "Migrated keyword-only search to hybrid retrieval with pgvector.",
			SourceCategory: store.SourceCaseStudy,
		},
		"degree": {
			ID:             uuid.New(),
			Title:          "Bachelor of Computer Science",
			Content:        "Distributed systems and machine learning coursework.",
			SourceCategory: store.SourceEducation,
		},
	}
	for _, c := range chunks {
		require.NoError(t, idx.Index(c))
	}
	return idx, chunks
}

func TestBleveIndex_SearchMatchesTitleAndContent(t *testing.T) {
	idx, chunks := seedIndex(t)

	hits, err := idx.Search(context.Background(), "collaborative notes", 10, nil)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, chunks["notes"].ID, hits[0].Chunk.ID)
	assert.Equal(t, []string{MethodLexical}, hits[0].Methods)
}

func TestBleveIndex_ScoresNormalizedToUnitRange(t *testing.T) {
	idx, _ := seedIndex(t)

	hits, err := idx.Search(context.Background(), "search retrieval systems", 10, nil)
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	assert.Equal(t, 1.0, hits[0].Score)
	for _, h := range hits {
		assert.GreaterOrEqual(t, h.Score, 0.0)
		assert.LessOrEqual(t, h.Score, 1.0)
	}
}

func TestBleveIndex_CategoryFilter(t *testing.T) {
	idx, chunks := seedIndex(t)

	// "search" appears in the case study; restricting to education must hide it
	hits, err := idx.Search(context.Background(), "search", 10, []string{store.SourceEducation})
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = idx.Search(context.Background(), "search", 10, []string{store.SourceCaseStudy})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, chunks["search"].ID, hits[0].Chunk.ID)
}

func TestBleveIndex_DeleteRemovesChunk(t *testing.T) {
	idx, chunks := seedIndex(t)

	require.NoError(t, idx.Delete(chunks["degree"].ID))

	hits, err := idx.Search(context.Background(), "bachelor computer science", 10, nil)
	require.NoError(t, err)
	for _, h := range hits {
		assert.NotEqual(t, chunks["degree"].ID, h.Chunk.ID)
	}
}

func TestBleveIndex_NoMatchesReturnsEmpty(t *testing.T) {
	idx, _ := seedIndex(t)

	hits, err := idx.Search(context.Background(), "zzqqxv", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
