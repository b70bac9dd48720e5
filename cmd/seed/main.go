package main

import (
	"log"

	"fmt"

	"portfolio-assistant-be/internal/config"
	"portfolio-assistant-be/internal/model"
	"portfolio-assistant-be/pkg/database"
	"portfolio-assistant-be/pkg/embedding"
	"portfolio-assistant-be/pkg/utils"

	"github.com/pgvector/pgvector-go"
)

const (
	chunkSize    = 600 // runes per stored chunk
	chunkOverlap = 80
)

type seedChunk struct {
	Title          string
	Content        string
	SourceCategory string
}

// seedData is a small starter corpus so the assistant has something to
// retrieve on a fresh database. Real content is managed out-of-band.
var seedData = []seedChunk{
	{
		Title:          "Bachelor of Computer Science",
		Content:        "Completed a Bachelor of Computer Science with a focus on distributed systems and machine learning. Coursework included database internals, operating systems, and natural language processing. Graduated with honors.",
		SourceCategory: "education",
	},
	{
		Title:          "Backend Engineer at a SaaS startup",
		Content:        "Two years as a backend engineer building multi-tenant APIs in Go. Owned the billing and notification subsystems, introduced structured logging and tracing, and cut p99 API latency by 40% through query tuning and caching.",
		SourceCategory: "experience",
	},
	{
		Title:          "Portfolio Assistant",
		Content:        "A retrieval-augmented question answering service for this portfolio site. Hybrid semantic and keyword retrieval over curated content chunks, with an intent-aware response pipeline and websocket streaming of progress events.",
		SourceCategory: "projects",
	},
	{
		Title:          "Real-time collaborative notes",
		Content:        "Side project: a collaborative note editor with CRDT-based merge, presence indicators, and offline support. Go backend with Postgres and Redis pub/sub fanout, React frontend.",
		SourceCategory: "projects",
	},
	{
		Title:          "Case study: migrating a monolith's search to hybrid retrieval",
		Content:        "Problem: keyword-only search missed paraphrased queries. Approach: added a pgvector column alongside the existing index and merged both result sets with score normalization. Outcome: answer relevance on the evaluation set improved from 62% to 85% with no infrastructure additions.",
		SourceCategory: "case-study",
	},
	{
		Title:          "Resume summary",
		Content:        "Software engineer specialising in backend services and applied machine learning. Strongest in Go, PostgreSQL, and distributed messaging. Comfortable across the stack from schema design to frontend integration.",
		SourceCategory: "resume",
	},
	{
		Title:          "About",
		Content:        "Based in Jakarta. Outside of work I contribute to open source Go tooling, run long distance, and write occasionally about software design.",
		SourceCategory: "about",
	},
}

func main() {
	// 1. Configuration (shared with the server so the same embedding model is used)
	cfg := config.Load()

	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	// 2. Embedding provider, same selection logic as the server
	var provider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
		log.Printf("Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		provider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Println("Using Embedding Provider: GEMINI")
	}

	log.Printf("Seeding %d chunks...", len(seedData))

	seeded := 0
	for _, s := range seedData {
		// Skip chunks that already exist so the seeder stays idempotent
		var count int64
		if err := db.Model(&model.Chunk{}).
			Where("title = ? AND deleted_at IS NULL", s.Title).
			Count(&count).Error; err != nil {
			log.Fatalf("Error: Failed to check existing chunk %q: %v", s.Title, err)
		}
		if count > 0 {
			log.Printf("Skip (exists): %s", s.Title)
			continue
		}

		// Long entries are split so each stored chunk stays retrieval-sized
		parts := utils.SplitText(s.Content, chunkSize, chunkOverlap)
		for i, part := range parts {
			title := s.Title
			if len(parts) > 1 {
				title = fmt.Sprintf("%s (part %d)", s.Title, i+1)
			}

			res, err := provider.Generate(title+"\n"+part, embedding.TaskRetrievalDocument)
			if err != nil {
				log.Fatalf("Error: Failed to embed chunk %q: %v", title, err)
			}

			chunk := model.Chunk{
				Title:          title,
				Content:        part,
				SourceCategory: s.SourceCategory,
				EmbeddingValue: pgvector.NewVector(res.Embedding.Values),
			}
			if err := db.Create(&chunk).Error; err != nil {
				log.Fatalf("Error: Failed to insert chunk %q: %v", title, err)
			}
			seeded++
			log.Printf("Seeded: [%s] %s", s.SourceCategory, title)
		}
	}

	log.Printf("Done. %d new chunks inserted.", seeded)
}
