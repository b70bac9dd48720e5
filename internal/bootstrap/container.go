package bootstrap

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"portfolio-assistant-be/internal/config"
	"portfolio-assistant-be/internal/controller"
	"portfolio-assistant-be/internal/pkg/logger"
	"portfolio-assistant-be/internal/repository/implementation"
	"portfolio-assistant-be/internal/service"
	"portfolio-assistant-be/internal/websocket"
	"portfolio-assistant-be/pkg/embedding"
	"portfolio-assistant-be/pkg/enrich"
	"portfolio-assistant-be/pkg/guardrail"
	"portfolio-assistant-be/pkg/intent"
	"portfolio-assistant-be/pkg/llm/factory"
	pktNats "portfolio-assistant-be/pkg/nats"
	"portfolio-assistant-be/pkg/orchestrator"
	"portfolio-assistant-be/pkg/respond"
	"portfolio-assistant-be/pkg/retrieval"
	"portfolio-assistant-be/pkg/telemetry"
	"portfolio-assistant-be/pkg/tools"
)

const queryCompletedTopic = "QUERY_COMPLETED"

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	IndexerService  service.IIndexerService

	// WebSockets
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	pipelineLogger := log.New(os.Stdout, "", log.LstdFlags)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}
	// Visitor queries repeat heavily, cache query embeddings
	embeddingProvider = embedding.NewCachedProvider(
		embeddingProvider,
		time.Duration(cfg.Assistant.EmbedCacheTTLMin)*time.Minute,
	)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.HuggingFace,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/stream.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 5. Repositories
	chunkRepo := implementation.NewChunkRepository(db)
	queryLogRepo := implementation.NewQueryLogRepository(db)

	// 6. Retrieval pipeline
	lexicalIndex, err := retrieval.NewBleveIndex()
	if err != nil {
		log.Fatalf("[FATAL] Failed to create lexical index: %v", err)
	}
	vectorIndex := service.NewChunkVectorIndex(chunkRepo)
	retriever := retrieval.NewRetriever(
		embeddingProvider,
		vectorIndex,
		lexicalIndex,
		retrieval.DefaultMergeConfig(),
		pipelineLogger,
	)
	enricher := enrich.NewEnricher(retriever, pipelineLogger)

	// 7. Tools
	toolRegistry := tools.NewRegistry(
		tools.NewGithubCatalogTool(cfg.Assistant.GithubUsername, ""),
		tools.NewWeatherTool(cfg.Keys.OpenWeather, ""),
	)
	dispatcher := tools.NewDispatcher(toolRegistry, cfg.Assistant.MaxToolCalls, pipelineLogger)

	// 8. Pipeline assembly
	classifier := intent.NewClassifier(llmProvider, pipelineLogger)
	responders := respond.NewDefaultSet(llmProvider, pipelineLogger)
	gate := guardrail.NewGate(pipelineLogger)

	var recorder telemetry.Recorder = telemetry.Noop{}
	if os.Getenv("OTEL_ENABLED") == "true" {
		recorder = telemetry.NewOtelRecorder("portfolio-assistant-backend")
	}

	orch := orchestrator.New(
		classifier,
		enricher,
		dispatcher,
		responders,
		gate,
		recorder,
		orchestrator.DefaultConfig(),
		pipelineLogger,
	)

	// 9. Services
	publisherService := service.NewPublisherService(queryCompletedTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		queryCompletedTopic,
		queryLogRepo,
		natsPub,
	)
	indexerService := service.NewIndexerService(chunkRepo, lexicalIndex)
	assistantService := service.NewAssistantService(orch, publisherService, sysLogger)

	// 10. Controllers
	return &Container{
		AssistantController: controller.NewAssistantController(assistantService, wsHub),
		ConsumerService:     consumerService,
		IndexerService:      indexerService,
		WebSocketHub:        wsHub,
	}
}
