package bootstrap

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"ai-jobanalyzer-be/internal/config"
	"ai-jobanalyzer-be/internal/controller"
	"ai-jobanalyzer-be/internal/pkg/logger"
	"ai-jobanalyzer-be/internal/repository/memory"
	"ai-jobanalyzer-be/internal/service"
	"ai-jobanalyzer-be/internal/websocket"
	"ai-jobanalyzer-be/pkg/agent"
	"ai-jobanalyzer-be/pkg/embedding"
	"ai-jobanalyzer-be/pkg/events"
	"ai-jobanalyzer-be/pkg/llm/factory"
	pktNats "ai-jobanalyzer-be/pkg/nats"
	"ai-jobanalyzer-be/pkg/plan"
	"ai-jobanalyzer-be/pkg/rag"
	"ai-jobanalyzer-be/pkg/rag/eval"
	"ai-jobanalyzer-be/pkg/store"
	"ai-jobanalyzer-be/pkg/tools"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	AnalysisController controller.IAnalysisController
	AgentController    controller.IAgentController

	// Background Services (Exposed for main.go to run)
	EventRelayService service.IEventRelayService

	// WebSockets
	WebSocketHub *websocket.Hub
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	llmLogger := initLLMLogger()

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	eventBus := events.NewBus(pubSub, llmLogger)

	// 3. AI Providers
	// Initialize Embedding Provider based on Config
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

	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.OpenAI,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Knowledge Base
	// Seeding embeds the corpus, so it runs in the background; searches
	// against a partially seeded index just see fewer documents.
	vectorIndex := memory.NewVectorIndex(embeddingProvider)
	go func() {
		if err := vectorIndex.Seed(store.SeedCorpus(), 1500, 200); err != nil {
			log.Printf("[WARN] Corpus seeding stopped early: %v", err)
		}
		log.Printf("[INFO] Learning resource index ready (%d chunks)", vectorIndex.Len())
	}()

	// 5. Tool Registry
	registry := tools.NewRegistry(tools.DefaultTimeouts(), llmLogger)
	registry.RegisterCompletion(tools.NewProviderCompletion(llmProvider))
	registry.RegisterSearch(vectorIndex)
	// The GitHub API works without a token; it only raises the rate limit
	registry.RegisterEnrichment(tools.NewGitHubLookup(cfg.Keys.GitHub))
	log.Printf("[INFO] GitHub enrichment enabled (authenticated=%v)", cfg.Keys.GitHub != "")

	// 6. Infrastructure
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
		rdb = nil
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/agent_stream.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 7. Agent Core
	sessionRepo := memory.NewSessionRepository()
	pipeline := rag.NewPipeline(registry, rag.Config{
		TopK:       cfg.Agent.RetrievalTopK,
		PerQueryK:  cfg.Agent.RetrievalTopK,
		RerankK:    cfg.Agent.RerankTopK,
		MaxQueries: cfg.Agent.MaxQueryExpansions,
	}, llmLogger)

	orchestrator := agent.NewOrchestrator(
		registry,
		pipeline,
		eval.NewEvaluator(registry, llmLogger),
		plan.NewGenerator(registry, llmLogger),
		eventBus,
		sessionRepo,
		agent.Config{
			QualityThreshold:    cfg.Agent.QualityThreshold,
			MaxRetrievalRetries: cfg.Agent.MaxRetrievalRetries,
		},
		llmLogger,
	)

	// 8. Services
	analysisService := service.NewAnalysisService(orchestrator, sessionRepo, eventBus, sysLogger)
	relayService := service.NewEventRelayService(pubSub, wsHub, natsPub)

	// 9. Controllers
	return &Container{
		AnalysisController: controller.NewAnalysisController(analysisService),
		AgentController:    controller.NewAgentController(analysisService, wsHub, sysLogger),
		EventRelayService:  relayService,
		WebSocketHub:       wsHub,
	}
}

func initLLMLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_rag.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[LLM-RAG] ", log.LstdFlags)
	}
	return log.New(file, "[LLM-RAG] ", log.LstdFlags)
}
