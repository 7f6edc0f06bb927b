package bootstrap

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"regexp"

	"ai-salesbot-be/internal/config"
	"ai-salesbot-be/internal/controller"
	"ai-salesbot-be/internal/pkg/logger"
	"ai-salesbot-be/internal/pkg/mailer"
	"ai-salesbot-be/internal/repository/memory"
	"ai-salesbot-be/internal/service"
	"ai-salesbot-be/pkg/contact"
	"ai-salesbot-be/pkg/embedding"
	"ai-salesbot-be/pkg/embedding/jina"
	"ai-salesbot-be/pkg/leadstore"
	"ai-salesbot-be/pkg/llm/factory"
	"ai-salesbot-be/pkg/rag"
	"ai-salesbot-be/pkg/rag/answer"
	"ai-salesbot-be/pkg/rag/flow"
	"ai-salesbot-be/pkg/rag/rerank"
	"ai-salesbot-be/pkg/rag/search"
	"ai-salesbot-be/pkg/tenant"
	"ai-salesbot-be/pkg/vectorindex"
	"ai-salesbot-be/pkg/vectorindex/chroma"
	"ai-salesbot-be/pkg/vectorindex/pgstore"

	pktNats "ai-salesbot-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	// Controllers
	ChatController controller.ChatController

	// Background Services (Exposed for main.go to run)
	LeadConsumerService service.ILeadConsumerService

	// Shared infrastructure main.go shuts down
	TenantRegistry *tenant.Registry
	SysLogger      logger.ILogger
	NatsPublisher  *pktNats.Publisher
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	pipelineLogger := logger.NewPipelineLogger("logs/rag_pipeline.log")
	// Lead traffic is chatty; keep it out of the console log.
	leadLogger := logger.NewIsolatedLogger("logs/lead_events.log")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.SMTP.SalesInbox,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// 3. AI Providers
	// Initialize Embedding Provider based on Config
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaEmbeddingModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbeddingModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Keys.GoogleGemini,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.LLMModel,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Cross-encoder for reranking. Without an API key the reranker falls
	// back to keyword scoring alone.
	var crossScorer rerank.CrossScorer
	if cfg.Keys.Jina != "" {
		crossScorer = rerank.NewJinaScorer(cfg.Keys.Jina, cfg.Ai.RerankerModel)
		log.Printf("[INFO] Using Reranker: JINA (%s)", cfg.Ai.RerankerModel)
	} else {
		log.Printf("[WARN] No reranker API key; using keyword scoring only")
	}

	// 4. Messaging Services
	publisherService := service.NewPublisherService(cfg.App.LeadTopic, pubSub)
	leadNotifier := service.NewLeadNotifier(publisherService, leadLogger)
	var eventPublisher service.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}
	leadConsumerService := service.NewLeadConsumerService(
		pubSub,
		cfg.App.LeadTopic,
		emailService,
		eventPublisher,
		sysLogger,
	)

	// 5. Tenant Registry
	extractor := contact.NewExtractor()

	engineFactory := func(ctx context.Context, storagePath, databaseURI string) (*rag.Engine, error) {
		var index vectorindex.Index
		if cfg.Vector.Backend == "pgvector" {
			store, err := pgstore.Open(cfg.Vector.PostgresDSN, storagePath, embeddingProvider)
			if err != nil {
				return nil, fmt.Errorf("failed to open pgvector store: %w", err)
			}
			index = store
		} else {
			index = chroma.NewClient(cfg.Vector.ChromaURL, tenantCollection(cfg.Vector.Collection, storagePath))
		}

		leads, err := leadstore.OpenMongo(ctx, databaseURI)
		if err != nil {
			// Lead capture degrades gracefully; answering still works.
			sysLogger.Warn("EngineFactory", "Lead storage unavailable for tenant", map[string]interface{}{"error": err.Error()})
			leads = nil
		}

		var leadStore leadstore.Store
		if leads != nil {
			leadStore = leads
		}

		aggregator := search.NewAggregator(index, embeddingProvider, pipelineLogger)
		flowManager := flow.NewManager(leadStore, leadNotifier, pipelineLogger)

		return rag.NewEngine(rag.EngineDeps{
			Sessions:    memory.NewSessionRepository(),
			Flow:        flowManager,
			Aggregator:  aggregator,
			Reranker:    rerank.NewReranker(crossScorer, 40),
			Synthesizer: answer.NewSynthesizer(llmProvider, pipelineLogger),
			Extractor:   extractor,
			Leads:       leadStore,
			Index:       index,
			Logger:      pipelineLogger,
		}), nil
	}

	registry := tenant.NewRegistry(engineFactory, pipelineLogger)

	// 6. HTTP Services
	chatService := service.NewChatService(registry, cfg.Vector.BasePath, cfg.Mongo.URI)
	chatController := controller.NewChatController(chatService, registry)

	return &Container{
		ChatController:      chatController,
		LeadConsumerService: leadConsumerService,
		TenantRegistry:      registry,
		SysLogger:           sysLogger,
		NatsPublisher:       natsPub,
	}
}

var collectionNameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// tenantCollection derives a per-tenant Chroma collection name from the
// tenant's storage path, so tenants sharing one Chroma server stay isolated.
func tenantCollection(base, storagePath string) string {
	suffix := collectionNameRe.ReplaceAllString(filepath.Base(storagePath), "")
	if suffix == "" || suffix == "." {
		return base
	}
	return base + "_" + suffix
}
