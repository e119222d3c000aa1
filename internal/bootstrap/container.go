package bootstrap

import (
	"log"

	"care-relay-be/internal/config"
	"care-relay-be/internal/controller"
	"care-relay-be/internal/handler"
	"care-relay-be/internal/pkg/logger"
	"care-relay-be/internal/repository/memory"
	"care-relay-be/internal/service"
	"care-relay-be/internal/websocket"
	"care-relay-be/pkg/events"
	"care-relay-be/pkg/llm/factory"
	"care-relay-be/pkg/pairing"

	pktNats "care-relay-be/pkg/nats"
	pktRedis "care-relay-be/pkg/redis"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	// Controllers
	RelayController controller.IRelayController

	// WebSockets
	RelayHandler *handler.RelayHandler
	WebSocketHub *websocket.Hub

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger      logger.ILogger
	auditLogger logger.ILogger
	pubSub      *gochannel.GoChannel
	sink        events.Sink
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	auditLogger := logger.NewIsolatedLogger(cfg.App.RelayLogFilePath)

	// 2. Pairing Table
	pairings, err := pairing.Load(cfg.Routing.PairingFile)
	if err != nil {
		log.Fatalf("[FATAL] Failed to load pairing table: %v", err)
	}
	pairs, agentRouted := pairings.Size()
	log.Printf("[INFO] Pairing table loaded from %s (%d pairs, %d agent-routed)", cfg.Routing.PairingFile, pairs, agentRouted)

	// 3. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	sink := newEventSink(cfg.Events)

	// 4. LLM Provider
	llmProvider, err := factory.NewLLMProvider(factory.Settings{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  providerBaseURL(cfg.Ai),
		APIKey:   providerAPIKey(cfg.Ai),
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 5. Services
	conversationRepo := memory.NewConversationRepository()
	wsHub := websocket.NewHub(sysLogger)

	publisherService := service.NewPublisherService(cfg.Events.Topic, pubSub, sysLogger)
	consumerService := service.NewConsumerService(pubSub, cfg.Events.Topic, auditLogger, sink)

	agentService := service.NewAgentService(llmProvider, service.AgentSettings{
		Timeout:       cfg.Ai.Timeout,
		HistoryWindow: cfg.Ai.HistoryWindow,
		Temperature:   cfg.Ai.Temperature,
		MaxTokens:     cfg.Ai.MaxTokens,
	}, sysLogger)

	relayService := service.NewRelayService(
		wsHub,
		pairings,
		conversationRepo,
		agentService,
		publisherService,
		sysLogger,
	)

	// 6. Controllers & Handlers
	return &Container{
		RelayController: controller.NewRelayController(relayService),
		RelayHandler:    handler.NewRelayHandler(relayService, sysLogger),
		WebSocketHub:    wsHub,
		ConsumerService: consumerService,

		Logger:      sysLogger,
		auditLogger: auditLogger,
		pubSub:      pubSub,
		sink:        sink,
	}
}

// Close releases the event bus, the external sink and flushes the loggers.
func (c *Container) Close() {
	if err := c.pubSub.Close(); err != nil {
		log.Printf("[WARN] Failed to close event bus: %v", err)
	}
	if c.sink != nil {
		c.sink.Close()
	}
	_ = c.auditLogger.Sync()
	_ = c.Logger.Sync()
}

// newEventSink returns nil when no sink is configured or it is unreachable;
// relaying never depends on it.
func newEventSink(cfg config.EventsConfig) events.Sink {
	switch cfg.Sink {
	case "nats":
		pub, err := pktNats.NewPublisher(cfg.NatsURL, cfg.NatsStream)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
			return nil
		}
		log.Printf("[INFO] Forwarding relay events to NATS stream %s", cfg.NatsStream)
		return pub
	case "redis":
		pub, err := pktRedis.NewPublisher(cfg.RedisURL, cfg.RedisChannel)
		if err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
			return nil
		}
		log.Printf("[INFO] Forwarding relay events to Redis channel %s", cfg.RedisChannel)
		return pub
	case "", "none":
		return nil
	default:
		log.Printf("[WARN] Unknown EVENT_SINK %q, events stay in-process", cfg.Sink)
		return nil
	}
}

func providerBaseURL(ai config.AIConfig) string {
	switch ai.LLMProvider {
	case "huggingface":
		return ai.HuggingFaceBaseURL
	case "openai":
		return ai.OpenAIBaseURL
	default:
		return ai.OllamaBaseURL
	}
}

func providerAPIKey(ai config.AIConfig) string {
	switch ai.LLMProvider {
	case "huggingface":
		return ai.HuggingFaceAPIKey
	case "openai":
		return ai.OpenAIAPIKey
	default:
		return ""
	}
}
