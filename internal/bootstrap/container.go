package bootstrap

import (
	"context"
	"log"

	"ai-playbook-be/internal/config"
	"ai-playbook-be/internal/controller"
	"ai-playbook-be/internal/handler"
	"ai-playbook-be/internal/pkg/logger"
	"ai-playbook-be/internal/repository/implementation"
	"ai-playbook-be/internal/repository/memory"
	"ai-playbook-be/internal/repository/unitofwork"
	"ai-playbook-be/internal/service"
	"ai-playbook-be/internal/websocket"
	"ai-playbook-be/pkg/embedding"
	"ai-playbook-be/pkg/interview"
	"ai-playbook-be/pkg/llm/gateway"

	pkgNats "ai-playbook-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	InterviewController controller.IInterviewController
	DocumentController  controller.IDocumentController
	PlaybookController  controller.IPlaybookController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Backends
	embeddingProvider := embedding.NewOllamaProvider(
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OllamaModel,
	)
	log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)

	aiProvider := gateway.NewGatewayProvider(cfg.Ai.GatewayBaseURL, cfg.Ai.GatewayModel)
	log.Printf("[INFO] Using AI Gateway: %s (%s)", cfg.Ai.GatewayBaseURL, cfg.Ai.GatewayModel)

	// In-Memory State
	sessionRepo := memory.NewSessionRepository()
	suggestionRepo := memory.NewSuggestionRepository()

	// 3.5 Infrastructure
	// NATS
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pkgNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
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
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Services
	publisherService := service.NewPublisherService(cfg.Ai.EmbedTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Ai.EmbedTopic,
		uowFactory,
		embeddingProvider,
		aiProvider,
	)

	interviewCfg := interview.Config{
		MinDescriptionLen: cfg.Interview.MinDescriptionLen,
		MinTurns:          cfg.Interview.MinTurns,
	}

	interviewService := service.NewInterviewService(
		uowFactory,
		sessionRepo,
		aiProvider,
		publisherService,
		natsPub,
		sysLogger,
		interviewCfg,
	)

	documentService := service.NewDocumentService(
		uowFactory,
		suggestionRepo,
		aiProvider,
		embeddingProvider,
		publisherService,
		natsPub,
		sysLogger,
	)

	playbookService := service.NewPlaybookService(
		uowFactory,
		aiProvider,
		memory.NewSynthesisGuard(),
		natsPub,
		sysLogger,
	)

	// 5. Notification System
	notifRepo := implementation.NewNotificationRepository(db)
	notifService := service.NewNotificationService(notifRepo, natsSub, wsHub, wsLogger)

	if natsSub != nil {
		go notifService.Start()
	}

	notifHandler := handler.NewNotificationHandler(notifService, wsHub, wsLogger)

	// 6. Controllers
	return &Container{
		InterviewController: controller.NewInterviewController(interviewService),
		DocumentController:  controller.NewDocumentController(documentService),
		PlaybookController:  controller.NewPlaybookController(playbookService),

		ConsumerService: consumerService,

		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,

		Logger: sysLogger,
	}
}
