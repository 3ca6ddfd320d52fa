package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/codevcn/thunderchat-client/internal/config"
	"github.com/codevcn/thunderchat-client/internal/engine"
	"github.com/codevcn/thunderchat-client/internal/handlers"
	"github.com/codevcn/thunderchat-client/internal/logger"
	"github.com/codevcn/thunderchat-client/internal/models"
	"github.com/codevcn/thunderchat-client/internal/observability"
	"github.com/codevcn/thunderchat-client/internal/telemetry"
	"github.com/codevcn/thunderchat-client/internal/transport"
)

type amqpAdapter struct {
	publisher *observability.AMQPPublisher
}

func (a amqpAdapter) Publish(ctx context.Context, routingKey string, event any) error {
	return a.publisher.PublishJSON(ctx, routingKey, event, nil)
}

func (a amqpAdapter) Close() error {
	return a.publisher.Close()
}

func main() {
	_ = godotenv.Load()

	cfgPath := getEnv("CHAT_CONFIG", "config.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(logger.Config{Development: cfg.Development})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLP.Endpoint, cfg.Environment)
	if err != nil {
		log.Fatalw("failed to init tracing", "error", err)
	}
	defer shutdownTracing(context.Background())

	var emitter *telemetry.AuditEmitter
	if cfg.AMQP.URL != "" {
		publisher, err := observability.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Warnw("amqp publisher unavailable, events disabled", "error", err)
		} else {
			defer publisher.Close()
			observability.SetPublisher(publisher)
			emitter = telemetry.NewAuditEmitter(amqpAdapter{publisher}, "audit_log.chat_client", "thunderchat-client", cfg.Environment, log)
		}
	}

	history := transport.NewHistoryClient(transport.HistoryClientConfig{
		BaseURL:     cfg.API.BaseURL,
		AuthToken:   cfg.API.AuthToken,
		Timeout:     cfg.APITimeout,
		MaxFailures: cfg.Sync.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpen,
	}, log)
	sender := transport.NewSendClient(cfg.API.BaseURL, cfg.API.AuthToken, cfg.APITimeout, log)

	var push *transport.PushClient

	eng := engine.New(engine.Config{
		LocalUserID:       cfg.UserID,
		PageSize:          cfg.Sync.PageSize,
		BackfillBatchSize: cfg.Sync.BackfillBatchSize,
		BackfillMaxEmpty:  cfg.Sync.BackfillMaxEmpty,
		BackfillInterval:  cfg.BackfillInterval,
		ReadFraction:      cfg.Sync.ReadFraction,
		FollowBottomPx:    cfg.Sync.FollowBottomPixels,
	}, engine.Deps{
		History: history,
		Push:    pushCommands{&push},
		Send:    sender,
		Log:     log,
		Callbacks: engine.Callbacks{
			OnFetchError: func(op string, err error) {
				log.Warnw("transient fetch error", "op", op, "error", err)
			},
		},
	})

	push = transport.NewPushClient(cfg.API.WSURL, cfg.API.AuthToken, func(conversationID int64, kind models.ConversationKind, ev models.PushEvent) {
		eng.HandlePush(conversationID, kind, ev)
	}, log)
	defer push.Close()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("thunderchat-client"))
	router.Use(observability.HTTPMetricsMiddleware())
	handlers.RegisterDebugRoutes(router, eng, emitter, cfg.Development)

	go func() {
		if err := router.Run(":" + cfg.DebugPort); err != nil {
			log.Errorw("debug server stopped", "error", err)
		}
	}()

	log.Infow("chat client sync engine ready", "debug_port", cfg.DebugPort)
	<-ctx.Done()
	eng.Close()
}

// pushCommands defers to the push client once it exists; the engine and
// the push client reference each other, so one side is wired late.
type pushCommands struct {
	client **transport.PushClient
}

func (p pushCommands) SetOffset(conversationID int64, lastSeenID int64) error {
	if *p.client == nil {
		return nil
	}
	return (*p.client).SetOffset(conversationID, lastSeenID)
}

func (p pushCommands) MarkSeen(messageID int64, recipientID int64) error {
	if *p.client == nil {
		return nil
	}
	return (*p.client).MarkSeen(messageID, recipientID)
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
