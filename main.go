package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messenger-service/internal/auth"
	"messenger-service/internal/blob"
	"messenger-service/internal/config"
	"messenger-service/internal/db"
	"messenger-service/internal/handlers"
	"messenger-service/internal/middleware"
	"messenger-service/internal/observability"
	"messenger-service/internal/rabbitmq"
	"messenger-service/internal/repositories"
	"messenger-service/internal/services"
	"messenger-service/internal/telemetry"
	"messenger-service/internal/users"
	"messenger-service/internal/ws"
)

const serviceName = "messenger-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownTracing, err := telemetry.InitTracing(context.Background(), cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	if shutdownTracing != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				log.Printf("tracing shutdown: %v", err)
			}
		}()
	}

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	blobs, err := blob.OpenBadger(cfg.BlobPath)
	if err != nil {
		log.Fatalf("failed to open blob store: %v", err)
	}
	defer blobs.Close()

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AuditExchange)
	defer auditPublisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(auditPublisher))
	audit := telemetry.NewAuditEmitter(auditPublisher, cfg.AuditRoutingKey, serviceName, cfg.Environment)

	if cfg.AMQPURL != "" {
		eventsPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.EventsExchange)
		if err != nil {
			log.Printf("events publisher disabled: %v", err)
		} else {
			defer eventsPublisher.Close()
			observability.SetPublisher(eventsPublisher)
		}
	}

	convRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	friendRepo := repositories.NewFriendRepo(database)
	fileRepo := repositories.NewFileRepo(database)
	directory := users.NewSQLDirectory(database)

	hub := ws.NewHub()
	fanout := services.NewFanOut(convRepo, hub)

	messageService := services.NewMessageService(messageRepo, convRepo, directory, fanout)
	friendService := services.NewFriendService(friendRepo, convRepo, messageRepo, fileRepo, blobs, directory)
	groupService := services.NewGroupService(convRepo, messageRepo, fileRepo, blobs, directory, fanout)
	attachmentService := services.NewAttachmentService(convRepo, fileRepo, blobs, directory, fanout)

	verifier := auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)

	friendHandler := handlers.NewFriendHandler(friendService, audit)
	groupHandler := handlers.NewGroupHandler(groupService, audit)
	messageHandler := handlers.NewMessageHandler(messageService)
	fileHandler := handlers.NewFileHandler(attachmentService)
	wsHandler := ws.NewHandler(hub, verifier)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.GET("/friends", authMiddleware, friendHandler.ListFriends)
	router.DELETE("/friends/:username", authMiddleware, friendHandler.RemoveFriend)
	router.GET("/friends/requests", authMiddleware, friendHandler.ListRequests)
	router.POST("/friends/requests", authMiddleware, friendHandler.SendRequest)
	router.POST("/friends/requests/:request_id/accept", authMiddleware, friendHandler.Accept)
	router.POST("/friends/requests/:request_id/decline", authMiddleware, friendHandler.Decline)

	router.POST("/groups", authMiddleware, groupHandler.Create)
	router.GET("/groups", authMiddleware, groupHandler.List)
	router.GET("/groups/:conversation_id/members", authMiddleware, groupHandler.ListMembers)
	router.POST("/groups/:conversation_id/rename", authMiddleware, groupHandler.Rename)
	router.POST("/groups/:conversation_id/recipients", authMiddleware, groupHandler.AddRecipient)
	router.DELETE("/groups/:conversation_id/recipients/:username", authMiddleware, groupHandler.RemoveRecipient)

	router.GET("/conversations/:conversation_id/messages", authMiddleware, messageHandler.History)
	router.POST("/conversations/:conversation_id/messages", authMiddleware, messageHandler.Post)
	router.PUT("/messages/:message_id", authMiddleware, messageHandler.Edit)
	router.DELETE("/messages/:message_id", authMiddleware, messageHandler.Delete)
	router.POST("/messages/:message_id/seen", authMiddleware, messageHandler.MarkSeen)

	router.POST("/conversations/:conversation_id/files", authMiddleware, fileHandler.Upload)
	router.GET("/files/:file_id", authMiddleware, fileHandler.Download)
	router.GET("/images/:owner_id", authMiddleware, fileHandler.GetAvatar)
	router.POST("/images/profile", authMiddleware, fileHandler.SetUserAvatar)
	router.POST("/images/group/:conversation_id", authMiddleware, fileHandler.SetGroupAvatar)

	router.GET("/ws", wsHandler.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
