package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"deckchat-service/internal/catalog"
	"deckchat-service/internal/config"
	"deckchat-service/internal/db"
	"deckchat-service/internal/enricher"
	"deckchat-service/internal/handlers"
	"deckchat-service/internal/middleware"
	"deckchat-service/internal/observability"
	"deckchat-service/internal/rabbitmq"
	"deckchat-service/internal/repositories"
	"deckchat-service/internal/services"
	"deckchat-service/internal/telemetry"
	"deckchat-service/internal/ws"
)

func main() {
	cfg := config.Load()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	directory := services.NewDirectoryService(chatRepo)
	store := services.NewMessageService(chatRepo, messageRepo)
	tracker := services.NewReadStateService(chatRepo)

	catalogClient := catalog.NewClient(cfg.CatalogBaseURL)
	var resolver enricher.Resolver = catalogClient
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		resolver = enricher.NewCachedResolver(rdb, catalogClient)
		log.Printf("enrichment cache enabled addr=%s", cfg.RedisAddr)
	}
	enrich := enricher.NewEnricher(resolver)

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))
	audit := telemetry.NewAuditEmitter(publisher, "audit.deckchat", "deckchat-service", cfg.AppEnv)

	if amqpPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err == nil {
		observability.SetPublisher(amqpPublisher)
		defer amqpPublisher.Close()
	} else {
		log.Printf("ws event publishing disabled: %v", err)
	}

	hub := ws.NewHub()

	chatHandler := handlers.NewChatHandler(directory, store, tracker, enrich, catalogClient, hub, audit)
	messageHandler := handlers.NewMessageHandler(store, hub, audit)
	chatWS := ws.NewChatWebSocketHandler(hub, chatRepo, cfg.JWTSecret)
	chatListWS := ws.NewChatListWebSocketHandler(hub, cfg.JWTSecret)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("deckchat-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)

	router.GET("/chats", authMiddleware, chatHandler.ListChats)
	router.GET("/chats/unread", authMiddleware, chatHandler.Unread)
	router.POST("/chats", authMiddleware, chatHandler.StartChat)
	router.GET("/chats/:chat_id/messages", authMiddleware, chatHandler.GetChatMessages)
	router.POST("/chats/:chat_id/messages", authMiddleware, chatHandler.PostChatMessage)
	router.POST("/chats/:chat_id/messages/batch", authMiddleware, chatHandler.PostChatMessagesBatch)
	router.POST("/chats/:chat_id/read", authMiddleware, chatHandler.MarkRead)
	router.PATCH("/messages/:message_id", authMiddleware, messageHandler.EditMessage)
	router.DELETE("/messages", authMiddleware, messageHandler.DeleteMessages)

	router.GET("/ws/chats/:chat_id", chatWS.Handle)
	router.GET("/ws/chat-list", chatListWS.Handle)

	handlers.RegisterDebugRoutes(router, audit, cfg.EnableDebug)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
