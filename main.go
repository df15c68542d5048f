package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"rooms-service/internal/db"
	"rooms-service/internal/handlers"
	"rooms-service/internal/identity"
	"rooms-service/internal/middleware"
	"rooms-service/internal/observability"
	"rooms-service/internal/rabbitmq"
	"rooms-service/internal/repositories"
	"rooms-service/internal/telemetry"
	"rooms-service/internal/ws"
)

const serviceName = "rooms-service"

func main() {
	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("tracing shutdown error: %v", err)
		}
	}()

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	redisClient, err := db.ConnectRedis(ctx)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	amqpURL := getEnv("AMQP_URL", "")
	exchange := getEnv("AMQP_EXCHANGE", "rooms.events")

	if amqpURL != "" {
		eventPublisher, err := observability.NewAMQPPublisher(amqpURL, exchange)
		if err != nil {
			log.Printf("event publishing disabled: %v", err)
		} else {
			observability.SetPublisher(eventPublisher)
			defer eventPublisher.Close()
		}
	}

	auditPublisher := rabbitmq.NewPublisher(amqpURL, exchange)
	defer auditPublisher.Close()
	audit := telemetry.NewAuditEmitter(auditPublisher, observability.AuditRoutingKey, serviceName, getEnv("ENVIRONMENT", "dev"))

	verifier := identity.NewVerifier(getEnv("JWT_SECRET", "dev-secret"))

	messageRepo := repositories.NewMessageRepo(database)
	presenceRepo := repositories.NewPresenceRepo(redisClient)
	typingRepo := repositories.NewTypingRepo(redisClient)

	hub := ws.NewHub()
	refresher := ws.NewRefresher(hub, presenceRepo, typingRepo, ws.DefaultRefreshInterval)
	refresher.Start(ctx)
	defer refresher.Stop()

	messageHandler := handlers.NewMessageHandler(messageRepo, hub, audit)
	presenceHandler := handlers.NewPresenceHandler(presenceRepo, refresher)
	typingHandler := handlers.NewTypingHandler(typingRepo, refresher)
	userHandler := handlers.NewUserHandler()
	healthHandler := handlers.NewHealthHandler(database, redisClient)
	roomWS := ws.NewRoomSocketHandler(hub, presenceRepo, typingRepo, refresher, verifier)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	requireAuth := middleware.Authenticate(verifier)
	optionalAuth := middleware.AuthenticateOptional(verifier)

	api := router.Group("/api")
	{
		api.GET("/rooms/:room/messages", messageHandler.List)
		api.POST("/rooms/:room/messages", requireAuth, messageHandler.Send)
		api.PATCH("/messages/:message_id", requireAuth, messageHandler.Edit)
		api.DELETE("/messages/:message_id", requireAuth, messageHandler.Remove)

		api.GET("/rooms/:room/online", presenceHandler.ListOnline)
		api.POST("/rooms/:room/presence/heartbeat", requireAuth, presenceHandler.Heartbeat)
		api.POST("/rooms/:room/presence/leave", optionalAuth, presenceHandler.Leave)

		api.GET("/rooms/:room/typing", typingHandler.ListTyping)
		api.POST("/rooms/:room/typing", requireAuth, typingHandler.Ping)
		api.POST("/rooms/:room/typing/stop", optionalAuth, typingHandler.Stop)

		api.GET("/users/me", optionalAuth, userHandler.Me)
	}

	router.GET("/ws/rooms/:room", roomWS.Handle)
	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	port := getEnv("PORT", "8086")
	log.Printf("rooms service listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
