package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"learning-session/internal/config"
	"learning-session/internal/database"
	"learning-session/internal/gateway"
	"learning-session/internal/handlers"
	"learning-session/internal/middleware"
	"learning-session/internal/pkg/logger"
	"learning-session/internal/router"
	"learning-session/internal/services"
	"learning-session/internal/session"
	"learning-session/internal/websocket"
	"learning-session/internal/worker"
)

func main() {
	log.Println("🚀 Starting Learning Session service...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	appLogger := logger.NewZapLogger(cfg.LogFilePath, cfg.IsProduction())
	defer appLogger.Sync()
	log.Println("✓ Logger initialized")

	// ──── Step 2: Initialize Redis Clients (optional) ────
	var publishClient, pubsubClient *redis.Client
	if cfg.RedisURL != "" {
		redisClients, err := database.NewRedisClients(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer redisClients.Close()
		publishClient, pubsubClient = redisClients.Publish, redisClients.PubSub
		log.Println("✓ Redis connected")
	} else {
		log.Println("✓ Redis not configured, session updates stay on this instance")
	}

	// ──── Step 3: Backend Gateway ────
	backend := gateway.NewClient(cfg.BackendURL, cfg.BackendTimeout, appLogger)
	backendMonitor := services.NewBackendMonitor(backend, time.Minute, appLogger)
	if status := backendMonitor.Check(context.Background()); status.Reachable {
		log.Printf("✓ Backend reachable at %s", cfg.BackendURL)
	} else {
		log.Printf("✗ Backend not reachable at %s (continuing): %s", cfg.BackendURL, status.Error)
	}
	backendMonitor.Start()

	// ──── Initialize Services ────
	sessionAuth := middleware.NewSessionAuth(cfg.JWTSecret, cfg.SessionTTL)
	fileExtractService := services.NewFileExtractService(cfg.MaxUploadBytes)

	var wsHub *websocket.Hub
	var registry *session.Registry

	// ──── Step 4: Start Update Worker Pool ────
	publisher := services.NewUpdatePublisher(publishClient, hubSender(func() *websocket.Hub { return wsHub }), appLogger)
	workerPool := worker.NewPool(publisher, 4, 256, appLogger)
	workerPool.Start()
	log.Println("✓ Update worker pool started (4 goroutines)")

	// ──── Step 5: Session Registry ────
	sessionOpts := session.Options{
		DefaultStudentID:     cfg.DefaultStudentID,
		DefaultQuizQuestions: cfg.DefaultQuizQuestions,
		MaxQuizQuestions:     cfg.MaxQuizQuestions,
		ReadRetries:          cfg.BackendReadRetries,
		RetryBackoff:         cfg.BackendRetryBackoff,
	}
	registry = session.NewRegistry(cfg.SessionTTL, func(id string) *session.Controller {
		return session.NewController(id, backend, fileExtractService, workerPool, appLogger, sessionOpts)
	})
	log.Printf("✓ Session registry ready (ttl %s)", cfg.SessionTTL)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub = websocket.NewHub(pubsubClient, sessionAuth, registry, appLogger)
	registry.OnEvicted(func(id string) {
		appLogger.Info("SESSION", "Session ended", map[string]interface{}{"session_id": id})
		wsHub.CloseSession(id)
	})
	log.Println("✓ WebSocket hub started")

	// ──── Initialize Handlers ────
	healthHandler := handlers.NewHealthHandler(backendMonitor, registry)
	sessionHandler := handlers.NewSessionHandler(registry, sessionAuth, appLogger)
	contentHandler := handlers.NewContentHandler(registry, cfg.MaxUploadBytes)
	chatHandler := handlers.NewChatHandler(registry)
	summaryHandler := handlers.NewSummaryHandler(registry)
	quizHandler := handlers.NewQuizHandler(registry)
	progressHandler := handlers.NewProgressHandler(registry)

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		sessionAuth,
		healthHandler,
		sessionHandler,
		contentHandler,
		chatHandler,
		summaryHandler,
		quizHandler,
		progressHandler,
		wsHub,
		cfg.FrontendURL,
	)

	// A retried read must still be able to write its error response.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.BackendReadBudget() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.BackendReadBudget()+15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("✗ Server shutdown: %v", err)
		}
		workerPool.Stop()
		backendMonitor.Stop()
		log.Println("✓ Shutdown complete")
	}()

	log.Printf("✓ Learning Session service ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	<-done
}

// hubSender defers to the hub once it exists; the hub needs the registry,
// which in turn needs the publisher.
type hubSender func() *websocket.Hub

func (f hubSender) SendToSession(sessionID string, msg interface{}) {
	if hub := f(); hub != nil {
		hub.SendToSession(sessionID, msg)
	}
}
