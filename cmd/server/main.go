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

	"warren-backend/internal/config"
	"warren-backend/internal/database"
	"warren-backend/internal/handlers"
	"warren-backend/internal/middleware"
	"warren-backend/internal/repository"
	"warren-backend/internal/router"
	"warren-backend/internal/services"
	"warren-backend/internal/websocket"
)

func main() {
	log.Println("🐇 Starting Warren & Whiskers Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	bookingRepo := repository.NewBookingRepo(pool)

	// ──── Step 5: Initialize Gemini Assistant ────
	// A missing key degrades the service instead of killing it: sessions are
	// still created and chat endpoints answer 503.
	systemPrompt := ""
	if cfg.SystemPromptPath != "" {
		data, err := os.ReadFile(cfg.SystemPromptPath)
		if err != nil {
			log.Fatalf("✗ Failed to read system prompt from %s: %v", cfg.SystemPromptPath, err)
		}
		systemPrompt = string(data)
	}
	assistant := services.NewAssistantService(cfg.GeminiAPIKey, cfg.GeminiModel, systemPrompt)
	defer assistant.Close()
	if assistant.Available() {
		log.Println("✓ Gemini assistant initialized")
	} else {
		log.Printf("⚠ Gemini assistant unavailable, running degraded: %v", assistant.Err())
	}

	// ──── Initialize Services ────
	sessionAuth := middleware.NewSessionAuth(cfg.SessionSecret, time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	publisher := services.NewRedisPublisher(redisClients.Publish)
	sessionManager := services.NewSessionManager(assistant, publisher, time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	renderer := services.NewRenderer()
	encoder := services.NewEncoder(cfg.MaxUploadBytes)
	bookingService := services.NewBookingService()
	dispatcher := services.NewDispatcher(assistant, bookingService, bookingRepo, encoder, renderer, publisher)

	// ──── Initialize Handlers ────
	sessionHandler := handlers.NewSessionHandler(sessionManager, assistant, sessionAuth)
	chatHandler := handlers.NewChatHandler(sessionManager, dispatcher)
	bookingHandler := handlers.NewBookingHandler(sessionManager, dispatcher, bookingRepo, cfg.MaxUploadBytes)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.SessionSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		sessionAuth,
		sessionHandler,
		chatHandler,
		bookingHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Warren & Whiskers Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
