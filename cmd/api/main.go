package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/threadware/collapse-engine/internal/config"
	"github.com/threadware/collapse-engine/internal/engine"
	"github.com/threadware/collapse-engine/internal/handlers"
	"github.com/threadware/collapse-engine/internal/logger"
	"github.com/threadware/collapse-engine/internal/middleware"
	"github.com/threadware/collapse-engine/internal/services"
	"github.com/threadware/collapse-engine/internal/services/events"
	"github.com/threadware/collapse-engine/internal/signals"
	"github.com/threadware/collapse-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Collapse Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"model_name", cfg.ModelName,
		"session_store", cfg.SessionStore)

	if cfg.GeminiAPIKey == "" {
		log.Error("GEMINI_API_KEY is required")
		os.Exit(1)
	}
	gen := services.NewGeminiService(cfg.GeminiAPIKey, cfg.ModelName, cfg.ImageModelName, cfg.GeminiBaseURL, log)

	var store storage.Storage
	switch cfg.SessionStore {
	case config.StoreRedis:
		redisStore := storage.NewRedisStorage(cfg.RedisURL, cfg.SessionTTL, log)
		storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer storageCancel()
		if err := redisStore.WaitForConnection(storageCtx); err != nil {
			log.Error("Failed to connect to storage", "error", err)
			os.Exit(1)
		}
		store = redisStore
		log.Info("Using Redis session store")
	default:
		store = storage.NewMemoryStorage()
		log.Info("Using in-memory session store")
	}

	broadcaster := events.NewBroadcaster(log)
	scheduler := signals.NewScheduler(log)
	eng := engine.NewEngine(store, gen, broadcaster, scheduler,
		cfg.MemorySignalDuration, cfg.HarvestSignalDuration, log)

	dialVoice := func(ctx context.Context) (*services.VoiceSession, error) {
		return services.NewVoiceSession(ctx, cfg.GeminiAPIKey, cfg.ModelName, log)
	}

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	sessionHandler := handlers.NewSessionHandler(eng, broadcaster, dialVoice, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	loreHandler := handlers.NewLoreHandler(eng, log)
	mux.Handle("/v1/lore", loreHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout omitted so SSE streams are not cut off
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	scheduler.Stop()

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server exited")
}
