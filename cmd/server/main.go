package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dashboard-backend/internal/config"
	"dashboard-backend/internal/handlers"
	"dashboard-backend/internal/logger"
	"dashboard-backend/internal/router"
	"dashboard-backend/internal/services"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("✗ Configuration invalid: %v", err)
	}

	// ──── Step 2: Initialize Logger ────
	mode := logger.DevelopmentMode
	if cfg.IsProduction() {
		mode = logger.ProductionMode
	}
	zlog, err := logger.New(mode)
	if err != nil {
		log.Fatalf("✗ Logger initialization failed: %v", err)
	}
	defer zlog.Sync()

	zlog.Info("starting dashboard backend", zap.String("env", cfg.Env))

	// ──── Step 3: Build Credential Table ────
	store, err := services.NewCredentialStore(cfg.Users)
	if err != nil {
		zlog.Fatal("credential table invalid", zap.Error(err))
	}
	zlog.Info("✓ credential table loaded", zap.Int("users", store.Len()))

	// ──── Step 4: Initialize Chat Provider ────
	provider, closeProvider, err := newChatProvider(cfg)
	if err != nil {
		zlog.Fatal("chat provider initialization failed", zap.Error(err))
	}
	defer closeProvider()
	zlog.Info("✓ chat provider initialized",
		zap.String("provider", provider.Name()),
		zap.Int("concurrent_requests", cfg.ChatConcurrentReqs),
		zap.Duration("timeout", cfg.ChatTimeout),
	)

	// ──── Initialize Services & Handlers ────
	authService := services.NewAuthService(store, zlog)
	chatService := services.NewChatService(provider, services.ChatOptions{
		ConcurrentReqs: cfg.ChatConcurrentReqs,
		Timeout:        cfg.ChatTimeout,
		QueueTimeout:   cfg.ChatQueueTimeout,
	}, zlog)

	authHandler := handlers.NewAuthHandler(authService, zlog)
	chatHandler := handlers.NewChatHandler(chatService, zlog)

	// ──── Step 5: Start HTTP Server ────
	r := router.New(authHandler, chatHandler, cfg.AllowedOrigins, zlog)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Leaves room for a full upstream completion.
		WriteTimeout: cfg.ChatQueueTimeout + cfg.ChatTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	idle := make(chan struct{})
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		zlog.Info("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			zlog.Error("graceful shutdown failed", zap.Error(err))
		}
		close(idle)
	}()

	zlog.Info("✓ dashboard backend ready", zap.String("addr", "http://localhost:"+cfg.Port))

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		zlog.Fatal("server error", zap.Error(err))
	}
	<-idle
}

// newChatProvider returns the configured completion backend and its cleanup func.
func newChatProvider(cfg *config.Config) (services.ChatProvider, func(), error) {
	switch cfg.ChatProvider {
	case config.ProviderGemini:
		p, err := services.NewGeminiProvider(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return p, func() { p.Close() }, nil
	default:
		p := services.NewOpenRouterProvider(services.OpenRouterConfig{
			BaseURL: cfg.ChatBaseURL,
			APIKey:  cfg.OpenRouterAPIKey,
			Model:   cfg.ChatModel,
			Referer: cfg.ChatReferer,
			Title:   cfg.ChatTitle,
		}, &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()})
		return p, func() {}, nil
	}
}
