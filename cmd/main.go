package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluent-freelance/messaging-service/config"
	"github.com/fluent-freelance/messaging-service/internal/postgres"
	"github.com/fluent-freelance/messaging-service/internal/security"
	"github.com/fluent-freelance/messaging-service/internal/service"
	httpx "github.com/fluent-freelance/messaging-service/internal/transport/http"
	"github.com/fluent-freelance/messaging-service/internal/transport/ws"
	"github.com/fluent-freelance/messaging-service/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting messaging-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	// --- repos ---
	userRepo := postgres.NewUserRepository(db.Pool)
	convRepo := postgres.NewConversationRepository(db.Pool)
	msgRepo := postgres.NewMessageRepository(db.Pool)
	proposalRepo := postgres.NewProposalRepository(db.Pool)

	// --- workflow ---
	msgSvc := service.NewMessagingService(userRepo, convRepo, msgRepo, proposalRepo)

	// --- hub ---
	registry := ws.NewRegistry()
	rooms := ws.NewRooms()
	engine := ws.NewEngine(registry, rooms)
	wsServer := ws.NewServer(msgSvc, registry, rooms, engine)

	// --- HTTP ---
	verifier := security.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	handler := httpx.NewHandler(msgSvc, engine, registry)
	router := httpx.NewRouter(handler, wsServer, verifier, cfg.HTTP.AllowedOrigins)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
