package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"users_backend/internal/app/di"
	"users_backend/internal/app/router"
	userhandler "users_backend/internal/feature/users/transport/handler"
	"users_backend/internal/feature/users/usecase"
	"users_backend/internal/platform/config"
	"users_backend/internal/platform/http/handler"
	"users_backend/internal/platform/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		config.Exitf("config: %v", err)
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		config.Exitf("logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store (+ Redis cache)
	store, err := di.NewUserStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("failed to open user store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close user store")
		}
	}()

	// Usecase
	userUC := usecase.NewUserUsecase(store.Users, usecase.WithStoreTimeout(cfg.StoreTimeout))

	// Handler
	userH := userhandler.NewUserHandler(userUC)
	healthH := handler.NewHealthHandler(store.Pinger, cfg.StoreTimeout)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.NewRouter(userH, healthH),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
