package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"users_backend/internal/app/di"
	"users_backend/internal/feature/users/transport/apigw"
	userhandler "users_backend/internal/feature/users/transport/handler"
	"users_backend/internal/feature/users/usecase"
	"users_backend/internal/platform/config"
	"users_backend/internal/platform/logger"
)

// The store is built once per execution environment and reused across invocations.
func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("config: %v", err)
	}
	if err := logger.Init(cfg.LogLevel, "json"); err != nil {
		config.Exitf("logger: %v", err)
	}

	store, err := di.NewUserStore(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("failed to open user store")
	}

	userUC := usecase.NewUserUsecase(store.Users, usecase.WithStoreTimeout(cfg.StoreTimeout))
	lambda.Start(apigw.NewProxyHandler(userhandler.NewUserHandler(userUC)))
}
