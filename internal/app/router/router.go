// Package router wires the HTTP routes of the service.
package router

import (
	"github.com/gin-gonic/gin"

	userhandler "users_backend/internal/feature/users/transport/handler"
	"users_backend/internal/platform/http/handler"
	"users_backend/internal/platform/http/middleware"
)

// NewRouter builds the gin engine with every route the service exposes.
func NewRouter(users *userhandler.UserHandler, health *handler.HealthHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.AccessLog())

	// 導通確認用
	r.GET("/healthz", health.Health)
	r.HEAD("/healthz", health.Health)
	r.OPTIONS("/healthz", health.Health)

	// 新規ユーザー登録
	// Every method is routed so that non-POST requests get the JSON 405 with CORS headers
	// instead of gin's plain-text 404.
	r.Any("/users", users.CreateUser)

	return r
}
