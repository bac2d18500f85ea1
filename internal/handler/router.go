package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/esperluet/cv-smarter/internal/middleware"
)

type RouterDeps struct {
	Auth          *AuthHandler
	Sources       *SourceHandler
	Generation    *GenerationHandler
	CV            *CVHandler
	JWTSecret     []byte
	AuthRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	loginGroup := api.Group("")
	loginGroup.Use(middleware.RateLimit(deps.AuthRateLimit))
	loginGroup.POST("/auth/register", deps.Auth.Register)
	loginGroup.POST("/auth/login", deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/sources", deps.Sources.Create)
	authGroup.GET("/sources", deps.Sources.List)
	authGroup.GET("/sources/:id", deps.Sources.Get)
	authGroup.DELETE("/sources/:id", deps.Sources.Delete)
	authGroup.POST("/sources/:id/generate", deps.Generation.Generate)

	authGroup.POST("/cv/process", deps.CV.Process)
}
