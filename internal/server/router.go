package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kapu/wykra-go/internal/config"
	"github.com/kapu/wykra-go/internal/server/middleware"
)

// NewRouter builds the gin engine.
//
// Middleware chain:
//
//	Global:  Recovery -> RequestLogger
//	API:     RateLimit
func NewRouter(svc ProfileAnalyzer, cfg *config.Config, logger *zap.Logger) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	r.GET("/health", Health(cfg.App.Environment))

	instagram := r.Group("/api/v1/instagram")
	instagram.Use(middleware.RateLimit(cfg.RateLimit))
	instagram.GET("/analysis", Analysis(svc, cfg.AnalysisBudget(), logger))
	instagram.GET("/profile", Profile(svc, cfg.BrightData.LookupBudget(), logger))

	return r
}
