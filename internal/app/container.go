package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/kapu/wykra-go/internal/config"
	"github.com/kapu/wykra-go/internal/constants"
	"github.com/kapu/wykra-go/internal/server"
	"github.com/kapu/wykra-go/internal/service/ai"
	"github.com/kapu/wykra-go/internal/service/cache"
	"github.com/kapu/wykra-go/internal/service/profile"
)

// Container bundles the assembled services.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Profiles *profile.Service
	Analysis *profile.AnalysisService

	closers []func()
}

// Build assembles all services. Optional infrastructure (Redis) that fails to
// come up is logged and skipped; everything opened so far is closed if Build
// itself fails.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	if missing := cfg.BrightData.Missing(); len(missing) > 0 {
		logger.Warn("Bright Data is not configured, lookups will fail", zap.Strings("missing", missing))
	}
	profiles := profile.NewService(cfg.BrightData, logger)

	modelManager, err := ai.NewModelManager(ctx, ai.ModelManagerConfig{
		OpenRouterAPIKey:  cfg.OpenRouter.APIKey,
		OpenRouterBaseURL: cfg.OpenRouter.BaseURL,
		OpenRouterModel:   cfg.OpenRouter.Model,
		GeminiAPIKey:      cfg.Gemini.APIKey,
		GeminiModel:       cfg.Gemini.Model,
		EnableFallback:    cfg.Gemini.EnableFallback,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model manager: %w", err)
	}
	analyzer := ai.NewAnalyzer(modelManager, logger)

	var analysisCache profile.AnalysisCache
	if cfg.Redis.Enabled {
		cacheSvc, cacheErr := cache.NewCacheService(cache.CacheConfig{
			Host:        cfg.Redis.Host,
			Port:        cfg.Redis.Port,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			AnalysisTTL: cfg.Redis.AnalysisTTL,
		}, logger)
		if cacheErr != nil {
			logger.Warn("Analysis cache unavailable, continuing without it", zap.Error(cacheErr))
		} else {
			analysisCache = cacheSvc
			closers = append(closers, func() {
				_ = cacheSvc.Close()
			})
		}
	}

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Profiles: profiles,
		Analysis: profile.NewAnalysisService(profiles, analyzer, analysisCache, logger),
		closers:  closers,
	}, nil
}

// NewHTTPServer wires the route layer onto cfg.Server.Addr.
func (c *Container) NewHTTPServer() *http.Server {
	return &http.Server{
		Addr:              c.Config.Server.Addr,
		Handler:           server.NewRouter(c.Analysis, c.Config, c.Logger),
		ReadHeaderTimeout: constants.ServerConfig.ReadHeaderTimeout,
	}
}

// Close releases infrastructure in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
