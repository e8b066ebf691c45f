package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kapu/wykra-go/internal/constants"
	"github.com/kapu/wykra-go/internal/domain"
	"github.com/kapu/wykra-go/internal/util"
	"github.com/kapu/wykra-go/pkg/errors"
)

type CacheService struct {
	client      *redis.Client
	analysisTTL time.Duration
	logger      *zap.Logger
}

type CacheConfig struct {
	Host        string
	Port        int
	Password    string
	DB          int
	AnalysisTTL time.Duration
}

func NewCacheService(cfg CacheConfig, logger *zap.Logger) (*CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), constants.RedisConfig.ReadyTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewCacheError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return NewCacheServiceWithClient(client, cfg.AnalysisTTL, logger), nil
}

// NewCacheServiceWithClient wraps an existing client without pinging it.
func NewCacheServiceWithClient(client *redis.Client, analysisTTL time.Duration, logger *zap.Logger) *CacheService {
	if analysisTTL <= 0 {
		analysisTTL = constants.CacheTTL.Analysis
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		client:      client,
		analysisTTL: analysisTTL,
		logger:      logger,
	}
}

// Get decodes the JSON value at key into dest. found is false for a missing key.
func (c *CacheService) Get(ctx context.Context, key string, dest any) (bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		c.logger.Error("Cache get failed", zap.String("key", key), zap.Error(err))
		return false, errors.NewCacheError("get failed", "get", key, err)
	}

	if err := json.Unmarshal([]byte(value), dest); err != nil {
		c.logger.Error("Cache unmarshal failed", zap.String("key", key), zap.Error(err))
		return false, errors.NewCacheError("unmarshal failed", "get", key, err)
	}

	return true, nil
}

func (c *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheError("marshal failed", "set", key, err)
	}

	if err := c.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		c.logger.Error("Cache set failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("set failed", "set", key, err)
	}

	return nil
}

// AnalysisKey is the cache key for a username's analysis, case-insensitive.
func AnalysisKey(username string) string {
	return constants.RedisConfig.KeyPrefix + "analysis:" + util.NormalizeHandle(username)
}

func (c *CacheService) GetAnalysis(ctx context.Context, username string) (*domain.Analysis, bool, error) {
	var analysis domain.Analysis
	found, err := c.Get(ctx, AnalysisKey(username), &analysis)
	if err != nil || !found {
		return nil, false, err
	}
	return &analysis, true, nil
}

func (c *CacheService) SetAnalysis(ctx context.Context, username string, analysis *domain.Analysis) error {
	return c.Set(ctx, AnalysisKey(username), analysis, c.analysisTTL)
}

func (c *CacheService) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
