package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapu/wykra-go/internal/domain"
	"github.com/kapu/wykra-go/pkg/errors"
)

func TestAnalysisKeyIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, "wykra:analysis:alice", AnalysisKey("@Alice "))
	assert.Equal(t, AnalysisKey("ALICE"), AnalysisKey("alice"))
}

func TestUnreachableRedisReturnsCacheError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	svc := NewCacheServiceWithClient(client, 0, zap.NewNop())
	t.Cleanup(func() { _ = svc.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, found, err := svc.GetAnalysis(ctx, "alice")
	assert.False(t, found)
	var cacheErr *errors.CacheError
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, "get", cacheErr.Operation)

	err = svc.SetAnalysis(ctx, "alice", &domain.Analysis{Summary: "x", QualityScore: 1})
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, "set", cacheErr.Operation)
}
