package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapu/wykra-go/internal/domain"
	apperrors "github.com/kapu/wykra-go/pkg/errors"
)

type fakeFetcher struct {
	profile *domain.Profile
	err     error
	calls   int
}

func (f *fakeFetcher) FetchProfile(_ context.Context, username string) (*domain.Profile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.profile != nil {
		return f.profile, nil
	}
	return &domain.Profile{Username: username, Raw: map[string]any{}}, nil
}

type fakeSummarizer struct {
	analysis *domain.Analysis
	err      error
	calls    int
}

func (f *fakeSummarizer) Summarize(context.Context, *domain.Profile) (*domain.Analysis, error) {
	f.calls++
	return f.analysis, f.err
}

type memoryCache struct {
	entries map[string]*domain.Analysis
	getErr  error
	setErr  error
	sets    int
}

func (m *memoryCache) GetAnalysis(_ context.Context, username string) (*domain.Analysis, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	analysis, ok := m.entries[username]
	return analysis, ok, nil
}

func (m *memoryCache) SetAnalysis(_ context.Context, username string, analysis *domain.Analysis) error {
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	if m.entries == nil {
		m.entries = map[string]*domain.Analysis{}
	}
	m.entries[username] = analysis
	return nil
}

func TestAnalyzeFetchesAndSummarizes(t *testing.T) {
	fetcher := &fakeFetcher{}
	summarizer := &fakeSummarizer{analysis: &domain.Analysis{Summary: "ok", QualityScore: 3}}
	svc := NewAnalysisService(fetcher, summarizer, nil, zap.NewNop())

	analysis, err := svc.Analyze(context.Background(), "alice")

	require.NoError(t, err)
	assert.Equal(t, "ok", analysis.Summary)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, 1, summarizer.calls)
}

func TestAnalyzeUsesCache(t *testing.T) {
	fetcher := &fakeFetcher{}
	summarizer := &fakeSummarizer{analysis: &domain.Analysis{Summary: "ok", QualityScore: 3}}
	cache := &memoryCache{}
	svc := NewAnalysisService(fetcher, summarizer, cache, zap.NewNop())

	_, err := svc.Analyze(context.Background(), "alice")
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, "ok", second.Summary)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, 1, summarizer.calls)
	assert.Equal(t, 1, cache.sets)
}

func TestAnalyzeCacheFailuresDoNotFailRequest(t *testing.T) {
	cache := &memoryCache{getErr: errors.New("redis down"), setErr: errors.New("redis down")}
	summarizer := &fakeSummarizer{analysis: &domain.Analysis{Summary: "ok", QualityScore: 3}}
	svc := NewAnalysisService(&fakeFetcher{}, summarizer, cache, zap.NewNop())

	analysis, err := svc.Analyze(context.Background(), "alice")

	require.NoError(t, err)
	assert.Equal(t, "ok", analysis.Summary)
}

func TestAnalyzePropagatesLookupErrors(t *testing.T) {
	fetcher := &fakeFetcher{err: apperrors.NewTimeoutError("sd_1", "running", nil)}
	summarizer := &fakeSummarizer{}
	cache := &memoryCache{}
	svc := NewAnalysisService(fetcher, summarizer, cache, zap.NewNop())

	_, err := svc.Analyze(context.Background(), "alice")

	assert.ErrorIs(t, err, apperrors.ErrTimeout)
	assert.Zero(t, summarizer.calls)
	assert.Zero(t, cache.sets)
}

func TestAnalyzeDoesNotCacheAgentFailures(t *testing.T) {
	summarizer := &fakeSummarizer{err: apperrors.NewAgentError("model failed", "fake", nil)}
	cache := &memoryCache{}
	svc := NewAnalysisService(&fakeFetcher{}, summarizer, cache, zap.NewNop())

	_, err := svc.Analyze(context.Background(), "alice")

	var agentErr *apperrors.AgentError
	assert.ErrorAs(t, err, &agentErr)
	assert.Zero(t, cache.sets)
}
