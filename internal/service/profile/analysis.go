package profile

import (
	"context"

	"go.uber.org/zap"

	"github.com/kapu/wykra-go/internal/domain"
)

type ProfileFetcher interface {
	FetchProfile(ctx context.Context, username string) (*domain.Profile, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, profile *domain.Profile) (*domain.Analysis, error)
}

type AnalysisCache interface {
	GetAnalysis(ctx context.Context, username string) (*domain.Analysis, bool, error)
	SetAnalysis(ctx context.Context, username string, analysis *domain.Analysis) error
}

// AnalysisService fetches a profile and hands it to the analysis agent.
// The cache is optional; its failures are logged and never fail a request.
type AnalysisService struct {
	profiles   ProfileFetcher
	summarizer Summarizer
	cache      AnalysisCache
	logger     *zap.Logger
}

func NewAnalysisService(profiles ProfileFetcher, summarizer Summarizer, cache AnalysisCache, logger *zap.Logger) *AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisService{
		profiles:   profiles,
		summarizer: summarizer,
		cache:      cache,
		logger:     logger,
	}
}

func (s *AnalysisService) FetchProfile(ctx context.Context, username string) (*domain.Profile, error) {
	return s.profiles.FetchProfile(ctx, username)
}

func (s *AnalysisService) Analyze(ctx context.Context, username string) (*domain.Analysis, error) {
	if s.cache != nil {
		cached, found, err := s.cache.GetAnalysis(ctx, username)
		switch {
		case err != nil:
			s.logger.Warn("Analysis cache lookup failed", zap.String("username", username), zap.Error(err))
		case found:
			s.logger.Debug("Analysis cache hit", zap.String("username", username))
			return cached, nil
		}
	}

	profile, err := s.profiles.FetchProfile(ctx, username)
	if err != nil {
		return nil, err
	}

	analysis, err := s.summarizer.Summarize(ctx, profile)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetAnalysis(ctx, username, analysis); err != nil {
			s.logger.Warn("Analysis cache store failed", zap.String("username", username), zap.Error(err))
		}
	}

	return analysis, nil
}
