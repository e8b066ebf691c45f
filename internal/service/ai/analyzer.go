package ai

import (
	"context"

	"go.uber.org/zap"

	"github.com/kapu/wykra-go/internal/domain"
	"github.com/kapu/wykra-go/internal/prompt"
	"github.com/kapu/wykra-go/pkg/errors"
)

// JSONGenerator is the slice of ModelManager the analyzer needs.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, req GenerateRequest, dest any) (*GenerateMetadata, error)
}

// Analyzer turns a normalized profile into a structured Analysis.
type Analyzer struct {
	generator JSONGenerator
	logger    *zap.Logger
}

func NewAnalyzer(generator JSONGenerator, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{generator: generator, logger: logger}
}

// Summarize asks the model for an assessment of profile. Every failure is an *errors.AgentError.
func (a *Analyzer) Summarize(ctx context.Context, profile *domain.Profile) (*domain.Analysis, error) {
	if profile == nil {
		return nil, errors.NewAgentError("profile is required", "", nil)
	}
	if a.generator == nil {
		return nil, errors.NewAgentError("analysis agent is not configured", "", nil)
	}

	userPrompt, err := prompt.BuildAnalysisPrompt(profile.AnalysisPayload())
	if err != nil {
		return nil, errors.NewAgentError("failed to build analysis prompt", "", err)
	}

	a.logger.Info("Analyzing profile", zap.String("username", profile.Username))

	var analysis domain.Analysis
	metadata, err := a.generator.GenerateJSON(ctx, GenerateRequest{
		System: prompt.AnalysisSystemPrompt,
		Prompt: userPrompt,
		Preset: PresetBalanced,
	}, &analysis)
	if err != nil {
		a.logger.Error("Profile analysis failed", zap.String("username", profile.Username), zap.Error(err))
		return nil, errors.NewAgentError("profile analysis failed", "", err)
	}

	provider := ""
	if metadata != nil {
		provider = metadata.Provider
	}
	if err := analysis.Validate(); err != nil {
		return nil, errors.NewAgentError("model returned an invalid analysis", provider, err)
	}

	fields := []zap.Field{
		zap.String("username", profile.Username),
		zap.Int("quality_score", analysis.QualityScore),
	}
	if metadata != nil {
		fields = append(fields,
			zap.String("provider", metadata.Provider),
			zap.String("model", metadata.Model),
			zap.Bool("used_fallback", metadata.UsedFallback),
		)
	}
	a.logger.Info("Analysis complete", fields...)

	return &analysis, nil
}
