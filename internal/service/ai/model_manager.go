package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/wykra-go/internal/constants"
	"github.com/kapu/wykra-go/internal/util"
)

var (
	statusCodeRegex = regexp.MustCompile(`\b([45]\d{2})\b`)
	jsonCodeRegex   = regexp.MustCompile(`"code":\s*(\d{3})`)
)

// ModelManager routes JSON-mode generations to the primary provider, falls
// back to the secondary one, and trips a circuit breaker on repeated
// provider-side failures.
type ModelManager struct {
	primary        JSONProvider
	fallback       JSONProvider
	logger         *zap.Logger
	circuitBreaker *util.CircuitBreaker
}

type ModelManagerConfig struct {
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string
	GeminiAPIKey      string
	GeminiModel       string
	EnableFallback    bool
}

func NewModelManager(ctx context.Context, cfg ModelManagerConfig, logger *zap.Logger) (*ModelManager, error) {
	baseURL := cfg.OpenRouterBaseURL
	if baseURL == "" {
		baseURL = constants.AIConfig.OpenRouterBaseURL
	}
	model := cfg.OpenRouterModel
	if model == "" {
		model = constants.AIConfig.DefaultModel
	}
	geminiModel := cfg.GeminiModel
	if geminiModel == "" {
		geminiModel = constants.AIConfig.DefaultGeminiModel
	}

	var providers []JSONProvider
	if openRouter := NewOpenRouterProvider(cfg.OpenRouterAPIKey, baseURL, model, logger); openRouter != nil {
		providers = append(providers, openRouter)
		logger.Info("OpenRouter provider enabled", zap.String("model", model))
	}

	gemini, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, geminiModel, logger)
	if err != nil {
		return nil, err
	}
	if gemini != nil {
		providers = append(providers, gemini)
		logger.Info("Gemini provider enabled", zap.String("model", geminiModel))
	}

	if len(providers) == 0 {
		logger.Warn("No AI provider configured, analysis requests will fail")
	}

	var primary, fallback JSONProvider
	if len(providers) > 0 {
		primary = providers[0]
	}
	if cfg.EnableFallback && len(providers) > 1 {
		fallback = providers[1]
	}

	return NewModelManagerWithProviders(primary, fallback, logger), nil
}

// NewModelManagerWithProviders wires explicit providers; fallback may be nil.
func NewModelManagerWithProviders(primary, fallback JSONProvider, logger *zap.Logger) *ModelManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	mm := &ModelManager{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
	mm.circuitBreaker = util.NewCircuitBreaker(
		constants.CircuitBreakerConfig.FailureThreshold,
		constants.CircuitBreakerConfig.ResetTimeout,
		constants.CircuitBreakerConfig.HealthCheckInterval,
		mm.healthCheckPing,
		logger,
	)
	return mm
}

// GenerateJSON runs req and decodes the model's JSON answer into dest.
func (mm *ModelManager) GenerateJSON(ctx context.Context, req GenerateRequest, dest any) (*GenerateMetadata, error) {
	if mm.primary == nil {
		return nil, fmt.Errorf("no AI provider is configured")
	}

	if !mm.circuitBreaker.CanExecute() {
		status := mm.circuitBreaker.GetStatus()
		nextRetry := "unknown"
		if status.NextRetryTime != nil {
			nextRetry = status.NextRetryTime.Format(time.RFC3339)
		}

		mm.logger.Error("AI service unavailable (circuit open)",
			zap.String("state", status.State.String()),
			zap.Int("failure_count", status.FailureCount),
			zap.String("next_retry", nextRetry),
		)
		return nil, fmt.Errorf("AI service temporarily unavailable, next retry at %s", nextRetry)
	}

	primaryResult, primaryErr := mm.primary.Generate(ctx, req)
	if primaryErr == nil {
		metadata := &GenerateMetadata{
			Provider: mm.primary.Name(),
			Model:    primaryResult.Model,
		}
		primaryErr = mm.decodeJSON(primaryResult.Text, metadata, dest)
		if primaryErr == nil {
			mm.circuitBreaker.RecordSuccess()
			return metadata, nil
		}
	}

	if mm.fallback != nil {
		mm.logger.Warn("Primary provider failed, trying fallback",
			zap.String("primary", mm.primary.Name()),
			zap.String("fallback", mm.fallback.Name()),
			zap.Error(primaryErr),
		)

		fallbackResult, fallbackErr := mm.fallback.Generate(ctx, req)
		if fallbackErr == nil {
			metadata := &GenerateMetadata{
				Provider:     mm.fallback.Name(),
				Model:        fallbackResult.Model,
				UsedFallback: true,
			}
			fallbackErr = mm.decodeJSON(fallbackResult.Text, metadata, dest)
			if fallbackErr == nil {
				mm.circuitBreaker.RecordSuccess()
				return metadata, nil
			}
		}

		mm.recordFailure(primaryErr)
		mm.recordFailure(fallbackErr)
		return nil, fmt.Errorf("all AI providers failed: %s: %v; %s: %w",
			mm.primary.Name(), primaryErr, mm.fallback.Name(), fallbackErr)
	}

	mm.recordFailure(primaryErr)
	return nil, fmt.Errorf("%s: %w", mm.primary.Name(), primaryErr)
}

func (mm *ModelManager) decodeJSON(text string, metadata *GenerateMetadata, dest any) error {
	cleaned := stripCodeFence(text)
	if cleaned == "" {
		return fmt.Errorf("%s API returned empty response", metadata.Provider)
	}

	if err := json.Unmarshal([]byte(cleaned), dest); err != nil {
		mm.logger.Error("Failed to unmarshal JSON response",
			zap.String("provider", metadata.Provider),
			zap.Error(err),
			zap.String("response_preview", util.TruncateString(cleaned, 200)),
		)
		return fmt.Errorf("invalid JSON from %s: %w", metadata.Provider, err)
	}

	return nil
}

func stripCodeFence(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "```json"))
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "```"))
	}
	if strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "```"))
	}
	return cleaned
}

func (mm *ModelManager) recordFailure(err error) {
	if !isServiceFailure(err) {
		return
	}

	timeout := constants.CircuitBreakerConfig.ResetTimeout
	if isRateLimitError(err) {
		timeout = constants.CircuitBreakerConfig.RateLimitTimeout
	}

	mm.circuitBreaker.RecordFailure(timeout)
}

func (mm *ModelManager) healthCheckPing() bool {
	ctx, cancel := context.WithTimeout(context.Background(), constants.CircuitBreakerConfig.HealthCheckTimeout)
	defer cancel()

	healthy := mm.primary != nil && mm.primary.Ping(ctx)
	if !healthy && mm.fallback != nil {
		healthy = mm.fallback.Ping(ctx)
	}

	mm.logger.Info("Health check result", zap.Bool("healthy", healthy))
	return healthy
}

func (mm *ModelManager) GetCircuitStatus() util.CircuitBreakerStatus {
	return mm.circuitBreaker.GetStatus()
}

// isServiceFailure reports provider-side failures (timeouts, 429, 5xx) that
// should count toward opening the circuit.
func isServiceFailure(err error) bool {
	if err == nil {
		return false
	}
	if isRateLimitError(err) {
		return true
	}

	msg := err.Error()
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return true
	}

	code := statusCode(msg)
	return code >= 500 && code < 600
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "Rate limit") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "quota") {
		return true
	}
	return statusCode(msg) == 429
}

func statusCode(msg string) int {
	if matches := jsonCodeRegex.FindStringSubmatch(msg); len(matches) > 1 {
		if code, err := strconv.Atoi(matches[1]); err == nil {
			return code
		}
	}
	if matches := statusCodeRegex.FindStringSubmatch(msg); len(matches) > 1 {
		if code, err := strconv.Atoi(matches[1]); err == nil {
			return code
		}
	}
	return 0
}
