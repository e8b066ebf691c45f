package ai

import "github.com/kapu/wykra-go/internal/constants"

// ModelPreset represents the model usage preset
type ModelPreset string

const PresetBalanced ModelPreset = "balanced"

// ModelConfig holds sampling configuration shared by both providers.
type ModelConfig struct {
	Temperature     float32
	TopP            float32
	MaxOutputTokens int
}

// GenerateMetadata contains metadata about the generation
type GenerateMetadata struct {
	Provider     string
	Model        string
	UsedFallback bool
}

// GenerateRequest is a single JSON-mode completion request.
type GenerateRequest struct {
	System string
	Prompt string
	Preset ModelPreset
}

// GetPresetConfig returns the sampling configuration for a preset. Unknown
// presets get the balanced settings.
func GetPresetConfig(preset ModelPreset) ModelConfig {
	return ModelConfig{
		Temperature:     constants.AIConfig.Temperature,
		TopP:            0.95,
		MaxOutputTokens: constants.AIConfig.MaxOutputTokens,
	}
}
