package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapu/wykra-go/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BRIGHTDATA_API_TOKEN", "")
	t.Setenv("BRIGHTDATA_INSTAGRAM_DATASET_ID", "")
	t.Setenv("BRIGHTDATA_POLL_INTERVAL_SECONDS", "")
	t.Setenv("BRIGHTDATA_MAX_WAIT_SECONDS", "")
	t.Setenv("BRIGHTDATA_SNAPSHOT_FORMAT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.brightdata.com/datasets/v3", cfg.BrightData.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.BrightData.PollInterval)
	assert.Equal(t, 300*time.Second, cfg.BrightData.MaxWait)
	assert.Equal(t, domain.SnapshotFormatJSON, cfg.BrightData.SnapshotFormat)
	assert.ElementsMatch(t,
		[]string{"BRIGHTDATA_API_TOKEN", "BRIGHTDATA_INSTAGRAM_DATASET_ID"},
		cfg.BrightData.Missing())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BRIGHTDATA_API_TOKEN", "tok")
	t.Setenv("BRIGHTDATA_INSTAGRAM_DATASET_ID", "gd_1")
	t.Setenv("BRIGHTDATA_POLL_INTERVAL_SECONDS", "0.5")
	t.Setenv("BRIGHTDATA_MAX_WAIT_SECONDS", "30")
	t.Setenv("BRIGHTDATA_SNAPSHOT_FORMAT", "CSV")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.BrightData.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.BrightData.MaxWait)
	assert.Equal(t, domain.SnapshotFormatCSV, cfg.BrightData.SnapshotFormat)
	assert.Empty(t, cfg.BrightData.Missing())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			BrightData: BrightDataConfig{
				BaseURL:        "https://example.test",
				PollInterval:   time.Second,
				MaxWait:        time.Minute,
				FetchAttempts:  3,
				SnapshotFormat: domain.SnapshotFormatJSON,
			},
			RateLimit: RateLimitConfig{RequestsPerSecond: 1, Burst: 1},
		}
	}

	require.NoError(t, valid().Validate())

	tests := map[string]func(*Config){
		"zero interval":       func(c *Config) { c.BrightData.PollInterval = 0 },
		"wait below interval": func(c *Config) { c.BrightData.MaxWait = time.Millisecond },
		"no fetch attempts":   func(c *Config) { c.BrightData.FetchAttempts = 0 },
		"bad format":          func(c *Config) { c.BrightData.SnapshotFormat = "xml" },
		"empty base url":      func(c *Config) { c.BrightData.BaseURL = "" },
		"redis without ttl":   func(c *Config) { c.Redis.Enabled = true },
		"zero burst":          func(c *Config) { c.RateLimit.Burst = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLookupBudget(t *testing.T) {
	cfg := BrightDataConfig{
		PollInterval:   5 * time.Second,
		MaxWait:        10 * time.Minute,
		FetchAttempts:  4,
		RequestTimeout: 30 * time.Second,
	}

	assert.Equal(t, 10*time.Minute+20*time.Second+30*time.Second, cfg.LookupBudget())

	full := &Config{BrightData: cfg}
	assert.Greater(t, full.AnalysisBudget(), cfg.LookupBudget())
}

func TestLookupBudgetDefaults(t *testing.T) {
	assert.Equal(t, 300*time.Second+25*time.Second+60*time.Second, BrightDataConfig{}.LookupBudget())
}
