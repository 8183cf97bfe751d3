package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTuningFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadTuning_EmptyPathReturnsDefaults(t *testing.T) {
	tuning, err := LoadTuning("")

	require.NoError(t, err)
	assert.Equal(t, 2.0, tuning.SharePrice.AnchorStrength)
	assert.Equal(t, 0.15, tuning.Rating.AssetHealthWeight)

	params := tuning.SharePriceParams()
	assert.Equal(t, 0.020, params.Metrics.EarningsPerShare.Weight)
	assert.Equal(t, 48, params.GraceWeeks)
}

func TestLoadTuning_PartialOverrideKeepsOtherDefaults(t *testing.T) {
	path := writeTuningFile(t, `
[share_price]
anchor_strength = 3.0

[share_price.metrics.prestige]
max_move = 0.25
weight = 0.004

[rating]
max_penalty = 0.20
`)

	tuning, err := LoadTuning(path)
	require.NoError(t, err)

	params := tuning.SharePriceParams()
	assert.Equal(t, 3.0, params.AnchorStrength)
	assert.Equal(t, 0.25, params.Metrics.Prestige.MaxMove)
	assert.Equal(t, 0.004, params.Metrics.Prestige.Weight)
	// Untouched keys keep the shipped values
	assert.Equal(t, 1.5, params.AnchorExponent)
	assert.Equal(t, 0.020, params.Metrics.EarningsPerShare.Weight)

	ratingParams := tuning.RatingParams()
	assert.Equal(t, 0.20, ratingParams.MaxPenalty)
	assert.Equal(t, 0.15, ratingParams.AssetHealthWeight)
}

func TestLoadTuning_PartialMetricTableKeepsOmittedKeys(t *testing.T) {
	path := writeTuningFile(t, `
[share_price.metrics.earnings_per_share]
max_move = 0.8
`)

	tuning, err := LoadTuning(path)
	require.NoError(t, err)

	params := tuning.SharePriceParams()
	assert.Equal(t, 0.8, params.Metrics.EarningsPerShare.MaxMove)
	// The omitted weight keeps its shipped value instead of collapsing to zero
	assert.Equal(t, 0.020, params.Metrics.EarningsPerShare.Weight)
}

func TestLoadTuning_RejectsOutOfRangeValues(t *testing.T) {
	path := writeTuningFile(t, `
[rating]
asset_health_weight = 0.9
`)

	_, err := LoadTuning(path)
	assert.Error(t, err)
}

func TestLoadTuning_RejectsUnknownMetric(t *testing.T) {
	path := writeTuningFile(t, `
[share_price.metrics.vibes]
max_move = 0.5
weight = 0.01
`)

	_, err := LoadTuning(path)
	assert.ErrorContains(t, err, "unknown share price metric")
}

func TestLoadTuning_RejectsInvertedPrestigeRange(t *testing.T) {
	path := writeTuningFile(t, `
[share_price]
prestige_mult_min = 1.5
prestige_mult_max = 1.1
`)

	_, err := LoadTuning(path)
	assert.ErrorContains(t, err, "prestige_mult_max")
}

func TestLoadServerFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/vintner")
	t.Setenv("VINTNER_API_TOKEN", "secret")
	t.Setenv("VINTNER_LOG_LEVEL", "debug")

	cfg, err := LoadServerFromEnv()

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "postgres://localhost/vintner", cfg.DatabaseURL)
	assert.Equal(t, "secret", cfg.AuthToken)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadServerFromEnv_LogLevelMapping(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  slog.Level
	}{
		{name: "debug", value: "debug", want: slog.LevelDebug},
		{name: "info", value: "info", want: slog.LevelInfo},
		{name: "warn", value: "warn", want: slog.LevelWarn},
		{name: "error", value: "error", want: slog.LevelError},
		{name: "mixed case", value: "WARN", want: slog.LevelWarn},
		{name: "unknown falls back to info", value: "verbose", want: slog.LevelInfo},
		{name: "unset falls back to info", value: "", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/vintner")
			t.Setenv("VINTNER_API_TOKEN", "secret")
			t.Setenv("VINTNER_LOG_LEVEL", tt.value)

			cfg, err := LoadServerFromEnv()

			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.LogLevel)
		})
	}
}

func TestLoadServerFromEnv_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("VINTNER_API_TOKEN", "secret")

	_, err := LoadServerFromEnv()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadWorkerFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/vintner")
	t.Setenv("VINTNER_TICK_EVERY", "")
	t.Setenv("VINTNER_LOG_LEVEL", "")

	cfg, err := LoadWorkerFromEnv()

	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "1m0s", cfg.TickEvery.String())
}
