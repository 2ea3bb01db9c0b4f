package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBiasEngine(t *testing.T) {
	cfg := DefaultBiasEngine()

	assert.Equal(t, 252, cfg.Surprise.RollingWindowDays)
	assert.Equal(t, 3.0, cfg.Surprise.CapStdMultiple)
	assert.Equal(t, 30, cfg.Surprise.MaxDaysBack)
	assert.Equal(t, 14, cfg.Scoring.MaxDaysBack)
	assert.Equal(t, 4, cfg.Scoring.Concurrency)
	assert.Equal(t, 5, cfg.Confidence.MinIndicatorsExpected)
	assert.Equal(t, "VIX", cfg.Volatility.Symbol)
	assert.Equal(t, 10.0, cfg.Volatility.VixMin)
	assert.Equal(t, 40.0, cfg.Volatility.VixMax)
	assert.Equal(t, 70.0, cfg.RiskFlag.ConfidenceHigh)
	assert.Equal(t, 40.0, cfg.RiskFlag.ConfidenceLow)
	assert.Equal(t, 50.0, cfg.RiskFlag.BiasModerateAbs)
	assert.Equal(t, 35.0, cfg.RiskFlag.VixHigh)
	assert.Equal(t, 45.0, cfg.RiskFlag.VixCritical)
	assert.Equal(t, 2.0, cfg.Scoring.LambdaFor("US500"))
}

func TestParseBiasEngineOverridesAndKeepsDefaults(t *testing.T) {
	cfg, err := ParseBiasEngine([]byte(`
scoring:
  lambda:
    NAS100: 1.5
risk_flag:
  bias_moderate_abs: 30
volatility:
  vix_min: 0
`))
	require.NoError(t, err)

	assert.Equal(t, 1.5, cfg.Scoring.LambdaFor("NAS100"))
	assert.Equal(t, 2.0, cfg.Scoring.LambdaFor("US500"))
	assert.Equal(t, 30.0, cfg.RiskFlag.BiasModerateAbs)
	assert.Equal(t, 0.0, cfg.Volatility.VixMin)
	assert.Equal(t, 252, cfg.Surprise.RollingWindowDays)
}

func TestParseBiasEngineRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"window":     "surprise:\n  rolling_window_days: 0\n",
		"vix range":  "volatility:\n  vix_min: 40\n  vix_max: 10\n",
		"confidence": "risk_flag:\n  confidence_low: 90\n",
		"yaml":       "surprise: [",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBiasEngine([]byte(raw))
			require.Error(t, err)
		})
	}
}

func TestParseBiasEngineAcceptsSmallLambda(t *testing.T) {
	cfg, err := ParseBiasEngine([]byte("scoring:\n  lambda:\n    US500: 0\n    US30: -1\n    NAS100: .nan\n"))
	require.NoError(t, err)

	assert.Equal(t, 0.0, cfg.Scoring.LambdaFor("US500"))
	assert.Equal(t, -1.0, cfg.Scoring.LambdaFor("US30"))
	assert.Equal(t, 2.0, cfg.Scoring.LambdaFor("NAS100"))
}

func TestLoadBiasEngineFallsBackToExample(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadBiasEngine(dir)
	require.NoError(t, err)
	assert.Equal(t, 252, cfg.Surprise.RollingWindowDays)

	writeFile(t, dir, "bias_engine.example.yaml", "surprise:\n  rolling_window_days: 100\n")
	cfg, err = LoadBiasEngine(dir)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Surprise.RollingWindowDays)

	writeFile(t, dir, "bias_engine.yaml", "surprise:\n  rolling_window_days: 60\n")
	cfg, err = LoadBiasEngine(dir)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Surprise.RollingWindowDays)
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}
