package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Oracle.Backend)
	assert.Equal(t, "http://localhost:11434", cfg.Oracle.Host)
	assert.Equal(t, 3, cfg.Oracle.Attempts)
	assert.InDelta(t, 0.1, cfg.Oracle.Temperature, 1e-9)
	assert.Equal(t, "10m", cfg.Oracle.KeepAlive)
	assert.Equal(t, 800, cfg.Oracle.NumPredict)

	assert.Equal(t, 100000, cfg.Prepare.InlineBudget)
	assert.Equal(t, 400, cfg.Prepare.PerFileLineCap)
	assert.Equal(t, 60000, cfg.Prepare.ReduceAt)
	assert.Equal(t, 100000, cfg.Prepare.OutOfBandAt)

	assert.Equal(t, 1, cfg.Batch.PauseSecs)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PURITY_ORACLE_MODEL", "deepseek-r1:8b")
	t.Setenv("PURITY_BATCH_PAUSE_SECS", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "deepseek-r1:8b", cfg.Oracle.Model)
	assert.Equal(t, 0, cfg.Batch.PauseSecs)
}

func TestYAML_RoundTrips(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	data, err := cfg.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "oracle:")
	assert.Contains(t, string(data), "working_set:")
}
