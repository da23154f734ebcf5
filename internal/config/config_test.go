package config

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TUNER_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, SourceFile, cfg.ObservationsSource)
	assert.Equal(t, filepath.Join(dir, "llm_cache.json"), cfg.ObservationsPath)
	assert.Equal(t, filepath.Join(dir, "observations.db"), cfg.ObservationsDB)
	assert.Equal(t, 10000.0, cfg.StartingCapital)
	assert.Equal(t, 0.001, cfg.TransactionFee)
	assert.Equal(t, 100.0, cfg.MinCash)
	assert.Equal(t, 2, cfg.MinBuys)
	assert.Equal(t, 2, cfg.MinSells)
	assert.Equal(t, 15, cfg.TopN)
	assert.Equal(t, 0, cfg.SearchWorkers)
	assert.Empty(t, cfg.GridPath)
	assert.False(t, cfg.R2.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TUNER_DATA_DIR", dir)
	t.Setenv("OBSERVATIONS_SOURCE", "SQLite")
	t.Setenv("OBSERVATIONS_PATH", "/srv/cache.msgpack")
	t.Setenv("STARTING_CAPITAL", "25000")
	t.Setenv("TRANSACTION_FEE", "0.002")
	t.Setenv("SEARCH_WORKERS", "6")
	t.Setenv("BACKFILL_INDICATORS", "true")
	t.Setenv("GRID_PATH", "grid.yaml")
	t.Setenv("SEARCH_SCHEDULE", "0 0 6 * * *")
	t.Setenv("R2_ACCOUNT_ID", "acct")
	t.Setenv("R2_BUCKET_NAME", "bucket")
	t.Setenv("R2_OBJECT_KEY", "llm_cache.json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SourceSQLite, cfg.ObservationsSource)
	assert.Equal(t, "/srv/cache.msgpack", cfg.ObservationsPath)
	assert.Equal(t, 25000.0, cfg.StartingCapital)
	assert.Equal(t, 0.002, cfg.TransactionFee)
	assert.Equal(t, 6, cfg.SearchWorkers)
	assert.True(t, cfg.BackfillIndicators)
	assert.Equal(t, filepath.Join(dir, "grid.yaml"), cfg.GridPath)
	assert.True(t, cfg.R2.Enabled())
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("TUNER_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "not-a-port")
	t.Setenv("MIN_CASH", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, 100.0, cfg.MinCash)
}

func TestLoad_RejectsNonFiniteNumbers(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"STARTING_CAPITAL", "NaN"},
		{"TRANSACTION_FEE", "NaN"},
		{"MIN_CASH", "+Inf"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv("TUNER_DATA_DIR", t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:               8001,
			ObservationsSource: SourceFile,
			StartingCapital:    10000,
			TransactionFee:     0.001,
			MinCash:            100,
			MinBuys:            2,
			MinSells:           2,
			TopN:               15,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown source", func(c *Config) { c.ObservationsSource = "redis" }, true},
		{"zero capital", func(c *Config) { c.StartingCapital = 0 }, true},
		{"fee of 100%", func(c *Config) { c.TransactionFee = 1 }, true},
		{"negative min cash", func(c *Config) { c.MinCash = -1 }, true},
		{"NaN capital", func(c *Config) { c.StartingCapital = math.NaN() }, true},
		{"infinite capital", func(c *Config) { c.StartingCapital = math.Inf(1) }, true},
		{"NaN fee", func(c *Config) { c.TransactionFee = math.NaN() }, true},
		{"NaN min cash", func(c *Config) { c.MinCash = math.NaN() }, true},
		{"infinite min cash", func(c *Config) { c.MinCash = math.Inf(1) }, true},
		{"negative workers", func(c *Config) { c.SearchWorkers = -2 }, true},
		{"bad port", func(c *Config) { c.Port = 70000 }, true},
		{"bad schedule", func(c *Config) { c.Schedule = "every day" }, true},
		{"five field schedule", func(c *Config) { c.Schedule = "0 6 * * *" }, false},
		{"descriptor schedule", func(c *Config) { c.Schedule = "@daily" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
