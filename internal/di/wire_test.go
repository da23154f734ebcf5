package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel-tuner/internal/config"
	"github.com/aristath/sentinel-tuner/internal/database"
)

const testCache = `[
  {"date": "2024-01-01", "ticker": "AAA", "price": 10, "indicators": {"rsi": 30}},
  {"date": "2024-01-01", "ticker": "BBB", "price": 20},
  {"date": "2024-01-02", "ticker": "AAA", "price": 11},
  {"date": "2024-01-02", "ticker": "BBB", "price": 19}
]`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cachePath := filepath.Join(dir, "llm_cache.json")
	require.NoError(t, os.WriteFile(cachePath, []byte(testCache), 0644))

	return &config.Config{
		DataDir:            dir,
		LogLevel:           "info",
		Port:               8001,
		ObservationsSource: config.SourceFile,
		ObservationsPath:   cachePath,
		ObservationsDB:     filepath.Join(dir, "observations.db"),
		StartingCapital:    10000,
		TransactionFee:     0.001,
		MinCash:            100,
		MinBuys:            2,
		MinSells:           2,
		TopN:               15,
		SearchWorkers:      3,
	}
}

func TestWire_FileSource(t *testing.T) {
	cfg := testConfig(t)

	container, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	assert.Equal(t, 4, container.Index.Len())
	assert.Nil(t, container.ObservationsDB)
	assert.Equal(t, 3, container.Pool.Workers())
	assert.Equal(t, 193536, container.Grid.Size())
	assert.Equal(t, 15, container.SearchOptions.TopN)
	assert.NotNil(t, container.OptimizationHandler)

	require.NotNil(t, container.Jobs)
	assert.Nil(t, container.Jobs.Retune, "no schedule configured")
	assert.Nil(t, container.Jobs.CheckDatabase)
	assert.Equal(t, 0, container.Scheduler.Entries())
}

func TestWire_DefaultWorkersFromCPUCount(t *testing.T) {
	cfg := testConfig(t)
	cfg.SearchWorkers = 0

	container, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	assert.Greater(t, container.Pool.Workers(), 0)
}

func TestWire_SQLiteSourceSeedsFromCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.ObservationsSource = config.SourceSQLite
	cfg.Schedule = "0 0 3 * * *"

	first, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, first.ObservationsDB)
	assert.Equal(t, database.ProfileCache, first.ObservationsDB.Profile())
	assert.Equal(t, 4, first.Index.Len())
	assert.NotNil(t, first.Jobs.Retune)
	assert.NotNil(t, first.Jobs.CheckDatabase)
	assert.Equal(t, 2, first.Scheduler.Entries())
	require.NoError(t, first.Jobs.CheckDatabase.Run())
	require.NoError(t, first.Close())

	// The store now holds the data; the cache file is no longer needed.
	require.NoError(t, os.Remove(cfg.ObservationsPath))

	second, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, 4, second.Index.Len())
	obs, ok := second.Index.Find("2024-01-01", "AAA")
	require.True(t, ok)
	assert.Equal(t, 30.0, obs.Indicators.RSIValue())
}

func TestWire_Backfill(t *testing.T) {
	cfg := testConfig(t)
	cfg.BackfillIndicators = true

	container, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	// Two days of history are not enough for any indicator; provided values survive.
	obs, ok := container.Index.Find("2024-01-01", "AAA")
	require.True(t, ok)
	assert.Equal(t, 30.0, obs.Indicators.RSIValue())
}

func TestWire_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
	}{
		{"missing cache file", func(cfg *config.Config) { cfg.ObservationsPath = filepath.Join(cfg.DataDir, "nope.json") }},
		{"unsupported cache extension", func(cfg *config.Config) { cfg.ObservationsPath = filepath.Join(cfg.DataDir, "cache.csv") }},
		{"missing grid file", func(cfg *config.Config) { cfg.GridPath = filepath.Join(cfg.DataDir, "grid.yaml") }},
		{"invalid schedule", func(cfg *config.Config) { cfg.Schedule = "whenever" }},
		{"invalid simulator config", func(cfg *config.Config) { cfg.StartingCapital = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)

			_, err := Wire(context.Background(), cfg, zerolog.Nop())
			assert.Error(t, err)
		})
	}
}

func TestWire_GridFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.GridPath = filepath.Join(cfg.DataDir, "grid.yaml")
	require.NoError(t, os.WriteFile(cfg.GridPath, []byte("buy_score: [20, 30]\nalloc_pct: [0.05]\n"), 0644))

	container, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	assert.Equal(t, []int{20, 30}, container.Grid.BuyScore)
	assert.Equal(t, 193536/8*2/3, container.Grid.Size())
}
