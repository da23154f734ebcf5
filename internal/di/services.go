package di

import (
	"fmt"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/aristath/sentinel-tuner/internal/config"
	"github.com/aristath/sentinel-tuner/internal/modules/optimization"
	optimizationhandlers "github.com/aristath/sentinel-tuner/internal/modules/optimization/handlers"
	"github.com/aristath/sentinel-tuner/internal/modules/portfolio"
	"github.com/aristath/sentinel-tuner/pkg/metrics"
)

// InitializeServices builds the metrics registry, simulator, search service and HTTP
// handlers. container.Index must already be loaded.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.Registry = prometheus.NewRegistry()
	container.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	container.Recorder = metrics.NewWithRegisterer(container.Registry)
	container.Recorder.RecordObservations(container.Index.Len())

	simCfg := portfolio.Config{
		StartingCapital: cfg.StartingCapital,
		FeeRate:         cfg.TransactionFee,
		MinCash:         cfg.MinCash,
	}
	if err := simCfg.Validate(); err != nil {
		return fmt.Errorf("invalid simulator config: %w", err)
	}
	container.Simulator = portfolio.NewSimulator(simCfg)

	workers := cfg.SearchWorkers
	if workers == 0 {
		workers = logicalCPUs(log)
	}
	container.Pool = optimization.NewWorkerPool(workers)

	container.Service = optimization.NewService(container.Simulator, container.Pool, container.Recorder, log)

	grid := optimization.DefaultGrid()
	if cfg.GridPath != "" {
		loaded, err := optimization.LoadGrid(cfg.GridPath)
		if err != nil {
			return fmt.Errorf("failed to load grid: %w", err)
		}
		grid = loaded
		log.Info().Str("path", cfg.GridPath).Msg("Loaded parameter grid")
	}
	container.Grid = grid

	container.SearchOptions = optimization.SearchOptions{
		MinBuys:  cfg.MinBuys,
		MinSells: cfg.MinSells,
		TopN:     cfg.TopN,
	}

	container.OptimizationHandler = optimizationhandlers.NewHandler(
		container.Service,
		container.Index,
		container.Grid,
		container.SearchOptions,
		log,
	)

	log.Info().
		Int("workers", workers).
		Int("combinations", grid.Size()).
		Float64("starting_capital", simCfg.StartingCapital).
		Msg("Services initialized")

	return nil
}

// logicalCPUs returns the logical CPU count, falling back to the Go runtime's view
func logicalCPUs(log zerolog.Logger) int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		log.Debug().Err(err).Msg("gopsutil CPU count unavailable, using runtime.NumCPU")
		return runtime.NumCPU()
	}
	return n
}
