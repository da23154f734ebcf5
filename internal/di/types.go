// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-tuner/internal/config"
	"github.com/aristath/sentinel-tuner/internal/database"
	"github.com/aristath/sentinel-tuner/internal/modules/observations"
	"github.com/aristath/sentinel-tuner/internal/modules/optimization"
	optimizationhandlers "github.com/aristath/sentinel-tuner/internal/modules/optimization/handlers"
	"github.com/aristath/sentinel-tuner/internal/modules/portfolio"
	"github.com/aristath/sentinel-tuner/internal/scheduler"
	"github.com/aristath/sentinel-tuner/pkg/metrics"
)

// Container holds all dependencies for the application.
// It is created by Wire() and is the single source of truth for service instances.
type Container struct {
	Config *config.Config
	Log    zerolog.Logger

	// ObservationsDB is only opened when observations come from sqlite
	ObservationsDB *database.DB

	// Data, immutable once loaded
	Index *observations.Index

	// Metrics
	Registry *prometheus.Registry
	Recorder *metrics.Recorder

	// Services
	Simulator     *portfolio.Simulator
	Pool          *optimization.WorkerPool
	Service       *optimization.Service
	Grid          optimization.Grid
	SearchOptions optimization.SearchOptions

	// HTTP
	OptimizationHandler *optimizationhandlers.Handler

	// Background jobs
	Scheduler *scheduler.Scheduler
	Jobs      *JobInstances
}

// JobInstances holds the registered background jobs. Nil fields were not configured.
type JobInstances struct {
	Retune        *scheduler.RetuneJob
	CheckDatabase *scheduler.CheckDatabaseJob
}

// Close releases the container's resources
func (c *Container) Close() error {
	if c.ObservationsDB != nil {
		return c.ObservationsDB.Close()
	}
	return nil
}
