package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-tuner/internal/config"
	optimizationhandlers "github.com/aristath/sentinel-tuner/internal/modules/optimization/handlers"
	"github.com/aristath/sentinel-tuner/internal/scheduler"
)

// Fixed schedules of maintenance jobs
const checkDatabaseSchedule = "0 0 4 * * *" // 4 AM daily

// RegisterJobs creates the scheduler and registers background jobs.
// Re-tuning is only scheduled when a schedule is configured; the database check only
// runs when observations come from sqlite.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.Scheduler = scheduler.New(log)
	container.Jobs = &JobInstances{}

	if cfg.Schedule != "" {
		job := scheduler.NewRetuneJob(
			container.Service,
			container.Index,
			container.Grid,
			container.SearchOptions,
			optimizationhandlers.SearchTimeout,
		)
		job.SetLogger(log)
		if err := container.Scheduler.AddJob(cfg.Schedule, job); err != nil {
			return fmt.Errorf("failed to register retune job: %w", err)
		}
		container.Jobs.Retune = job
	}

	if container.ObservationsDB != nil {
		job := scheduler.NewCheckDatabaseJob(container.ObservationsDB)
		job.SetLogger(log)
		if err := container.Scheduler.AddJob(checkDatabaseSchedule, job); err != nil {
			return fmt.Errorf("failed to register database check job: %w", err)
		}
		container.Jobs.CheckDatabase = job
	}

	return nil
}
