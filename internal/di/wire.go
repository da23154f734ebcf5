package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-tuner/internal/config"
)

// Wire initializes all dependencies and returns a fully configured container.
//
// Order of operations:
//  1. Load observations (download, read, backfill, index)
//  2. Initialize services and HTTP handlers
//  3. Register background jobs (the scheduler is not started)
func Wire(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{
		Config: cfg,
		Log:    log,
	}

	if err := InitializeObservations(ctx, container, cfg, log); err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("failed to initialize observations: %w", err)
	}

	if err := InitializeServices(container, cfg, log); err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := RegisterJobs(container, cfg, log); err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")

	return container, nil
}
