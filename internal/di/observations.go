package di

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-tuner/internal/clients/r2"
	"github.com/aristath/sentinel-tuner/internal/config"
	"github.com/aristath/sentinel-tuner/internal/database"
	"github.com/aristath/sentinel-tuner/internal/domain"
	"github.com/aristath/sentinel-tuner/internal/modules/observations"
)

// InitializeObservations loads the observation set into container.Index.
//
// Order of operations:
//  1. Download the cache file from R2 (when configured)
//  2. Read observations from the cache file or the sqlite store; an empty store is
//     seeded from the cache file
//  3. Backfill missing indicators (when enabled)
//  4. Build the read-only index
func InitializeObservations(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if cfg.R2.Enabled() {
		if err := downloadCache(ctx, cfg, log); err != nil {
			return err
		}
	}

	var (
		loaded []domain.Observation
		err    error
	)
	switch cfg.ObservationsSource {
	case config.SourceSQLite:
		loaded, err = loadFromStore(ctx, container, cfg, log)
	default:
		loaded, err = observations.LoadFile(cfg.ObservationsPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load observations: %w", err)
	}

	if cfg.BackfillIndicators {
		missing := observations.MissingIndicators(loaded)
		loaded = observations.Backfill(loaded)
		log.Info().
			Int("incomplete_before", missing).
			Int("incomplete_after", observations.MissingIndicators(loaded)).
			Msg("Backfilled indicators from price history")
	}

	index, err := observations.NewIndex(loaded)
	if err != nil {
		return fmt.Errorf("failed to index observations: %w", err)
	}
	container.Index = index

	summary := index.Summary()
	log.Info().
		Int("observations", summary.Observations).
		Int("tickers", len(summary.Tickers)).
		Int("trading_days", summary.TradingDays).
		Str("first_date", summary.FirstDate).
		Str("last_date", summary.LastDate).
		Msg("Observations loaded")

	return nil
}

func downloadCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	client, err := r2.NewClient(ctx, r2.Config{
		AccountID:       cfg.R2.AccountID,
		AccessKeyID:     cfg.R2.AccessKeyID,
		SecretAccessKey: cfg.R2.SecretAccessKey,
		BucketName:      cfg.R2.BucketName,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create r2 client: %w", err)
	}

	if _, err := client.Download(ctx, cfg.R2.ObjectKey, cfg.ObservationsPath); err != nil {
		if _, statErr := os.Stat(cfg.ObservationsPath); statErr == nil {
			log.Warn().Err(err).Str("path", cfg.ObservationsPath).Msg("Cache download failed, using local copy")
			return nil
		}
		return fmt.Errorf("failed to download observation cache: %w", err)
	}
	return nil
}

func loadFromStore(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) ([]domain.Observation, error) {
	db, err := database.New(database.Config{
		Path:    cfg.ObservationsDB,
		Profile: database.ProfileCache,
		Name:    "observations",
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate observations database: %w", err)
	}
	container.ObservationsDB = db

	repo := observations.NewRepository(db.Conn())
	count, err := repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	if count == 0 {
		fromFile, err := observations.LoadFile(cfg.ObservationsPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Warn().Str("path", cfg.ObservationsPath).Msg("Observation store is empty and no cache file exists")
		case err != nil:
			return nil, err
		default:
			if err := repo.ReplaceAll(ctx, fromFile); err != nil {
				return nil, fmt.Errorf("failed to import cache into store: %w", err)
			}
			log.Info().Int("observations", len(fromFile)).Msg("Imported cache file into observation store")
		}
	}

	return repo.LoadAll(ctx)
}
