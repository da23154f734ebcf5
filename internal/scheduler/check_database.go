package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/sentinel-tuner/internal/database"
	"github.com/rs/zerolog"
)

// CheckDatabaseJob verifies integrity of the observation store
type CheckDatabaseJob struct {
	log zerolog.Logger
	db  *database.DB
}

// NewCheckDatabaseJob creates a new CheckDatabaseJob
func NewCheckDatabaseJob(db *database.DB) *CheckDatabaseJob {
	return &CheckDatabaseJob{
		log: zerolog.Nop(),
		db:  db,
	}
}

// SetLogger sets the logger for the job
func (j *CheckDatabaseJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *CheckDatabaseJob) Name() string {
	return "check_observations_database"
}

// Run executes the integrity check
func (j *CheckDatabaseJob) Run() error {
	if j.db == nil {
		j.log.Warn().Msg("Database not initialized, skipping")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := j.db.QuickCheck(ctx); err != nil {
		j.log.Error().Err(err).Str("database", j.db.Name()).Msg("Database unreachable")
		return fmt.Errorf("database %s is unreachable: %w", j.db.Name(), err)
	}

	var result string
	if err := j.db.Conn().QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check on %s failed: %w", j.db.Name(), err)
	}
	if result != "ok" {
		j.log.Error().Str("database", j.db.Name()).Str("result", result).Msg("Database integrity check failed")
		return fmt.Errorf("database %s is corrupted: %s", j.db.Name(), result)
	}

	j.log.Debug().Str("database", j.db.Name()).Msg("Database integrity OK")
	return nil
}
