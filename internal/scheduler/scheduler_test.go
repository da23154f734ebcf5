package scheduler

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs int
	err  error
}

func (j *countingJob) Run() error {
	j.runs++
	return j.err
}

func (j *countingJob) Name() string { return "counting" }

func TestAddJob_Schedules(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{"five fields", "0 3 * * *", false},
		{"six fields", "0 */30 * * * *", false},
		{"descriptor", "@hourly", false},
		{"every", "@every 6h", false},
		{"garbage", "not a schedule", true},
		{"too many fields", "0 0 0 0 0 0 0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(zerolog.Nop())
			err := s.AddJob(tt.schedule, &countingJob{})
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, 0, s.Entries())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, s.Entries())
		})
	}
}

func TestRunNow(t *testing.T) {
	s := New(zerolog.Nop())

	job := &countingJob{}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, job.runs)

	failing := &countingJob{err: errors.New("boom")}
	assert.EqualError(t, s.RunNow(failing), "boom")
}

func TestWrap_SwallowsJobErrors(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{err: errors.New("boom")}

	assert.NotPanics(t, func() { s.wrap(job).Run() })
	assert.Equal(t, 1, job.runs)
}

func TestStartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("@every 1h", &countingJob{}))

	s.Start()
	s.Stop()
}
