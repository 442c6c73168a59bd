package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"the-arch-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopJobs() Jobs {
	return Jobs{
		CreateQuestions:  func(ctx context.Context) error { return nil },
		ProcessQuestions: func(ctx context.Context) error { return nil },
		SendReminders:    func(ctx context.Context, window time.Duration) error { return nil },
		Cleanup:          func(ctx context.Context) error { return nil },
	}
}

func validConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		Timezone:       "America/New_York",
		CreateSpec:     "0 6 * * *",
		ProcessSpec:    "0 17 * * *",
		ReminderSpec:   "0 15 * * *",
		CleanupSpec:    "30 3 * * *",
		ReminderWindow: 180,
	}
}

func TestNewSchedulesAllJobs(t *testing.T) {
	s, err := New(validConfig(), noopJobs())
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 4)
}

func TestNewRejectsBadTimezone(t *testing.T) {
	cfg := validConfig()
	cfg.Timezone = "Mars/Olympus"

	_, err := New(cfg, noopJobs())
	assert.Error(t, err)
}

func TestNewRejectsBadSpec(t *testing.T) {
	cfg := validConfig()
	cfg.ProcessSpec = "not a cron spec"

	_, err := New(cfg, noopJobs())
	assert.Error(t, err)
}

func TestReminderJobReceivesConfiguredWindow(t *testing.T) {
	cfg := validConfig()
	cfg.ReminderSpec = "* * * * *"

	var got atomic.Int64
	jobs := noopJobs()
	jobs.SendReminders = func(ctx context.Context, window time.Duration) error {
		got.Store(int64(window))
		return nil
	}

	s, err := New(cfg, jobs)
	require.NoError(t, err)

	// Run the wrapped entry directly instead of waiting for the tick
	for _, e := range s.cron.Entries() {
		e.Job.Run()
	}
	assert.Equal(t, int64(180*time.Minute), got.Load())
}
