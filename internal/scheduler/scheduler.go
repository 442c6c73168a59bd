// Package scheduler runs the daily-question lifecycle on cron schedules.
// It assumes a single running instance.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"the-arch-backend/internal/config"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Jobs are the lifecycle steps the scheduler drives. They are plain funcs so
// tests can call the steps directly.
type Jobs struct {
	CreateQuestions  func(ctx context.Context) error
	ProcessQuestions func(ctx context.Context) error
	SendReminders    func(ctx context.Context, window time.Duration) error
	Cleanup          func(ctx context.Context) error
}

// Scheduler wraps a cron runner over the lifecycle jobs
type Scheduler struct {
	cron *cron.Cron
	cfg  config.SchedulerConfig
	jobs Jobs
}

// New builds the scheduler from config. Specs use standard 5-field cron
// syntax evaluated in the configured timezone.
func New(cfg config.SchedulerConfig, jobs Jobs) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduler timezone: %w", err)
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{})),
	)

	s := &Scheduler{cron: c, cfg: cfg, jobs: jobs}

	entries := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{"create_questions", cfg.CreateSpec, jobs.CreateQuestions},
		{"process_questions", cfg.ProcessSpec, jobs.ProcessQuestions},
		{"send_reminders", cfg.ReminderSpec, func(ctx context.Context) error {
			return jobs.SendReminders(ctx, time.Duration(cfg.ReminderWindow)*time.Minute)
		}},
		{"cleanup_questions", cfg.CleanupSpec, jobs.Cleanup},
	}
	for _, e := range entries {
		if _, err := c.AddFunc(e.spec, wrap(e.name, e.run)); err != nil {
			return nil, fmt.Errorf("failed to schedule %s: %w", e.name, err)
		}
	}

	return s, nil
}

// wrap logs each run and times it
func wrap(name string, run func(ctx context.Context) error) func() {
	return func() {
		start := time.Now()
		log.Info().Str("job", name).Msg("Scheduled job started")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if err := run(ctx); err != nil {
			log.Error().Err(err).Str("job", name).Msg("Scheduled job failed")
			return
		}
		log.Info().Str("job", name).Dur("took", time.Since(start)).Msg("Scheduled job finished")
	}
}

// Start begins running jobs on their schedules
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().
		Str("timezone", s.cfg.Timezone).
		Str("create", s.cfg.CreateSpec).
		Str("process", s.cfg.ProcessSpec).
		Str("reminder", s.cfg.ReminderSpec).
		Str("cleanup", s.cfg.CleanupSpec).
		Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("Scheduler stopped")
}

// cronLogger adapts zerolog to cron's logger interface
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Info().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
