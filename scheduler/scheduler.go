package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// BackupJob is anything the scheduler can run on a cron schedule.
type BackupJob interface {
	Run()
}

type SchedulerParams struct {
	Logger zerolog.Logger
}

// Scheduler runs backup jobs on cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	jobs   map[cron.EntryID]BackupJob
	logger zerolog.Logger
}

func NewScheduler(params SchedulerParams) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: params.Logger,
		jobs:   make(map[cron.EntryID]BackupJob),
	}
}

// Start begins running scheduled jobs. The cron runs in its own routine.
func (s *Scheduler) Start() {
	s.logger.Info().Msg("starting scheduler")
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.logger.Info().Msg("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) AddBackupJob(ctx context.Context, schedule string, job BackupJob) error {
	entry, err := s.cron.AddJob(schedule, job)
	if err != nil {
		return fmt.Errorf("could not add backup job: %w", err)
	}

	s.jobs[entry] = job
	s.logger.Debug().Str("schedule", schedule).Msg("scheduled backup job")

	return nil
}

// RemoveJobs unschedules every job, typically ahead of a config reload.
func (s *Scheduler) RemoveJobs() {
	for entry := range s.jobs {
		s.cron.Remove(entry)
		delete(s.jobs, entry)
	}
	s.logger.Debug().Msg("removed all scheduled jobs")
}
