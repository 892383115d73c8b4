package sched

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"esengo-membership/internal/config"
)

// Scheduler fires the settlement batch jobs on their configured cron
// expressions: four grant passes, the jeton expiry sweep and the membership
// expiry sweep.
type Scheduler struct {
	cron *cron.Cron
	jobs *Jobs
	cfg  config.SchedulerConfig
	log  *zerolog.Logger
}

func NewScheduler(jobs *Jobs, cfg config.SchedulerConfig, logger *zerolog.Logger) *Scheduler {
	l := logger.With().Str("component", "Scheduler").Logger()
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger))),
		jobs: jobs,
		cfg:  cfg,
		log:  &l,
	}
}

// Start registers every job and starts the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	entries := []struct {
		name string
		spec string
		fn   func()
	}{
		{"grant_daily", s.cfg.DailyGrantCron, s.jobs.DailyGrant()},
		{"grant_weekly", s.cfg.WeeklyGrantCron, s.jobs.WeeklyGrant()},
		{"grant_monthly", s.cfg.MonthlyGrantCron, s.jobs.MonthlyGrant()},
		{"grant_yearly", s.cfg.YearlyGrantCron, s.jobs.YearlyGrant()},
		{"token_sweep", s.cfg.TokenSweepCron, s.jobs.TokenSweep()},
		{"membership_expiry", s.cfg.MembershipExpireCron, s.jobs.MembershipExpiry()},
	}
	for _, e := range entries {
		if _, err := s.cron.AddFunc(e.spec, e.fn); err != nil {
			s.log.Error().Err(err).Str("job", e.name).Str("spec", e.spec).Msg("failed to schedule job")
			continue
		}
		s.log.Info().Str("job", e.name).Str("spec", e.spec).Msg("job scheduled")
	}
	s.cron.Start()
}

// Stop halts scheduling and returns a context that is done once running jobs
// finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info().Msg("stopping scheduler")
	return s.cron.Stop()
}
