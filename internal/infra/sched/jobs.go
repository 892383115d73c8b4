package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"esengo-membership/internal/domain"
	"esengo-membership/internal/domain/model"
	"esengo-membership/internal/infra/metrics"
	"esengo-membership/internal/usecase"
)

// Jobs bundles the batch entry points the cron scheduler fires. Every job is
// safe to run twice: grant passes take a distributed lock, sweeps are
// idempotent updates.
type Jobs struct {
	bonusUC      usecase.BonusUseCase
	tokenUC      usecase.TokenUseCase
	membershipUC usecase.MembershipUseCase
	timeout      time.Duration
	log          *zerolog.Logger
}

func NewJobs(bonusUC usecase.BonusUseCase, tokenUC usecase.TokenUseCase, membershipUC usecase.MembershipUseCase, logger *zerolog.Logger) *Jobs {
	l := logger.With().Str("component", "SchedJobs").Logger()
	return &Jobs{
		bonusUC:      bonusUC,
		tokenUC:      tokenUC,
		membershipUC: membershipUC,
		timeout:      15 * time.Minute,
		log:          &l,
	}
}

// run wraps one job execution with a timeout, metrics and logging.
func (j *Jobs) run(name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	started := time.Now()
	err := fn(ctx)
	elapsed := time.Since(started)
	metrics.ObserveJobDuration(name, elapsed.Seconds())

	switch {
	case err == nil:
		metrics.IncJobRun(name, "ok")
	case errors.Is(err, domain.ErrLockNotAcquired):
		// another instance is running this pass; not a failure
		metrics.IncJobRun(name, "skipped")
		j.log.Info().Str("job", name).Msg("job skipped, lock held elsewhere")
	default:
		metrics.IncJobRun(name, "error")
		j.log.Error().Err(err).Str("job", name).Dur("elapsed", elapsed).Msg("job failed")
	}
}

func (j *Jobs) grantPass(f model.BonusFrequency) func() {
	name := "grant_" + string(f)
	return func() {
		j.run(name, func(ctx context.Context) error {
			res, err := j.bonusUC.ProcessGrantPass(ctx, f)
			if err != nil {
				return err
			}
			j.log.Info().Str("job", name).
				Int("members", res.MembersProcessed).
				Int64("points", res.PointsGranted).
				Int("tokens", res.TokensIssued).
				Int("errors", res.Errors).Msg("grant pass done")
			return nil
		})
	}
}

func (j *Jobs) DailyGrant() func()   { return j.grantPass(model.FrequencyDaily) }
func (j *Jobs) WeeklyGrant() func()  { return j.grantPass(model.FrequencyWeekly) }
func (j *Jobs) MonthlyGrant() func() { return j.grantPass(model.FrequencyMonthly) }
func (j *Jobs) YearlyGrant() func()  { return j.grantPass(model.FrequencyYearly) }

func (j *Jobs) TokenSweep() func() {
	return func() {
		j.run("token_sweep", func(ctx context.Context) error {
			_, err := j.tokenUC.SweepExpired(ctx)
			return err
		})
	}
}

func (j *Jobs) MembershipExpiry() func() {
	return func() {
		j.run("membership_expiry", func(ctx context.Context) error {
			_, err := j.membershipUC.ExpireDue(ctx)
			return err
		})
	}
}
