// File: internal/usecase/bonus_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"esengo-membership/internal/domain"
	"esengo-membership/internal/domain/model"
	"esengo-membership/internal/domain/ports/adapter"
	"esengo-membership/internal/domain/ports/repository"
	"esengo-membership/internal/infra/metrics"
)

// valuationFrequency is the canonical valuation used by point conversion,
// regardless of which frequency granted the points. Intentional
// simplification carried over from the original business rules.
const valuationFrequency = model.FrequencyWeekly

// Locker is the minimal distributed-lock interface the bonus engine needs to
// keep two passes of the same frequency from running concurrently.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// Compile-time check
var _ BonusUseCase = (*bonusUC)(nil)

// BonusUseCase runs the periodic point grant passes and on-demand
// point-to-wallet conversion.
type BonusUseCase interface {
	// ProcessGrantPass counts each eligible member's new direct referrals in
	// the frequency's window and grants points in threshold multiples.
	// Per-member errors are counted and logged, never aborting the batch.
	ProcessGrantPass(ctx context.Context, f model.BonusFrequency) (*model.GrantPassResult, error)
	// ConvertPoints moves points from available to used and credits the
	// member's wallet at the weekly per-point value. Fully atomic.
	ConvertPoints(ctx context.Context, memberID, packID string, points int64) (int64, error)
	History(ctx context.Context, memberID, packID string, limit int) ([]*model.BonusHistoryEntry, error)
}

type bonusUC struct {
	memberships repository.MembershipRepository
	rates       repository.BonusRateRepository
	bonuses     repository.BonusRepository
	tokens      repository.TokenRepository
	ledger      LedgerUseCase
	locker      Locker
	notifier    adapter.Notifier
	tm          repository.TransactionManager
	tokenTTL    time.Duration
	log         *zerolog.Logger
}

func NewBonusUseCase(
	memberships repository.MembershipRepository,
	rates repository.BonusRateRepository,
	bonuses repository.BonusRepository,
	tokens repository.TokenRepository,
	ledger LedgerUseCase,
	locker Locker,
	notifier adapter.Notifier,
	tm repository.TransactionManager,
	tokenTTL time.Duration,
	logger *zerolog.Logger,
) *bonusUC {
	if tokenTTL <= 0 {
		tokenTTL = 30 * 24 * time.Hour
	}
	l := logger.With().Str("component", "BonusUC").Logger()
	return &bonusUC{
		memberships: memberships,
		rates:       rates,
		bonuses:     bonuses,
		tokens:      tokens,
		ledger:      ledger,
		locker:      locker,
		notifier:    notifier,
		tm:          tm,
		tokenTTL:    tokenTTL,
		log:         &l,
	}
}

func (u *bonusUC) ProcessGrantPass(ctx context.Context, f model.BonusFrequency) (*model.GrantPassResult, error) {
	if !f.Valid() {
		return nil, domain.ErrInvalidArgument
	}

	lockKey := "bonus:grant:" + string(f)
	token, err := u.locker.TryLock(ctx, lockKey, 10*time.Minute)
	if err != nil {
		return nil, err
	}
	defer func() { _ = u.locker.Unlock(ctx, lockKey, token) }()

	start, end := f.WindowAround(time.Now())
	res := &model.GrantPassResult{Frequency: f}

	members, err := u.memberships.ListMembersWithActivePack(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	for _, memberID := range members {
		if err := u.grantForMember(ctx, memberID, f, start, end, res); err != nil {
			res.Errors++
			u.log.Error().Err(err).Str("member_id", memberID).
				Str("frequency", string(f)).Msg("grant pass member failed")
			continue
		}
		res.MembersProcessed++
	}

	metrics.ObserveGrantPass(string(f), res.MembersProcessed, res.PointsGranted, res.Errors)
	u.log.Info().Str("frequency", string(f)).
		Int("members", res.MembersProcessed).
		Int64("points", res.PointsGranted).
		Int("errors", res.Errors).Msg("grant pass finished")
	return res, nil
}

func (u *bonusUC) grantForMember(ctx context.Context, memberID string, f model.BonusFrequency, start, end time.Time, res *model.GrantPassResult) error {
	// The referral count is one level deep and computed once per member, no
	// matter how many packs they hold.
	count, err := u.memberships.CountDirectReferrals(ctx, repository.NoTX, memberID, start, end)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}

	active, err := u.memberships.ListActiveByMember(ctx, repository.NoTX, memberID)
	if err != nil {
		return err
	}
	for _, m := range active {
		rate, err := u.rates.Get(ctx, repository.NoTX, m.PackID, f)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		points := rate.PointsFor(count)
		if points == 0 {
			continue
		}
		issued, err := u.grant(ctx, memberID, m.PackID, f, rate, count, points)
		if err != nil {
			return err
		}
		res.PointsGranted += points
		res.TokensIssued += issued
		u.notifier.Notify(ctx, memberID, adapter.EventPointsGranted, map[string]interface{}{
			"pack_id": m.PackID, "points": points, "frequency": string(f),
		})
	}
	return nil
}

// grant writes the point increment, its history entry and (monthly only) the
// accompanying jetons in one transaction.
func (u *bonusUC) grant(ctx context.Context, memberID, packID string, f model.BonusFrequency, rate *model.BonusRate, count int, points int64) (tokensIssued int, err error) {
	meta := map[string]interface{}{
		"frequency":      string(f),
		"referral_count": count,
		"threshold":      rate.ReferralThreshold,
	}
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		bal, err := u.bonuses.GetPoints(ctx, tx, memberID, packID)
		if err != nil {
			return err
		}
		if err := bal.Grant(points); err != nil {
			return err
		}
		if err := u.bonuses.SavePoints(ctx, tx, bal); err != nil {
			return err
		}
		desc := fmt.Sprintf("%s bonus: %d new referrals, threshold %d", f, count, rate.ReferralThreshold)
		entry, err := model.NewBonusHistoryEntry(ulid.Make().String(), memberID, packID, points, model.BonusHistoryGain, desc, meta)
		if err != nil {
			return err
		}
		if err := u.bonuses.AppendHistory(ctx, tx, entry); err != nil {
			return err
		}

		// Jetons ride along with the monthly grant only: one per point.
		if f != model.FrequencyMonthly {
			return nil
		}
		expiry := time.Now().Add(u.tokenTTL)
		for i := int64(0); i < points; i++ {
			code, err := generateTokenCode()
			if err != nil {
				return err
			}
			tok, err := model.NewBonusToken(uuid.NewString(), memberID, packID, code, expiry)
			if err != nil {
				return err
			}
			if err := u.tokens.Save(ctx, tx, tok); err != nil {
				return err
			}
			hist, err := model.NewBonusHistoryEntry(ulid.Make().String(), memberID, packID, 0, model.BonusHistoryTokenIssue,
				fmt.Sprintf("jeton %s issued, expires %s", tok.Code, expiry.Format(time.RFC3339)), meta)
			if err != nil {
				return err
			}
			if err := u.bonuses.AppendHistory(ctx, tx, hist); err != nil {
				return err
			}
			tokensIssued++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	metrics.AddPointsGranted(string(f), points)
	if tokensIssued > 0 {
		metrics.AddTokensIssued(tokensIssued)
	}
	return tokensIssued, nil
}

func (u *bonusUC) ConvertPoints(ctx context.Context, memberID, packID string, points int64) (int64, error) {
	if memberID == "" || packID == "" {
		return 0, domain.ErrInvalidArgument
	}
	if points <= 0 {
		return 0, domain.ErrInvalidAmount
	}

	rate, err := u.rates.Get(ctx, repository.NoTX, packID, valuationFrequency)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, domain.ErrValuationNotConfigured
	}
	if err != nil {
		return 0, err
	}
	if rate.PointValue <= 0 {
		return 0, domain.ErrValuationNotConfigured
	}

	amount := points * rate.PointValue
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		bal, err := u.bonuses.GetPoints(ctx, tx, memberID, packID)
		if err != nil {
			return err
		}
		if bal.Available < points {
			return &domain.InsufficientPointsError{Available: bal.Available, Requested: points}
		}
		if err := bal.Convert(points); err != nil {
			return err
		}
		if err := u.bonuses.SavePoints(ctx, tx, bal); err != nil {
			return err
		}

		wallet, err := u.ledger.EnsureMemberWallet(ctx, tx, memberID)
		if err != nil {
			return err
		}
		meta := map[string]interface{}{
			"pack_id":     packID,
			"points":      points,
			"point_value": rate.PointValue,
		}
		if _, err := u.ledger.Credit(ctx, tx, wallet.ID, amount, model.TxTypeBonusConversion, model.TransactionStatusCompleted, meta); err != nil {
			return err
		}

		desc := fmt.Sprintf("converted %d points at %d per point", points, rate.PointValue)
		entry, err := model.NewBonusHistoryEntry(ulid.Make().String(), memberID, packID, -points, model.BonusHistoryConversion, desc, meta)
		if err != nil {
			return err
		}
		return u.bonuses.AppendHistory(ctx, tx, entry)
	})
	if err != nil {
		return 0, err
	}

	metrics.AddPointsConverted(points, amount)
	u.notifier.Notify(ctx, memberID, adapter.EventPointsConverted, map[string]interface{}{
		"pack_id": packID, "points": points, "amount": amount,
	})
	return amount, nil
}

func (u *bonusUC) History(ctx context.Context, memberID, packID string, limit int) ([]*model.BonusHistoryEntry, error) {
	return u.bonuses.ListHistory(ctx, repository.NoTX, memberID, packID, limit)
}
