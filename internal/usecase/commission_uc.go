// File: internal/usecase/commission_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"esengo-membership/internal/domain"
	"esengo-membership/internal/domain/model"
	"esengo-membership/internal/domain/ports/adapter"
	"esengo-membership/internal/domain/ports/repository"
	"esengo-membership/internal/infra/metrics"
)

// Compile-time check
var _ CommissionUseCase = (*commissionUC)(nil)

// CommissionUseCase distributes multi-level referral commissions for
// completed purchase/renewal events and supports operator-driven retries.
type CommissionUseCase interface {
	// Distribute walks the buyer's sponsor chain up to four levels and
	// creates one commission record per configured level, posting each to the
	// ledger as its own atomic unit. A failure at one level never rolls back
	// earlier levels.
	Distribute(ctx context.Context, membershipID string, durationMonths int) ([]*model.CommissionRecord, error)
	// Retry reprocesses a failed record with its originally stored amount.
	Retry(ctx context.Context, commissionID string) (*model.CommissionRecord, error)
	ListByEarner(ctx context.Context, memberID string, limit int) ([]*model.CommissionRecord, error)
}

type commissionUC struct {
	memberships repository.MembershipRepository
	packs       repository.PackRepository
	rates       repository.CommissionRateRepository
	commissions repository.CommissionRepository
	ledger      LedgerUseCase
	converter   adapter.CurrencyConverter
	notifier    adapter.Notifier
	tm          repository.TransactionManager
	log         *zerolog.Logger
}

func NewCommissionUseCase(
	memberships repository.MembershipRepository,
	packs repository.PackRepository,
	rates repository.CommissionRateRepository,
	commissions repository.CommissionRepository,
	ledger LedgerUseCase,
	converter adapter.CurrencyConverter,
	notifier adapter.Notifier,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *commissionUC {
	l := logger.With().Str("component", "CommissionUC").Logger()
	return &commissionUC{
		memberships: memberships,
		packs:       packs,
		rates:       rates,
		commissions: commissions,
		ledger:      ledger,
		converter:   converter,
		notifier:    notifier,
		tm:          tm,
		log:         &l,
	}
}

func (u *commissionUC) Distribute(ctx context.Context, membershipID string, durationMonths int) ([]*model.CommissionRecord, error) {
	if membershipID == "" || durationMonths <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	src, err := u.memberships.FindByID(ctx, repository.NoTX, membershipID)
	if err != nil {
		return nil, err
	}
	// Operator-owned memberships never source commissions.
	if src.OperatorOwned {
		return nil, nil
	}
	pack, err := u.packs.FindByID(ctx, repository.NoTX, src.PackID)
	if err != nil {
		return nil, err
	}
	price := pack.PriceFor(durationMonths)

	var records []*model.CommissionRecord

	// The depth cap is the business rule (only four generations are ever
	// paid) and the cycle guard; the visited set is a safety net against
	// malformed sponsor data.
	visited := map[string]bool{src.ID: true}
	cursor := src.SponsorID
	for level := 1; cursor != nil && level <= model.MaxCommissionDepth; level++ {
		sponsor, err := u.memberships.FindByID(ctx, repository.NoTX, *cursor)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				break
			}
			return records, err
		}
		if visited[sponsor.ID] {
			u.log.Warn().Str("membership_id", sponsor.ID).Msg("sponsor chain loops; stopping walk")
			break
		}
		visited[sponsor.ID] = true

		rate, err := u.rates.Get(ctx, repository.NoTX, src.PackID, level)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			// no rate configured for this level; skip without a record
		case err != nil:
			return records, err
		default:
			amount := rate.AmountFor(price)
			if amount > 0 {
				rec, err := u.distributeLevel(ctx, sponsor, src, level, amount, pack, durationMonths)
				if err != nil {
					return records, err
				}
				records = append(records, rec)
			}
		}

		// Advance: only completed-payment memberships thread the chain.
		if sponsor.PaymentStatus != model.PaymentStatusCompleted {
			break
		}
		cursor = sponsor.SponsorID
	}
	return records, nil
}

// distributeLevel creates the commission record for one sponsor level and,
// when the sponsor's pack is active, posts it immediately. An inactive
// sponsor forfeits the level: the record is written directly as failed and
// no ledger posting happens.
func (u *commissionUC) distributeLevel(ctx context.Context, sponsor, src *model.PackMembership, level int, amount int64, pack *model.Pack, durationMonths int) (*model.CommissionRecord, error) {
	rec, err := model.NewCommissionRecord(uuid.NewString(), sponsor, src, level, amount, pack.Currency, durationMonths)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !sponsor.IsActiveAt(now) {
		rec.Status = model.CommissionStatusFailed
		rec.ErrorText = domain.ErrSponsorInactive.Error()
		if err := u.commissions.Save(ctx, repository.NoTX, rec); err != nil {
			return nil, err
		}
		metrics.IncCommission(string(rec.Status), rec.Level)
		u.log.Info().Str("commission_id", rec.ID).Int("level", level).
			Str("earner", rec.EarnerMemberID).Msg("commission forfeited: sponsor pack inactive")
		return rec, nil
	}

	if err := u.commissions.Save(ctx, repository.NoTX, rec); err != nil {
		return nil, err
	}
	if err := u.post(ctx, rec); err != nil {
		// A missing exchange rate aborts the whole distribution; any other
		// posting failure is already recorded on the record and must not
		// block the remaining levels.
		if errors.Is(err, domain.ErrRateUnavailable) {
			return rec, err
		}
	}
	return rec, nil
}

// post credits the earner's wallet and mirrors the amount into the system
// wallet's audit log, then flips the record completed or failed. Reused by
// Retry with the stored amount.
func (u *commissionUC) post(ctx context.Context, rec *model.CommissionRecord) error {
	meta := map[string]interface{}{
		"commission_id":     rec.ID,
		"source_member_id":  rec.SourceMemberID,
		"pack_id":           rec.PackID,
		"level":             rec.Level,
		"duration_months":   rec.DurationMonths,
		"source_membership": rec.SourceMembershipID,
	}

	postErr := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		wallet, err := u.ledger.MemberWallet(ctx, tx, rec.EarnerMemberID)
		if err != nil {
			return err
		}
		amount := rec.Amount
		if rec.Currency != wallet.Currency {
			amount, err = u.converter.Convert(ctx, rec.Amount, rec.Currency, wallet.Currency)
			if err != nil {
				return err
			}
		}
		if _, err := u.ledger.Credit(ctx, tx, wallet.ID, amount, model.TxTypeCommission, model.TransactionStatusCompleted, meta); err != nil {
			return err
		}
		if _, err := u.ledger.Mirror(ctx, tx, amount, model.TxTypeCommissionMirror, meta); err != nil {
			return err
		}
		return nil
	})

	if postErr != nil {
		ok, err := u.commissions.UpdateStatusIf(ctx, repository.NoTX, rec.ID,
			[]model.CommissionStatus{model.CommissionStatusPending},
			model.CommissionStatusFailed, postErr.Error(), nil)
		if err != nil {
			return err
		}
		if ok {
			rec.Status = model.CommissionStatusFailed
			rec.ErrorText = postErr.Error()
		}
		metrics.IncCommission(string(model.CommissionStatusFailed), rec.Level)
		u.log.Error().Err(postErr).Str("commission_id", rec.ID).Msg("commission posting failed")
		return postErr
	}

	now := time.Now()
	ok, err := u.commissions.UpdateStatusIf(ctx, repository.NoTX, rec.ID,
		[]model.CommissionStatus{model.CommissionStatusPending},
		model.CommissionStatusCompleted, "", &now)
	if err != nil {
		return err
	}
	if ok {
		rec.Status = model.CommissionStatusCompleted
		rec.ErrorText = ""
		rec.PostedAt = &now
	}
	metrics.IncCommission(string(model.CommissionStatusCompleted), rec.Level)
	metrics.AddCommissionAmount(rec.Currency, rec.Amount)
	u.notifier.Notify(ctx, rec.EarnerMemberID, adapter.EventCommissionReceived, map[string]interface{}{
		"amount": rec.Amount, "level": rec.Level, "pack_id": rec.PackID,
	})
	return nil
}

// Retry resets a failed record to pending and reprocesses it. The stored
// amount is authoritative: rates are never recomputed from current
// configuration, so rate changes cannot retroactively alter a historical
// purchase's commission.
func (u *commissionUC) Retry(ctx context.Context, commissionID string) (*model.CommissionRecord, error) {
	rec, err := u.commissions.FindByID(ctx, repository.NoTX, commissionID)
	if err != nil {
		return nil, err
	}
	ok, err := u.commissions.UpdateStatusIf(ctx, repository.NoTX, rec.ID,
		[]model.CommissionStatus{model.CommissionStatusFailed},
		model.CommissionStatusPending, "", nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotRetryable
	}
	rec.Status = model.CommissionStatusPending
	rec.ErrorText = ""
	metrics.IncCommissionRetry()

	if err := u.post(ctx, rec); err != nil {
		return rec, err
	}
	return rec, nil
}

func (u *commissionUC) ListByEarner(ctx context.Context, memberID string, limit int) ([]*model.CommissionRecord, error) {
	return u.commissions.ListByEarner(ctx, repository.NoTX, memberID, limit)
}
