// File: internal/usecase/token_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"esengo-membership/internal/domain"
	"esengo-membership/internal/domain/model"
	"esengo-membership/internal/domain/ports/repository"
	"esengo-membership/internal/infra/metrics"
)

// Compile-time check
var _ TokenUseCase = (*tokenUC)(nil)

// TokenUseCase drives the jeton state machine: redemption and the periodic
// expiry sweep.
type TokenUseCase interface {
	// Redeem flips an issued, unexpired token to used exactly once.
	Redeem(ctx context.Context, code string) (*model.BonusToken, error)
	// SweepExpired marks every issued token past its expiry as expired and
	// logs one history entry per token. Safe to call more often than needed.
	SweepExpired(ctx context.Context) (int, error)
}

type tokenUC struct {
	tokens  repository.TokenRepository
	bonuses repository.BonusRepository
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewTokenUseCase(tokens repository.TokenRepository, bonuses repository.BonusRepository, tm repository.TransactionManager, logger *zerolog.Logger) *tokenUC {
	l := logger.With().Str("component", "TokenUC").Logger()
	return &tokenUC{tokens: tokens, bonuses: bonuses, tm: tm, log: &l}
}

func (u *tokenUC) Redeem(ctx context.Context, code string) (*model.BonusToken, error) {
	if code == "" {
		return nil, domain.ErrInvalidArgument
	}
	var out *model.BonusToken
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		tok, err := u.tokens.FindByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := tok.Redeem(now); err != nil {
			return err
		}
		ok, err := u.tokens.MarkUsed(ctx, tx, tok.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			// Lost the race to a concurrent redemption.
			return domain.ErrTokenUsed
		}
		out = tok
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.IncTokenRedeemed()
	return out, nil
}

func (u *tokenUC) SweepExpired(ctx context.Context) (int, error) {
	var swept int
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		expired, err := u.tokens.ExpireDue(ctx, tx, time.Now())
		if err != nil {
			return err
		}
		for _, tok := range expired {
			entry, err := model.NewBonusHistoryEntry(ulid.Make().String(), tok.MemberID, tok.PackID, 0,
				model.BonusHistoryTokenExpire,
				fmt.Sprintf("jeton %s expired", tok.Code),
				map[string]interface{}{"token_id": tok.ID, "expired_at": tok.ExpiresAt.Format(time.RFC3339)})
			if err != nil {
				return err
			}
			if err := u.bonuses.AppendHistory(ctx, tx, entry); err != nil {
				return err
			}
		}
		swept = len(expired)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		metrics.AddTokensExpired(swept)
		u.log.Info().Int("count", swept).Msg("expired jetons swept")
	}
	return swept, nil
}
