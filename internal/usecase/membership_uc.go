// File: internal/usecase/membership_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"esengo-membership/internal/domain"
	"esengo-membership/internal/domain/model"
	"esengo-membership/internal/domain/ports/repository"
)

// ChainEntry is one hop of a sponsor chain walk.
type ChainEntry struct {
	Membership *model.PackMembership
	Level      int
}

// Compile-time check
var _ MembershipUseCase = (*membershipUC)(nil)

// MembershipUseCase exposes the pack membership registry operations the
// settlement engines and the ops surface consume.
type MembershipUseCase interface {
	IsActive(ctx context.Context, memberID, packID string) (bool, error)
	// SponsorChain follows sponsor references upward, at most maxDepth hops
	// (capped at model.MaxCommissionDepth when maxDepth <= 0).
	SponsorChain(ctx context.Context, memberID, packID string, maxDepth int) ([]ChainEntry, error)
	// Renew extends an active membership from its current expiry, or an
	// expired one from now.
	Renew(ctx context.Context, membershipID string, extraMonths int) (*model.PackMembership, error)
	MarkExpired(ctx context.Context, membershipID string) error
	// ExpireDue sweeps active memberships past their expiry date.
	ExpireDue(ctx context.Context) (int64, error)
}

type membershipUC struct {
	memberships repository.MembershipRepository
	log         *zerolog.Logger
}

func NewMembershipUseCase(memberships repository.MembershipRepository, logger *zerolog.Logger) *membershipUC {
	l := logger.With().Str("component", "MembershipUC").Logger()
	return &membershipUC{memberships: memberships, log: &l}
}

func (u *membershipUC) IsActive(ctx context.Context, memberID, packID string) (bool, error) {
	m, err := u.memberships.FindByMemberAndPack(ctx, repository.NoTX, memberID, packID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.IsActiveAt(time.Now()), nil
}

func (u *membershipUC) SponsorChain(ctx context.Context, memberID, packID string, maxDepth int) ([]ChainEntry, error) {
	if maxDepth <= 0 || maxDepth > model.MaxCommissionDepth {
		maxDepth = model.MaxCommissionDepth
	}
	m, err := u.memberships.FindByMemberAndPack(ctx, repository.NoTX, memberID, packID)
	if err != nil {
		return nil, err
	}

	var chain []ChainEntry
	visited := map[string]bool{m.ID: true}
	cursor := m.SponsorID
	for level := 1; cursor != nil && level <= maxDepth; level++ {
		sponsor, err := u.memberships.FindByID(ctx, repository.NoTX, *cursor)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				break
			}
			return nil, err
		}
		if visited[sponsor.ID] {
			break
		}
		visited[sponsor.ID] = true
		chain = append(chain, ChainEntry{Membership: sponsor, Level: level})
		if sponsor.PaymentStatus != model.PaymentStatusCompleted {
			break
		}
		cursor = sponsor.SponsorID
	}
	return chain, nil
}

func (u *membershipUC) Renew(ctx context.Context, membershipID string, extraMonths int) (*model.PackMembership, error) {
	m, err := u.memberships.FindByID(ctx, repository.NoTX, membershipID)
	if err != nil {
		return nil, err
	}
	if err := m.Renew(time.Now(), extraMonths); err != nil {
		return nil, err
	}
	if err := u.memberships.Save(ctx, repository.NoTX, m); err != nil {
		return nil, err
	}
	u.log.Info().Str("membership_id", m.ID).Int("months", extraMonths).Msg("membership renewed")
	return m, nil
}

func (u *membershipUC) MarkExpired(ctx context.Context, membershipID string) error {
	m, err := u.memberships.FindByID(ctx, repository.NoTX, membershipID)
	if err != nil {
		return err
	}
	if err := m.Transition(model.MembershipStatusExpired); err != nil {
		return err
	}
	return u.memberships.Save(ctx, repository.NoTX, m)
}

func (u *membershipUC) ExpireDue(ctx context.Context) (int64, error) {
	n, err := u.memberships.ExpireDue(ctx, repository.NoTX, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		u.log.Info().Int64("count", n).Msg("memberships expired")
	}
	return n, nil
}
