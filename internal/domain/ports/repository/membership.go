package repository

import (
	"context"
	"time"

	"esengo-membership/internal/domain/model"
)

// MembershipRepository is the pack membership registry: per-member, per-pack
// ownership rows threaded together by sponsor references.
type MembershipRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.PackMembership, error)
	FindByMemberAndPack(ctx context.Context, tx Tx, memberID, packID string) (*model.PackMembership, error)
	Save(ctx context.Context, tx Tx, m *model.PackMembership) error

	// ListMembersWithActivePack returns the distinct member ids holding at
	// least one active, payment-completed membership.
	ListMembersWithActivePack(ctx context.Context, tx Tx) ([]string, error)
	// ListActiveByMember returns the member's active, payment-completed
	// memberships.
	ListActiveByMember(ctx context.Context, tx Tx, memberID string) ([]*model.PackMembership, error)

	// CountDirectReferrals counts distinct members directly sponsored by any
	// of the given member's memberships whose own membership was created with
	// completed payment inside [start, end]. One level only.
	CountDirectReferrals(ctx context.Context, tx Tx, memberID string, start, end time.Time) (int, error)

	// ExpireDue flips active, non-operator memberships past their expiry to
	// expired and returns how many rows changed.
	ExpireDue(ctx context.Context, tx Tx, now time.Time) (int64, error)
}
