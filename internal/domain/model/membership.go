package model

import (
	"time"

	"esengo-membership/internal/domain"
)

type MembershipStatus string

const (
	MembershipStatusPending  MembershipStatus = "pending"  // created, payment not confirmed
	MembershipStatusActive   MembershipStatus = "active"   // paid and inside its validity window
	MembershipStatusExpired  MembershipStatus = "expired"  // passed expiry or expired by an admin
	MembershipStatusInactive MembershipStatus = "inactive" // manually toggled off
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
)

// membershipTransitions is the closed transition table for membership status.
// Anything not listed is illegal.
var membershipTransitions = map[MembershipStatus][]MembershipStatus{
	MembershipStatusPending:  {MembershipStatusActive},
	MembershipStatusActive:   {MembershipStatusExpired, MembershipStatusInactive},
	MembershipStatusExpired:  {MembershipStatusActive}, // renewal reactivates
	MembershipStatusInactive: {MembershipStatusActive},
}

// PackMembership is one member's ownership of one pack: the row the sponsor
// chain is threaded through.
type PackMembership struct {
	ID            string  // UUID
	MemberID      string  // UUID
	PackID        string  // UUID
	SponsorID     *string // membership ID of the direct sponsor, nil at the root
	Status        MembershipStatus
	PaymentStatus PaymentStatus
	ReferralCode  string
	// OperatorOwned memberships belong to the platform operator: exempt from
	// expiry and never a commission source.
	OperatorOwned bool
	PurchasedAt   time.Time
	ExpiresAt     *time.Time // nil = unlimited
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CanTransition reports whether moving to the target status is legal.
func (m *PackMembership) CanTransition(to MembershipStatus) bool {
	for _, next := range membershipTransitions[m.Status] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies a status change, rejecting anything outside the table.
func (m *PackMembership) Transition(to MembershipStatus) error {
	if !m.CanTransition(to) {
		return domain.ErrIllegalStatusTransition
	}
	m.Status = to
	m.UpdatedAt = time.Now()
	return nil
}

// IsActiveAt reports whether the membership can earn commissions at the given
// instant: active status, completed payment, and not past expiry.
// Operator-owned memberships never expire.
func (m *PackMembership) IsActiveAt(now time.Time) bool {
	if m.Status != MembershipStatusActive || m.PaymentStatus != PaymentStatusCompleted {
		return false
	}
	if m.OperatorOwned || m.ExpiresAt == nil {
		return true
	}
	return now.Before(*m.ExpiresAt)
}

// Renew extends the membership by extraMonths.
//
// The extension policy is load-bearing: an active membership extends from its
// current expiry (never from now, which would silently eat remaining time);
// an expired one restarts from now. Unlimited memberships stay unlimited.
func (m *PackMembership) Renew(now time.Time, extraMonths int) error {
	if extraMonths <= 0 {
		return domain.ErrInvalidArgument
	}
	if m.ExpiresAt == nil {
		m.UpdatedAt = now
		return nil
	}
	var base time.Time
	if now.Before(*m.ExpiresAt) && m.Status == MembershipStatusActive {
		base = *m.ExpiresAt
	} else {
		base = now
	}
	next := base.AddDate(0, extraMonths, 0)
	m.ExpiresAt = &next
	if m.Status == MembershipStatusExpired {
		if err := m.Transition(MembershipStatusActive); err != nil {
			return err
		}
	}
	m.UpdatedAt = now
	return nil
}

// NewPackMembership validates and constructs a membership in pending state.
func NewPackMembership(id, memberID, packID, referralCode string, sponsorID *string, expiresAt *time.Time) (*PackMembership, error) {
	if id == "" || memberID == "" || packID == "" || referralCode == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &PackMembership{
		ID:            id,
		MemberID:      memberID,
		PackID:        packID,
		SponsorID:     sponsorID,
		Status:        MembershipStatusPending,
		PaymentStatus: PaymentStatusPending,
		ReferralCode:  referralCode,
		PurchasedAt:   now,
		ExpiresAt:     expiresAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
