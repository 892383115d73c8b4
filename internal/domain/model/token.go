package model

import (
	"time"

	"esengo-membership/internal/domain"
)

type TokenStatus string

const (
	TokenStatusIssued  TokenStatus = "issued"
	TokenStatusUsed    TokenStatus = "used"
	TokenStatusExpired TokenStatus = "expired"
)

// BonusToken ("jeton esengo") is a time-boxed single-use token granted
// alongside monthly bonus points. issued -> used and issued -> expired are
// the only transitions; both end states are terminal.
type BonusToken struct {
	ID         string // UUID
	MemberID   string
	PackID     string
	Code       string // unique redemption code
	Status     TokenStatus
	ExpiresAt  time.Time
	RedeemedAt *time.Time
	CreatedAt  time.Time
}

func (t *BonusToken) IsExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Redeem flips an issued, unexpired token to used exactly once.
func (t *BonusToken) Redeem(now time.Time) error {
	switch t.Status {
	case TokenStatusUsed:
		return domain.ErrTokenUsed
	case TokenStatusExpired:
		return domain.ErrTokenExpired
	}
	if t.IsExpiredAt(now) {
		return domain.ErrTokenExpired
	}
	t.Status = TokenStatusUsed
	t.RedeemedAt = &now
	return nil
}

// Expire marks an issued token past its expiry. Expiring an already-expired
// token is a no-op so the sweep stays idempotent; a used token is never
// touched.
func (t *BonusToken) Expire(now time.Time) (changed bool, err error) {
	switch t.Status {
	case TokenStatusUsed:
		return false, domain.ErrTokenUsed
	case TokenStatusExpired:
		return false, nil
	}
	if !t.IsExpiredAt(now) {
		return false, domain.ErrInvalidArgument
	}
	t.Status = TokenStatusExpired
	return true, nil
}

// NewBonusToken issues a token with a future expiry.
func NewBonusToken(id, memberID, packID, code string, expiresAt time.Time) (*BonusToken, error) {
	if id == "" || memberID == "" || packID == "" || code == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	if !expiresAt.After(now) {
		return nil, domain.ErrInvalidArgument
	}
	return &BonusToken{
		ID:        id,
		MemberID:  memberID,
		PackID:    packID,
		Code:      code,
		Status:    TokenStatusIssued,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}
