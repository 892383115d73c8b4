package model

import (
	"time"

	"esengo-membership/internal/domain"
)

// UserBonusPoints is the per-(member, pack) point balance. Available and
// Used never go negative; conversion moves points from one to the other.
type UserBonusPoints struct {
	MemberID  string
	PackID    string
	Available int64
	Used      int64
	UpdatedAt time.Time
}

// Grant increments the available balance.
func (b *UserBonusPoints) Grant(points int64) error {
	if points <= 0 {
		return domain.ErrInvalidArgument
	}
	b.Available += points
	b.UpdatedAt = time.Now()
	return nil
}

// Convert moves points from available to used. The caller posts the
// corresponding wallet credit in the same transaction.
func (b *UserBonusPoints) Convert(points int64) error {
	if points <= 0 {
		return domain.ErrInvalidArgument
	}
	if b.Available < points {
		return domain.ErrInsufficientPoints
	}
	b.Available -= points
	b.Used += points
	b.UpdatedAt = time.Now()
	return nil
}

type BonusHistoryType string

const (
	BonusHistoryGain        BonusHistoryType = "gain"
	BonusHistoryConversion  BonusHistoryType = "conversion"
	BonusHistoryTokenIssue  BonusHistoryType = "token_issue"
	BonusHistoryTokenExpire BonusHistoryType = "token_expiration"
)

// BonusHistoryEntry is one immutable audit row per grant, conversion, or
// token lifecycle event. Meta snapshots the triggering context (frequency,
// referral count, threshold) so audits never re-derive business state.
type BonusHistoryEntry struct {
	ID          string // ULID
	MemberID    string
	PackID      string
	Delta       int64 // signed point delta; 0 for token lifecycle entries
	Type        BonusHistoryType
	Description string
	Meta        map[string]interface{}
	CreatedAt   time.Time
}

// NewBonusHistoryEntry validates and constructs a history row.
func NewBonusHistoryEntry(id, memberID, packID string, delta int64, htype BonusHistoryType, description string, meta map[string]interface{}) (*BonusHistoryEntry, error) {
	if id == "" || memberID == "" || packID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &BonusHistoryEntry{
		ID:          id,
		MemberID:    memberID,
		PackID:      packID,
		Delta:       delta,
		Type:        htype,
		Description: description,
		Meta:        meta,
		CreatedAt:   time.Now(),
	}, nil
}

// GrantPassResult aggregates one batch run of the bonus points engine.
type GrantPassResult struct {
	Frequency        BonusFrequency
	MembersProcessed int
	PointsGranted    int64
	TokensIssued     int
	Errors           int
}
