package model

import (
	"time"

	"esengo-membership/internal/domain"
)

type CommissionStatus string

const (
	CommissionStatusPending   CommissionStatus = "pending"
	CommissionStatusCompleted CommissionStatus = "completed"
	CommissionStatusFailed    CommissionStatus = "failed"
)

// commissionTransitions: pending posts to completed or failed; a failed
// record may be manually reset to pending for retry. Completed is terminal.
var commissionTransitions = map[CommissionStatus][]CommissionStatus{
	CommissionStatusPending: {CommissionStatusCompleted, CommissionStatusFailed},
	CommissionStatusFailed:  {CommissionStatusPending},
}

// CommissionRecord is one level of one purchase event's distribution. The
// amount is fixed at creation time; a retry reposts the stored amount and
// never recomputes from current rate configuration.
type CommissionRecord struct {
	ID                 string // UUID
	EarnerMemberID     string // the sponsor being paid
	EarnerMembershipID string
	SourceMemberID     string // the buyer whose purchase triggered this
	SourceMembershipID string
	PackID             string
	Level              int // 1..MaxCommissionDepth
	Amount             int64
	Currency           string
	DurationMonths     int
	Status             CommissionStatus
	ErrorText          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	PostedAt           *time.Time
}

func (c *CommissionRecord) CanTransition(to CommissionStatus) bool {
	for _, next := range commissionTransitions[c.Status] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies a guarded status change.
func (c *CommissionRecord) Transition(to CommissionStatus) error {
	if !c.CanTransition(to) {
		return domain.ErrIllegalStatusTransition
	}
	c.Status = to
	c.UpdatedAt = time.Now()
	return nil
}

// NewCommissionRecord constructs a record in pending state.
func NewCommissionRecord(id string, earner, source *PackMembership, level int, amount int64, currency string, durationMonths int) (*CommissionRecord, error) {
	if id == "" || earner == nil || source == nil {
		return nil, domain.ErrInvalidArgument
	}
	if level < 1 || level > MaxCommissionDepth {
		return nil, domain.ErrInvalidArgument
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	now := time.Now()
	return &CommissionRecord{
		ID:                 id,
		EarnerMemberID:     earner.MemberID,
		EarnerMembershipID: earner.ID,
		SourceMemberID:     source.MemberID,
		SourceMembershipID: source.ID,
		PackID:             source.PackID,
		Level:              level,
		Amount:             amount,
		Currency:           currency,
		DurationMonths:     durationMonths,
		Status:             CommissionStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}
