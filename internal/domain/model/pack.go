package model

import (
	"time"

	"esengo-membership/internal/domain"
)

// Pack is a purchasable membership product. Prices are stored per month in
// minor currency units; a purchase for N months is priced N * MonthlyPrice.
type Pack struct {
	ID           string // UUID
	Name         string
	MonthlyPrice int64
	Currency     string
	CreatedAt    time.Time
}

func (p *Pack) IsZero() bool { return p == nil || p.ID == "" }

// PriceFor returns the total price for a purchase/renewal of the given
// duration.
func (p *Pack) PriceFor(months int) int64 {
	return p.MonthlyPrice * int64(months)
}

// NewPack validates and constructs a pack.
func NewPack(id, name string, monthlyPrice int64, currency string) (*Pack, error) {
	if id == "" || name == "" || monthlyPrice <= 0 || currency == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Pack{
		ID:           id,
		Name:         name,
		MonthlyPrice: monthlyPrice,
		Currency:     currency,
		CreatedAt:    time.Now(),
	}, nil
}

// MaxCommissionDepth caps how many sponsor generations a purchase can pay.
// The cap doubles as the cycle guard for the sponsor-chain walk.
const MaxCommissionDepth = 4

// CommissionRate configures the per-level percentage for one pack. Rates are
// stored in basis points (10000 = 100%) so commission math stays integral.
type CommissionRate struct {
	PackID          string
	Level           int // 1..MaxCommissionDepth
	RateBasisPoints int64
	UpdatedAt       time.Time
}

// AmountFor computes the commission on a price already multiplied by the
// purchase duration. Integer division truncates sub-unit remainders.
func (r *CommissionRate) AmountFor(priceForDuration int64) int64 {
	return priceForDuration * r.RateBasisPoints / 10_000
}

// BonusFrequency identifies one accrual cadence of the bonus points engine.
type BonusFrequency string

const (
	FrequencyDaily   BonusFrequency = "daily"
	FrequencyWeekly  BonusFrequency = "weekly"
	FrequencyMonthly BonusFrequency = "monthly"
	FrequencyYearly  BonusFrequency = "yearly"
)

// Frequencies lists all cadences in ascending window size.
func Frequencies() []BonusFrequency {
	return []BonusFrequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly}
}

func (f BonusFrequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// WindowAround returns the inclusive [start, end] referral-counting window
// containing now: calendar day, ISO week (Mon-Sun), calendar month, or
// calendar year.
func (f BonusFrequency) WindowAround(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	loc := now.Location()
	switch f {
	case FrequencyDaily:
		start := time.Date(y, m, d, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 0, 1).Add(-time.Second)
	case FrequencyWeekly:
		// back up to Monday; Go's Weekday has Sunday == 0
		offset := (int(now.Weekday()) + 6) % 7
		start := time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7).Add(-time.Second)
	case FrequencyMonthly:
		start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0).Add(-time.Second)
	default: // yearly
		start := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(1, 0, 0).Add(-time.Second)
	}
}

// BonusRate configures point accrual and valuation for one (pack, frequency).
// PointValue is in minor currency units and is used only by conversion.
type BonusRate struct {
	PackID             string
	Frequency          BonusFrequency
	ReferralThreshold  int
	PointsPerThreshold int64
	PointValue         int64
	UpdatedAt          time.Time
}

// PointsFor applies the threshold math: floor(count/threshold) * points.
// A count under the threshold grants nothing.
func (r *BonusRate) PointsFor(referralCount int) int64 {
	if r.ReferralThreshold <= 0 || referralCount < r.ReferralThreshold {
		return 0
	}
	return int64(referralCount/r.ReferralThreshold) * r.PointsPerThreshold
}
