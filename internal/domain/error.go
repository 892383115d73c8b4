package domain

import (
	"errors"
	"fmt"
)

var (
	// Common storage/domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Ledger errors
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient wallet funds")

	// Commission errors
	ErrSponsorInactive = errors.New("sponsor pack inactive at distribution time")
	ErrPostingFailure  = errors.New("ledger posting failed")
	ErrNotRetryable    = errors.New("commission is not in a retryable state")

	// Bonus point errors
	ErrInsufficientPoints      = errors.New("insufficient bonus points")
	ErrValuationNotConfigured  = errors.New("point valuation not configured")
	ErrIllegalStatusTransition = errors.New("illegal status transition")

	// Jeton errors
	ErrTokenUsed    = errors.New("token already used")
	ErrTokenExpired = errors.New("token expired")

	// Collaborator errors
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	// Concurrency guards
	ErrLockNotAcquired = errors.New("lock not acquired")
)

// InsufficientPointsError carries the exact shortfall so callers can surface
// the available balance alongside the rejection. errors.Is matches it
// against ErrInsufficientPoints.
type InsufficientPointsError struct {
	Available int64
	Requested int64
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient bonus points: requested %d, available %d", e.Requested, e.Available)
}

func (e *InsufficientPointsError) Is(target error) bool {
	return target == ErrInsufficientPoints
}
