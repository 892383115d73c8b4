package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window counter. The first hit in a window sets the
// expiry; once the counter exceeds the limit the caller is rejected until the
// window rolls over.
type RateLimiter struct {
	client *redClient
}

func NewRateLimiter(client *redClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, err
		}
	}

	return count <= int64(limit), nil
}

// RedeemAttemptKey buckets token redemption attempts per caller so code
// guessing is throttled without affecting other endpoints.
func RedeemAttemptKey(callerIP string) string {
	return fmt.Sprintf("rate_limit:redeem:%s", callerIP)
}
