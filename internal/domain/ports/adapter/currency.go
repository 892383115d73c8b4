package adapter

import "context"

// CurrencyConverter is the narrow interface to the exchange-rate collaborator.
// Convert is pure: same inputs, same output. It fails with
// domain.ErrRateUnavailable when no rate is known for the pair, which aborts
// the single enclosing operation but never a whole batch.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount int64, from, to string) (int64, error)
}
