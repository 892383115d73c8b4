package currency

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"esengo-membership/internal/config"
	"esengo-membership/internal/domain"
	"esengo-membership/internal/domain/ports/adapter"
)

var _ adapter.CurrencyConverter = (*StaticConverter)(nil)

// StaticConverter converts through an operator-maintained rate table loaded
// from configuration, keyed "FROM:TO". Identity pairs always convert;
// anything else unknown fails with domain.ErrRateUnavailable.
type StaticConverter struct {
	rates map[string]float64
	log   *zerolog.Logger
}

func NewStaticConverter(cfg config.CurrencyConfig, logger *zerolog.Logger) *StaticConverter {
	l := logger.With().Str("component", "CurrencyConverter").Logger()
	rates := make(map[string]float64, len(cfg.Rates))
	for pair, rate := range cfg.Rates {
		rates[strings.ToUpper(pair)] = rate
	}
	return &StaticConverter{rates: rates, log: &l}
}

func (c *StaticConverter) Convert(ctx context.Context, amount int64, from, to string) (int64, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return amount, nil
	}
	rate, ok := c.rates[from+":"+to]
	if !ok || rate <= 0 {
		c.log.Warn().Str("from", from).Str("to", to).Msg("no exchange rate configured")
		return 0, domain.ErrRateUnavailable
	}
	return int64(float64(amount) * rate), nil
}
