package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"esengo-membership/internal/domain/model"
	"esengo-membership/internal/domain/ports/repository"
	"esengo-membership/internal/infra/metrics"
	red "esengo-membership/internal/infra/redis"
)

// Rate tables change rarely and are read on every distribution and grant
// pass, so both get a read-through cache with write-side invalidation.

var _ repository.CommissionRateRepository = (*commissionRateRepoCacheDecorator)(nil)

type commissionRateRepoCacheDecorator struct {
	inner repository.CommissionRateRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewCommissionRateRepoCacheDecorator(inner repository.CommissionRateRepository, cache red.RedisClient) repository.CommissionRateRepository {
	return &commissionRateRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   1 * time.Hour,
	}
}

func commissionRateKey(packID string, level int) string {
	return fmt.Sprintf("commission_rate:%s:%d", packID, level)
}

func (d *commissionRateRepoCacheDecorator) Get(ctx context.Context, tx repository.Tx, packID string, level int) (*model.CommissionRate, error) {
	key := commissionRateKey(packID, level)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("commission_rate", "hit")
		var cr model.CommissionRate
		if json.Unmarshal([]byte(val), &cr) == nil {
			return &cr, nil
		}
	}

	metrics.IncCacheRequest("commission_rate", "miss")
	cr, err := d.inner.Get(ctx, tx, packID, level)
	if err != nil {
		return nil, err
	}
	if bytes, err := json.Marshal(cr); err == nil {
		_ = d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return cr, nil
}

func (d *commissionRateRepoCacheDecorator) Upsert(ctx context.Context, tx repository.Tx, cr *model.CommissionRate) error {
	_ = d.cache.Del(ctx, commissionRateKey(cr.PackID, cr.Level))
	return d.inner.Upsert(ctx, tx, cr)
}

func (d *commissionRateRepoCacheDecorator) ListByPack(ctx context.Context, tx repository.Tx, packID string) ([]*model.CommissionRate, error) {
	// Admin-only listing; always hits the table.
	return d.inner.ListByPack(ctx, tx, packID)
}

var _ repository.BonusRateRepository = (*bonusRateRepoCacheDecorator)(nil)

type bonusRateRepoCacheDecorator struct {
	inner repository.BonusRateRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewBonusRateRepoCacheDecorator(inner repository.BonusRateRepository, cache red.RedisClient) repository.BonusRateRepository {
	return &bonusRateRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   1 * time.Hour,
	}
}

func bonusRateKey(packID string, f model.BonusFrequency) string {
	return fmt.Sprintf("bonus_rate:%s:%s", packID, f)
}

func (d *bonusRateRepoCacheDecorator) Get(ctx context.Context, tx repository.Tx, packID string, f model.BonusFrequency) (*model.BonusRate, error) {
	key := bonusRateKey(packID, f)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("bonus_rate", "hit")
		var br model.BonusRate
		if json.Unmarshal([]byte(val), &br) == nil {
			return &br, nil
		}
	}

	metrics.IncCacheRequest("bonus_rate", "miss")
	br, err := d.inner.Get(ctx, tx, packID, f)
	if err != nil {
		return nil, err
	}
	if bytes, err := json.Marshal(br); err == nil {
		_ = d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return br, nil
}

func (d *bonusRateRepoCacheDecorator) Upsert(ctx context.Context, tx repository.Tx, br *model.BonusRate) error {
	_ = d.cache.Del(ctx, bonusRateKey(br.PackID, br.Frequency))
	return d.inner.Upsert(ctx, tx, br)
}
