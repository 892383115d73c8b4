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

var _ repository.PackRepository = (*packRepoCacheDecorator)(nil)

type packRepoCacheDecorator struct {
	inner repository.PackRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPackRepoCacheDecorator(inner repository.PackRepository, cache red.RedisClient) repository.PackRepository {
	return &packRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   1 * time.Hour,
	}
}

func (d *packRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Pack, error) {
	key := fmt.Sprintf("pack:%s", id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("pack", "hit")
		var p model.Pack
		if json.Unmarshal([]byte(val), &p) == nil {
			return &p, nil
		}
	}

	metrics.IncCacheRequest("pack", "miss")
	p, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if bytes, err := json.Marshal(p); err == nil {
		_ = d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return p, nil
}

func (d *packRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Pack, error) {
	const key = "pack:all"
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("pack_list", "hit")
		var packs []*model.Pack
		if json.Unmarshal([]byte(val), &packs) == nil {
			return packs, nil
		}
	}

	metrics.IncCacheRequest("pack_list", "miss")
	packs, err := d.inner.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(packs) > 0 {
		bytes, _ := json.Marshal(packs)
		_ = d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return packs, nil
}

func (d *packRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, p *model.Pack) error {
	_ = d.cache.Del(ctx, fmt.Sprintf("pack:%s", p.ID), "pack:all")
	return d.inner.Save(ctx, tx, p)
}
