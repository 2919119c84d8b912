package cache

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-inventaris/internal/inventory"
	"github.com/noah-isme/toko-inventaris/internal/resilience"
)

// entry is the cached form of a product. Deleted marks a removed product so a
// lookup that raced the removal cannot cache it again.
type entry struct {
	Product inventory.Product `json:"product"`
	Deleted bool              `json:"deleted,omitempty"`
}

// ProductRepository caches single-product lookups in Redis. Writes refresh the
// cached entry from the store, and lookups only fill keys that are absent, so a
// slow lookup never replaces a newer entry. Listing queries always reach the
// underlying repository.
type ProductRepository struct {
	inventory.Repository
	Cache   *JSON
	Breaker *resilience.Breaker
	Logger  zerolog.Logger
}

// Primary returns the store of record behind the cache.
func (r ProductRepository) Primary() inventory.Repository {
	return r.Repository
}

// FindByCode serves from the cache when possible. Cache failures fall back to the
// store, and an open breaker skips the cache altogether.
func (r ProductRepository) FindByCode(ctx context.Context, code string) (inventory.Product, error) {
	key := KeyProduct(code)
	var (
		cached entry
		hit    bool
	)
	err := r.guard(ctx, func(ctx context.Context) error {
		var err error
		hit, err = r.Cache.Get(ctx, key, &cached)
		return err
	})
	r.logCacheErr(err, key, "cache_get_failed")
	if hit && !cached.Deleted {
		return cached.Product, nil
	}
	p, err := r.Repository.FindByCode(ctx, code)
	if err != nil {
		return inventory.Product{}, err
	}
	if hit {
		return p, nil
	}
	err = r.guard(ctx, func(ctx context.Context) error {
		_, err := r.Cache.Add(ctx, key, entry{Product: p})
		return err
	})
	r.logCacheErr(err, key, "cache_set_failed")
	return p, nil
}

func (r ProductRepository) Save(ctx context.Context, p inventory.Product) error {
	if err := r.Repository.Save(ctx, p); err != nil {
		return err
	}
	r.refresh(ctx, p.Code)
	return nil
}

func (r ProductRepository) Delete(ctx context.Context, code string) error {
	if err := r.Repository.Delete(ctx, code); err != nil {
		return err
	}
	r.store(ctx, code, entry{Deleted: true})
	return nil
}

func (r ProductRepository) UpdateStock(ctx context.Context, code string, stock int) error {
	if err := r.Repository.UpdateStock(ctx, code, stock); err != nil {
		return err
	}
	r.refresh(ctx, code)
	return nil
}

// refresh overwrites the cached entry with the committed product.
func (r ProductRepository) refresh(ctx context.Context, code string) {
	if !r.Cache.Enabled() {
		return
	}
	p, err := r.Repository.FindByCode(ctx, code)
	if err != nil {
		r.invalidate(ctx, code)
		return
	}
	r.store(ctx, code, entry{Product: p})
}

func (r ProductRepository) store(ctx context.Context, code string, e entry) {
	key := KeyProduct(code)
	err := r.guard(ctx, func(ctx context.Context) error {
		return r.Cache.Set(ctx, key, e)
	})
	if err != nil {
		r.logCacheErr(err, key, "cache_refresh_failed")
		r.invalidate(ctx, code)
	}
}

// invalidate drops the cached entry. A failure leaves the entry to expire with its
// TTL; stock rules read the store of record and are not affected.
func (r ProductRepository) invalidate(ctx context.Context, code string) {
	key := KeyProduct(code)
	if err := r.Cache.Delete(ctx, key); err != nil {
		r.Logger.Warn().Err(err).Str("key", key).Msg("cache_invalidate_failed")
	}
}

func (r ProductRepository) logCacheErr(err error, key, msg string) {
	if err != nil && !errors.Is(err, resilience.ErrOpenCircuit) {
		r.Logger.Warn().Err(err).Str("key", key).Msg(msg)
	}
}

func (r ProductRepository) guard(ctx context.Context, fn func(context.Context) error) error {
	if r.Breaker == nil {
		return fn(ctx)
	}
	return r.Breaker.Do(ctx, fn)
}
