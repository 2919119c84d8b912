package inventory

import (
	"context"

	"github.com/noah-isme/toko-inventaris/internal/events"
)

// Repository persists products. FindByCode returns ErrProductNotFound for unknown codes.
type Repository interface {
	Save(ctx context.Context, p Product) error
	FindByCode(ctx context.Context, code string) (Product, error)
	FindByName(ctx context.Context, name string) ([]Product, error)
	FindByCategory(ctx context.Context, category string) ([]Product, error)
	FindAll(ctx context.Context) ([]Product, error)
	FindLowStock(ctx context.Context) ([]Product, error)
	FindOutOfStock(ctx context.Context) ([]Product, error)
	Delete(ctx context.Context, code string) error
	UpdateStock(ctx context.Context, code string, stock int) error
}

// Layered is implemented by repositories that answer reads from a copy, such as a
// cache, kept in front of a store of record. Stock rules read the store of record.
type Layered interface {
	Primary() Repository
}

// Locker serialises work on a key across processes.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(context.Context) error) error
}

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

type noLock struct{}

func (noLock) WithLock(ctx context.Context, _ string, fn func(context.Context) error) error {
	return fn(ctx)
}
