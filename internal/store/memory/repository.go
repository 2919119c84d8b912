// Package memory provides process-local stores used when no database is configured
// and in tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/noah-isme/toko-inventaris/internal/events"
	"github.com/noah-isme/toko-inventaris/internal/inventory"
)

// Repository is an in-memory inventory.Repository. Results are ordered by code.
type Repository struct {
	mu       sync.RWMutex
	products map[string]inventory.Product
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{products: make(map[string]inventory.Product)}
}

func (r *Repository) Save(_ context.Context, p inventory.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.Code] = p
	return nil
}

func (r *Repository) FindByCode(_ context.Context, code string) (inventory.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[code]
	if !ok {
		return inventory.Product{}, inventory.ErrProductNotFound
	}
	return p, nil
}

func (r *Repository) FindByName(_ context.Context, name string) ([]inventory.Product, error) {
	needle := strings.ToLower(name)
	return r.filter(func(p inventory.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	}), nil
}

func (r *Repository) FindByCategory(_ context.Context, category string) ([]inventory.Product, error) {
	return r.filter(func(p inventory.Product) bool {
		return strings.EqualFold(p.Category, category)
	}), nil
}

func (r *Repository) FindAll(context.Context) ([]inventory.Product, error) {
	return r.filter(func(inventory.Product) bool { return true }), nil
}

func (r *Repository) FindLowStock(context.Context) ([]inventory.Product, error) {
	return r.filter(inventory.Product.IsLowStock), nil
}

func (r *Repository) FindOutOfStock(context.Context) ([]inventory.Product, error) {
	return r.filter(inventory.Product.IsOutOfStock), nil
}

func (r *Repository) Delete(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[code]; !ok {
		return inventory.ErrProductNotFound
	}
	delete(r.products, code)
	return nil
}

func (r *Repository) UpdateStock(_ context.Context, code string, stock int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[code]
	if !ok {
		return inventory.ErrProductNotFound
	}
	p.Stock = stock
	r.products[code] = p
	return nil
}

func (r *Repository) filter(keep func(inventory.Product) bool) []inventory.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]inventory.Product, 0, len(r.products))
	for _, p := range r.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

const defaultEventLimit = 50

// EventStore keeps emitted events in memory.
type EventStore struct {
	mu     sync.Mutex
	events []events.Event
}

// AppendEvent implements events.EventStore.
func (s *EventStore) AppendEvent(_ context.Context, ev events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of the recorded events, optionally limited to one aggregate.
func (s *EventStore) Events(aggregateID string) []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Event, 0, len(s.events))
	for _, ev := range s.events {
		if aggregateID == "" || ev.AggregateID == aggregateID {
			out = append(out, ev)
		}
	}
	return out
}

// RecentEvents implements events.History.
func (s *EventStore) RecentEvents(_ context.Context, aggregateID string, limit int) ([]events.Event, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Event, 0, min(limit, len(s.events)))
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if s.events[i].AggregateID == aggregateID {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}
