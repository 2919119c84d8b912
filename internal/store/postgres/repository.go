// Package postgres implements the inventory stores on top of pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/toko-inventaris/internal/events"
	"github.com/noah-isme/toko-inventaris/internal/inventory"
)

const uniqueViolation = "23505"

// DB is the subset of *pgxpool.Pool used by the stores.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository is a Postgres backed inventory.Repository.
type Repository struct {
	DB DB
}

const productColumns = `code, name, category, price, stock, min_stock, active`

// Save inserts a new product. A duplicate code yields inventory.ErrProductExists.
func (r Repository) Save(ctx context.Context, p inventory.Product) error {
	_, err := r.DB.Exec(ctx, `INSERT INTO products (`+productColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.Code, p.Name, p.Category, p.Price, p.Stock, p.MinStock, p.Active)
	if isUniqueViolation(err) {
		return inventory.ErrProductExists
	}
	if err != nil {
		return fmt.Errorf("postgres: insert product: %w", err)
	}
	return nil
}

func (r Repository) FindByCode(ctx context.Context, code string) (inventory.Product, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE code = $1`, code)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return inventory.Product{}, inventory.ErrProductNotFound
	}
	if err != nil {
		return inventory.Product{}, fmt.Errorf("postgres: find product: %w", err)
	}
	return p, nil
}

func (r Repository) FindByName(ctx context.Context, name string) ([]inventory.Product, error) {
	return r.list(ctx, `WHERE position(lower($1) in lower(name)) > 0`, name)
}

func (r Repository) FindByCategory(ctx context.Context, category string) ([]inventory.Product, error) {
	return r.list(ctx, `WHERE lower(category) = lower($1)`, category)
}

func (r Repository) FindAll(ctx context.Context) ([]inventory.Product, error) {
	return r.list(ctx, "")
}

func (r Repository) FindLowStock(ctx context.Context) ([]inventory.Product, error) {
	return r.list(ctx, `WHERE stock <= min_stock`)
}

func (r Repository) FindOutOfStock(ctx context.Context) ([]inventory.Product, error) {
	return r.list(ctx, `WHERE stock <= 0`)
}

func (r Repository) Delete(ctx context.Context, code string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM products WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("postgres: delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return inventory.ErrProductNotFound
	}
	return nil
}

func (r Repository) UpdateStock(ctx context.Context, code string, stock int) error {
	tag, err := r.DB.Exec(ctx, `UPDATE products SET stock = $2, updated_at = now() WHERE code = $1`, code, stock)
	if err != nil {
		return fmt.Errorf("postgres: update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return inventory.ErrProductNotFound
	}
	return nil
}

func (r Repository) list(ctx context.Context, where string, args ...any) ([]inventory.Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products `+where+` ORDER BY code`, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list products: %w", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (inventory.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: scan products: %w", err)
	}
	return products, nil
}

func scanProduct(row pgx.Row) (inventory.Product, error) {
	var p inventory.Product
	err := row.Scan(&p.Code, &p.Name, &p.Category, &p.Price, &p.Stock, &p.MinStock, &p.Active)
	return p, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// EventStore persists domain events in the domain_events table.
type EventStore struct {
	DB DB
}

// AppendEvent implements events.EventStore.
func (s EventStore) AppendEvent(ctx context.Context, ev events.Event) error {
	_, err := s.DB.Exec(ctx, `INSERT INTO domain_events (id, topic, aggregate_id, payload, occurred_at)
VALUES ($1, $2, $3, $4, $5)`, ev.ID, ev.Topic, ev.AggregateID, []byte(ev.Payload), ev.OccurredAt)
	if err != nil {
		return fmt.Errorf("postgres: insert event: %w", err)
	}
	return nil
}

// RecentEvents returns the latest events for an aggregate, newest first.
func (s EventStore) RecentEvents(ctx context.Context, aggregateID string, limit int) ([]events.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.Query(ctx, `SELECT id, topic, aggregate_id, payload, occurred_at
FROM domain_events WHERE aggregate_id = $1 ORDER BY occurred_at DESC LIMIT $2`, aggregateID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (events.Event, error) {
		var ev events.Event
		var payload []byte
		if err := row.Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &payload, &ev.OccurredAt); err != nil {
			return events.Event{}, err
		}
		ev.Payload = payload
		return ev, nil
	})
}
