package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-inventaris/internal/events"
	"github.com/noah-isme/toko-inventaris/internal/obs"
	"github.com/noah-isme/toko-inventaris/internal/pricing"
	"github.com/noah-isme/toko-inventaris/internal/validation"
)

// Stock movement kinds reported to metrics and events.
const (
	MovementSet = "set"
	MovementIn  = "in"
	MovementOut = "out"
)

const lockPrefix = "inventory:product:"

var nopLogger = zerolog.Nop()

// Service applies the inventory rules on top of a Repository.
type Service struct {
	repo   Repository
	store  Repository
	locker Locker
	events Emitter
	taxBps int
	logger *zerolog.Logger
}

// ServiceConfig groups Service dependencies. Locker and Events are optional.
type ServiceConfig struct {
	Repository Repository
	Locker     Locker
	Events     Emitter
	TaxBps     int
	Logger     *zerolog.Logger
}

// Summary aggregates stock figures over the whole inventory.
type Summary struct {
	Products       int     `json:"products"`
	ActiveProducts int     `json:"activeProducts"`
	TotalStock     int     `json:"totalStock"`
	TotalValue     float64 `json:"totalValue"`
	LowStock       int     `json:"lowStock"`
	OutOfStock     int     `json:"outOfStock"`
}

// StockMovement is the payload of stock events.
type StockMovement struct {
	Code     string `json:"code"`
	Kind     string `json:"kind"`
	Quantity int    `json:"quantity"`
	Previous int    `json:"previous"`
	Stock    int    `json:"stock"`
	MinStock int    `json:"minStock"`
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	svc := &Service{
		repo:   cfg.Repository,
		locker: cfg.Locker,
		events: cfg.Events,
		taxBps: cfg.TaxBps,
		logger: cfg.Logger,
	}
	svc.store = svc.repo
	if layered, ok := svc.repo.(Layered); ok {
		svc.store = layered.Primary()
	}
	if svc.locker == nil {
		svc.locker = noLock{}
	}
	return svc
}

// AddProduct validates and stores a new product.
func (s *Service) AddProduct(ctx context.Context, p Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	err := s.locker.WithLock(ctx, lockKey(p.Code), func(ctx context.Context) error {
		_, err := s.store.FindByCode(ctx, p.Code)
		switch {
		case err == nil:
			return ErrProductExists
		case !errors.Is(err, ErrProductNotFound):
			return fmt.Errorf("inventory: lookup product: %w", err)
		}
		return s.repo.Save(ctx, p)
	})
	if err != nil {
		return err
	}
	s.emit(ctx, events.TopicProductCreated, p.Code, p)
	return nil
}

// RemoveProduct deletes a product once its stock has been cleared.
func (s *Service) RemoveProduct(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return ErrInvalidCode
	}
	var removed Product
	err := s.locker.WithLock(ctx, lockKey(code), func(ctx context.Context) error {
		p, err := s.store.FindByCode(ctx, code)
		if err != nil {
			return err
		}
		if p.Stock > 0 {
			return ErrStockRemaining
		}
		if err := s.repo.Delete(ctx, code); err != nil {
			return err
		}
		removed = p
		return nil
	})
	if err != nil {
		return err
	}
	s.emit(ctx, events.TopicProductDeleted, code, removed)
	return nil
}

// FindByCode returns the product with the given code.
func (s *Service) FindByCode(ctx context.Context, code string) (Product, error) {
	return s.repo.FindByCode(ctx, code)
}

// FindByName returns products whose name contains name, ignoring case.
func (s *Service) FindByName(ctx context.Context, name string) ([]Product, error) {
	return s.repo.FindByName(ctx, name)
}

// FindByCategory returns products in the category, ignoring case.
func (s *Service) FindByCategory(ctx context.Context, category string) ([]Product, error) {
	return s.repo.FindByCategory(ctx, category)
}

// ListProducts returns every product.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.FindAll(ctx)
}

// UpdateStock sets the stock of an active product to an absolute level.
func (s *Service) UpdateStock(ctx context.Context, code string, stock int) (Product, error) {
	if !validation.ValidStock(stock) {
		obs.ObserveStockMovement(MovementSet, "rejected")
		return Product{}, ErrInvalidStock
	}
	return s.move(ctx, code, MovementSet, stock, func(Product) (int, error) {
		return stock, nil
	})
}

// StockIn adds qty units to an active product.
func (s *Service) StockIn(ctx context.Context, code string, qty int) (Product, error) {
	if !validation.ValidQuantity(qty) {
		obs.ObserveStockMovement(MovementIn, "rejected")
		return Product{}, ErrInvalidQuantity
	}
	return s.move(ctx, code, MovementIn, qty, func(p Product) (int, error) {
		return p.Stock + qty, nil
	})
}

// StockOut removes qty units from an active product. Taking the last unit is allowed.
func (s *Service) StockOut(ctx context.Context, code string, qty int) (Product, error) {
	if !validation.ValidQuantity(qty) {
		obs.ObserveStockMovement(MovementOut, "rejected")
		return Product{}, ErrInvalidQuantity
	}
	return s.move(ctx, code, MovementOut, qty, func(p Product) (int, error) {
		if p.Stock < qty {
			return 0, ErrInsufficientStock
		}
		return p.Stock - qty, nil
	})
}

// LowStockProducts returns products at or below their minimum stock.
func (s *Service) LowStockProducts(ctx context.Context) ([]Product, error) {
	return s.repo.FindLowStock(ctx)
}

// OutOfStockProducts returns products with nothing on hand.
func (s *Service) OutOfStockProducts(ctx context.Context) ([]Product, error) {
	return s.repo.FindOutOfStock(ctx)
}

// TotalInventoryValue sums price times stock over active products.
func (s *Service) TotalInventoryValue(ctx context.Context) (float64, error) {
	summary, err := s.Summary(ctx)
	if err != nil {
		return 0, err
	}
	return summary.TotalValue, nil
}

// TotalStock sums the stock of active products.
func (s *Service) TotalStock(ctx context.Context) (int, error) {
	summary, err := s.Summary(ctx)
	if err != nil {
		return 0, err
	}
	return summary.TotalStock, nil
}

// Summary computes inventory totals. Inactive products are counted but excluded from
// stock and value.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return Summary{}, err
	}
	var out Summary
	out.Products = len(products)
	for _, p := range products {
		if !p.Active {
			continue
		}
		out.ActiveProducts++
		out.TotalStock += p.Stock
		out.TotalValue += p.Value()
		if p.IsOutOfStock() {
			out.OutOfStock++
		} else if p.IsLowStock() {
			out.LowStock++
		}
	}
	return out, nil
}

// Quote prices qty units of a product for the given customer type.
func (s *Service) Quote(ctx context.Context, code string, qty int, customerType string) (pricing.Summary, error) {
	p, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return pricing.Summary{}, err
	}
	if !p.Active {
		return pricing.Summary{}, ErrProductInactive
	}
	return pricing.Quote(p.Price, qty, customerType, s.taxBps)
}

func (s *Service) move(ctx context.Context, code, kind string, qty int, next func(Product) (int, error)) (Product, error) {
	var before, after Product
	err := s.locker.WithLock(ctx, lockKey(code), func(ctx context.Context) error {
		p, err := s.store.FindByCode(ctx, code)
		if err != nil {
			return err
		}
		if !p.Active {
			return ErrProductInactive
		}
		stock, err := next(p)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateStock(ctx, code, stock); err != nil {
			return err
		}
		before = p
		after = p
		after.Stock = stock
		return nil
	})
	if err != nil {
		obs.ObserveStockMovement(kind, movementResult(err))
		return Product{}, err
	}
	obs.ObserveStockMovement(kind, "ok")

	movement := StockMovement{
		Code:     code,
		Kind:     kind,
		Quantity: qty,
		Previous: before.Stock,
		Stock:    after.Stock,
		MinStock: after.MinStock,
	}
	s.emit(ctx, events.TopicStockUpdated, code, movement)
	switch {
	case after.IsOutOfStock() && !before.IsOutOfStock():
		s.emit(ctx, events.TopicStockDepleted, code, movement)
	case after.IsLowStock() && !after.IsOutOfStock() && !before.IsLowStock():
		s.emit(ctx, events.TopicStockLow, code, movement)
	}
	s.loggerFor(ctx).Info().
		Str("code", code).
		Str("kind", kind).
		Int("previous", before.Stock).
		Int("stock", after.Stock).
		Msg("stock_movement")
	return after, nil
}

func (s *Service) emit(ctx context.Context, topic, code string, payload any) {
	if s.events == nil {
		return
	}
	if _, err := s.events.Emit(ctx, topic, code, payload); err != nil {
		s.loggerFor(ctx).Warn().Err(err).Str("topic", topic).Str("code", code).Msg("emit_event_failed")
	}
}

func (s *Service) loggerFor(ctx context.Context) *zerolog.Logger {
	if ctxLogger := zerolog.Ctx(ctx); ctxLogger != nil && ctxLogger.GetLevel() != zerolog.Disabled {
		return ctxLogger
	}
	if s.logger == nil {
		return &nopLogger
	}
	return s.logger
}

func movementResult(err error) string {
	switch {
	case errors.Is(err, ErrProductNotFound),
		errors.Is(err, ErrProductInactive),
		errors.Is(err, ErrInsufficientStock):
		return "rejected"
	default:
		return "error"
	}
}

func lockKey(code string) string {
	return lockPrefix + strings.ToUpper(strings.TrimSpace(code))
}
