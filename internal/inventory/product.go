package inventory

import (
	"fmt"
	"slices"
	"strings"

	"github.com/noah-isme/toko-inventaris/internal/validation"
)

// Product is a stock-keeping unit tracked by the inventory.
type Product struct {
	Code     string  `json:"code" validate:"productcode"`
	Name     string  `json:"name" validate:"productname"`
	Category string  `json:"category"`
	Price    float64 `json:"price" validate:"gt=0"`
	Stock    int     `json:"stock" validate:"gte=0"`
	MinStock int     `json:"minStock" validate:"gte=0"`
	Active   bool    `json:"active"`
}

// NewProduct returns an active product.
func NewProduct(code, name, category string, price float64, stock, minStock int) Product {
	return Product{
		Code:     code,
		Name:     name,
		Category: category,
		Price:    price,
		Stock:    stock,
		MinStock: minStock,
		Active:   true,
	}
}

// IsLowStock reports whether stock has fallen to the minimum threshold or below.
func (p Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}

// IsOutOfStock reports whether nothing is left on hand.
func (p Product) IsOutOfStock() bool {
	return p.Stock <= 0
}

// Value is the price of the stock on hand.
func (p Product) Value() float64 {
	return p.Price * float64(p.Stock)
}

// Validate checks code, name, price, stock and minimum stock.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Code) == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidProduct)
	}
	if err := validation.Struct(p); err != nil {
		return &FieldError{Err: ErrInvalidProduct, Fields: validation.Errors(err)}
	}
	return nil
}

// FieldError carries the failed rule for each invalid field.
type FieldError struct {
	Err    error
	Fields map[string]string
}

func (e *FieldError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return fmt.Sprintf("%v: %s", e.Err, strings.Join(names, ", "))
}

func (e *FieldError) Unwrap() error { return e.Err }
