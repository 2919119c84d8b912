package inventory

import "errors"

var (
	// ErrInvalidProduct is returned when a product fails field validation.
	ErrInvalidProduct = errors.New("inventory: invalid product")
	// ErrInvalidCategory is returned when a category fails field validation.
	ErrInvalidCategory = errors.New("inventory: invalid category")
	// ErrInvalidCode is returned for a blank product code.
	ErrInvalidCode = errors.New("inventory: product code is required")
	// ErrProductExists is returned when adding a product whose code is taken.
	ErrProductExists = errors.New("inventory: product already exists")
	// ErrProductNotFound is returned when no product has the requested code.
	ErrProductNotFound = errors.New("inventory: product not found")
	// ErrProductInactive is returned when mutating stock of an inactive product.
	ErrProductInactive = errors.New("inventory: product is inactive")
	// ErrInvalidStock is returned for a negative stock level.
	ErrInvalidStock = errors.New("inventory: stock must not be negative")
	// ErrInvalidQuantity is returned for a non-positive movement quantity.
	ErrInvalidQuantity = errors.New("inventory: quantity must be positive")
	// ErrInsufficientStock is returned when a stock-out exceeds the stock on hand.
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	// ErrStockRemaining is returned when deleting a product that still holds stock.
	ErrStockRemaining = errors.New("inventory: product still has stock")
)
