package inventory

import (
	"fmt"
	"strings"

	"github.com/noah-isme/toko-inventaris/internal/validation"
)

// Category groups products. Two categories are the same category when their codes match.
type Category struct {
	Code        string `json:"code" validate:"productcode"`
	Name        string `json:"name" validate:"productname"`
	Description string `json:"description,omitempty" validate:"max=500"`
	Active      bool   `json:"active"`
}

// NewCategory returns an active category.
func NewCategory(code, name, description string) Category {
	return Category{Code: code, Name: name, Description: description, Active: true}
}

// Equal compares categories by code only.
func (c Category) Equal(other Category) bool {
	return c.Code == other.Code
}

// Key returns the identity used when categories are stored in maps.
func (c Category) Key() string {
	return c.Code
}

func (c Category) String() string {
	return fmt.Sprintf("Category{code=%s, name=%s, description=%s, active=%t}", c.Code, c.Name, c.Description, c.Active)
}

// Validate checks the code and name rules and the optional description length.
func (c Category) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidCategory)
	}
	if err := validation.Struct(c); err != nil {
		return &FieldError{Err: ErrInvalidCategory, Fields: validation.Errors(err)}
	}
	return nil
}
