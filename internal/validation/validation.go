// Package validation holds the field rules shared by the inventory model, the HTTP
// handlers and the CLI. Scalar helpers and struct validation both go through a single
// go-playground validator instance carrying the custom product tags.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	validator "github.com/go-playground/validator/v10"
)

const (
	// TagProductCode validates codes made of 3 to 10 ASCII letters or digits.
	TagProductCode = "productcode"
	// TagProductName validates names whose trimmed length is between 3 and 100 characters.
	TagProductName = "productname"

	MinNameLength        = 3
	MaxNameLength        = 100
	MaxDescriptionLength = 500
)

// ErrNilValue is returned by Struct when given a nil pointer.
var ErrNilValue = errors.New("validation: value is nil")

var productCodePattern = regexp.MustCompile(`^[A-Za-z0-9]{3,10}$`)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator with the custom tags registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonFieldName)
		mustRegister(v, TagProductCode, func(fl validator.FieldLevel) bool {
			return productCodePattern.MatchString(fl.Field().String())
		})
		mustRegister(v, TagProductName, func(fl validator.FieldLevel) bool {
			n := utf8.RuneCountInString(strings.TrimSpace(fl.Field().String()))
			return n >= MinNameLength && n <= MaxNameLength
		})
		instance = v
	})
	return instance
}

// ValidProductCode reports whether code is 3-10 letters or digits.
func ValidProductCode(code string) bool {
	return Validator().Var(code, TagProductCode) == nil
}

// ValidName reports whether the trimmed name is 3-100 characters long.
func ValidName(name string) bool {
	return Validator().Var(name, TagProductName) == nil
}

// ValidPrice reports whether price is strictly positive.
func ValidPrice(price float64) bool {
	return Validator().Var(price, "gt=0") == nil
}

// ValidStock reports whether stock is non-negative.
func ValidStock(stock int) bool {
	return Validator().Var(stock, "gte=0") == nil
}

// ValidMinStock reports whether a minimum stock threshold is non-negative.
func ValidMinStock(minStock int) bool {
	return Validator().Var(minStock, "gte=0") == nil
}

// ValidPercentage reports whether p lies in [0, 100].
func ValidPercentage(p float64) bool {
	return Validator().Var(p, "gte=0,lte=100") == nil
}

// ValidQuantity reports whether a movement quantity is strictly positive.
func ValidQuantity(qty int) bool {
	return Validator().Var(qty, "gt=0") == nil
}

// Struct validates v using its `validate` tags.
func Struct(v any) error {
	if v == nil {
		return ErrNilValue
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return ErrNilValue
	}
	return Validator().Struct(v)
}

// Errors flattens a validation error into field -> failed tag pairs. Errors that did not
// come from the validator are returned under the "_" key.
func Errors(err error) map[string]string {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}
