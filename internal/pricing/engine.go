package pricing

import (
	"errors"
	"strings"
)

// ErrInvalidArgument is returned when a price or quantity is not strictly positive.
var ErrInvalidArgument = errors.New("price and quantity must be positive")

// MaxDiscountBps caps the combined quantity and customer discount (30%).
const MaxDiscountBps = 3000

// Customer type labels recognised by the bonus table. Matching is case-insensitive.
const (
	CustomerNew     = "NEW"
	CustomerRegular = "REGULAR"
	CustomerPremium = "PREMIUM"
)

type quantityTier struct {
	minQty int
	bps    int
}

// quantityTiers must stay ordered from the highest threshold down.
var quantityTiers = []quantityTier{
	{minQty: 100, bps: 2000},
	{minQty: 50, bps: 1500},
	{minQty: 10, bps: 1000},
	{minQty: 5, bps: 500},
}

var customerBonus = map[string]int{
	CustomerPremium: 1000,
	CustomerRegular: 500,
	CustomerNew:     200,
}

// QuantityRateBps returns the volume discount earned by quantity, in basis points.
func QuantityRateBps(quantity int) int {
	for _, tier := range quantityTiers {
		if quantity >= tier.minQty {
			return tier.bps
		}
	}
	return 0
}

// CustomerBonusBps returns the bonus for a customer type label. The label is
// trimmed and matched case-insensitively, so " premium " earns the PREMIUM bonus.
// Unknown or empty labels earn nothing.
func CustomerBonusBps(customerType string) int {
	return customerBonus[NormalizeCustomerType(customerType)]
}

// NormalizeCustomerType upper-cases and trims a customer type label.
func NormalizeCustomerType(customerType string) string {
	return strings.ToUpper(strings.TrimSpace(customerType))
}

// Segment returns the recognised customer type for a label, or "OTHER".
func Segment(customerType string) string {
	normalized := NormalizeCustomerType(customerType)
	if _, ok := customerBonus[normalized]; ok {
		return normalized
	}
	return "OTHER"
}

// CombinedRateBps sums the quantity tier and customer bonus, clamped to [0, MaxDiscountBps].
func CombinedRateBps(quantity int, customerType string) int {
	bps := QuantityRateBps(quantity) + CustomerBonusBps(customerType)
	if bps > MaxDiscountBps {
		bps = MaxDiscountBps
	}
	if bps < 0 {
		return 0
	}
	return bps
}

// CombinedRate is CombinedRateBps expressed as a fraction (0.15 for 15%).
func CombinedRate(quantity int, customerType string) float64 {
	return float64(CombinedRateBps(quantity, customerType)) / 10000
}

// DiscountAmount computes the monetary discount for buying quantity units at price.
func DiscountAmount(price float64, quantity int, customerType string) (float64, error) {
	if price <= 0 || quantity <= 0 {
		return 0, ErrInvalidArgument
	}
	total := price * float64(quantity)
	return total * float64(CombinedRateBps(quantity, customerType)) / 10000, nil
}

// FinalPrice returns the order total after DiscountAmount has been subtracted.
func FinalPrice(price float64, quantity int, customerType string) (float64, error) {
	discount, err := DiscountAmount(price, quantity, customerType)
	if err != nil {
		return 0, err
	}
	total := price * float64(quantity)
	return total - discount, nil
}
