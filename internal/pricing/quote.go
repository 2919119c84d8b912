package pricing

// Summary aggregates the pricing components of a single line quote.
type Summary struct {
	UnitPrice    float64 `json:"unitPrice"`
	Quantity     int     `json:"quantity"`
	CustomerType string  `json:"customerType,omitempty"`
	Subtotal     float64 `json:"subtotal"`
	RateBps      int     `json:"rateBps"`
	Tier         Tier    `json:"tier"`
	Discount     float64 `json:"discount"`
	Tax          float64 `json:"tax"`
	Total        float64 `json:"total"`
}

// Quote prices quantity units at price for the given customer type. Tax is applied in
// basis points on the discounted amount; negative tax rates are treated as zero.
func Quote(price float64, quantity int, customerType string, taxBps int) (Summary, error) {
	discount, err := DiscountAmount(price, quantity, customerType)
	if err != nil {
		return Summary{}, err
	}
	subtotal := price * float64(quantity)
	bps := CombinedRateBps(quantity, customerType)
	taxable := subtotal - discount
	if taxable < 0 {
		taxable = 0
	}
	if taxBps < 0 {
		taxBps = 0
	}
	tax := taxable * float64(taxBps) / 10000
	return Summary{
		UnitPrice:    price,
		Quantity:     quantity,
		CustomerType: NormalizeCustomerType(customerType),
		Subtotal:     subtotal,
		RateBps:      bps,
		Tier:         ClassifyTier(float64(bps) / 10000),
		Discount:     discount,
		Tax:          tax,
		Total:        taxable + tax,
	}, nil
}
