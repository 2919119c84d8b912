package pricing

// Tier is a qualitative bucket describing an already computed discount rate.
type Tier string

const (
	TierNone     Tier = "NO_DISCOUNT"
	TierLight    Tier = "LIGHT_DISCOUNT"
	TierModerate Tier = "MODERATE_DISCOUNT"
	TierLarge    Tier = "LARGE_DISCOUNT"
)

// ClassifyTier maps a discount rate fraction to its tier. Bands are closed on the lower
// edge and any real number is accepted, including negatives and rates above 1.
func ClassifyTier(rate float64) Tier {
	switch {
	case rate <= 0:
		return TierNone
	case rate < 0.10:
		return TierLight
	case rate < 0.20:
		return TierModerate
	default:
		return TierLarge
	}
}

// String implements fmt.Stringer.
func (t Tier) String() string { return string(t) }
