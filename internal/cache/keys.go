package cache

const keyPrefix = "inventory:"

// KeyProduct returns the cache key for a single product.
func KeyProduct(code string) string {
	return keyPrefix + "product:" + code
}
