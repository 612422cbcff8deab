package settlement

// Cross-chain amounts arrive normalized to 8 decimals.
const normalizedDecimals = 8

// Pow10 returns 10^n in uint64 arithmetic. Token decimals never exceed 19
// in practice; beyond that the result wraps like any uint64 product.
func Pow10(n uint8) uint64 {
	r := uint64(1)
	for i := uint8(0); i < n; i++ {
		r *= 10
	}
	return r
}

// Denormalize scales a bridge-normalized amount back into a mint's native
// precision. Mints at or below 8 decimals pass through untouched.
func Denormalize(amount uint64, decimals uint8) uint64 {
	if decimals > normalizedDecimals {
		amount *= Pow10(decimals - normalizedDecimals)
	}
	return amount
}
