package amm

// Quote returns the amount of the second asset that matches amountA at the
// current reserve ratio: floor(amountA * reserveB / reserveA).
// Flooring always favors the pool.
func Quote(amountA, reserveA, reserveB uint64) (uint64, error) {
	if amountA == 0 {
		return 0, ErrInsufficientDepositAmount
	}
	if reserveA == 0 || reserveB == 0 {
		return 0, ErrInsufficientLiquidity
	}
	return mulDiv(amountA, reserveB, reserveA)
}
