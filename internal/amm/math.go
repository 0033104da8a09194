package amm

import (
	"fmt"
	"math"
	"math/big"
	"math/bits"

	"github.com/aman-zulfiqar/solana-amm/internal/constants"
)

// mulDiv returns floor(a*b/d). The product is computed in arbitrary precision
// and only the quotient is narrowed back to 64 bits.
func mulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, fmt.Errorf("mulDiv by zero: %w", ErrInternalInvariantViolation)
	}
	n := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	n.Quo(n, new(big.Int).SetUint64(d))
	if !n.IsUint64() {
		return 0, fmt.Errorf("%d*%d/%d: %w", a, b, d, ErrArithmeticOverflow)
	}
	return n.Uint64(), nil
}

// isqrt returns floor(sqrt(a*b)). The result always fits in 64 bits.
func isqrt(a, b uint64) uint64 {
	n := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	return n.Sqrt(n).Uint64()
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%d+%d: %w", a, b, ErrArithmeticOverflow)
	}
	return sum, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, fmt.Errorf("%d-%d underflows: %w", a, b, ErrInternalInvariantViolation)
	}
	return diff, nil
}

func product(a, b uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
}

// SwapOutput computes the constant-product output for amountIn sold into a pool
// holding reserveIn/reserveOut, with feeBps retained by the pool.
// Returns (amountOut, effectiveIn, error).
func SwapOutput(amountIn, reserveIn, reserveOut uint64, feeBps uint16) (uint64, uint64, error) {
	if amountIn == 0 {
		return 0, 0, ErrZeroAmount
	}
	if reserveIn == 0 || reserveOut == 0 {
		return 0, 0, ErrInsufficientLiquidity
	}
	if feeBps > constants.MaxFeeBasisPoints {
		return 0, 0, ErrInvalidFee
	}

	// effectiveIn = amountIn * (10000 - fee) / 10000
	effectiveIn, err := mulDiv(amountIn, uint64(constants.BasisPointsDenominator-feeBps), constants.BasisPointsDenominator)
	if err != nil {
		return 0, 0, err
	}

	// out = effectiveIn * reserveOut / (reserveIn + effectiveIn)
	numerator := new(big.Int).Mul(new(big.Int).SetUint64(effectiveIn), new(big.Int).SetUint64(reserveOut))
	denominator := new(big.Int).Add(new(big.Int).SetUint64(reserveIn), new(big.Int).SetUint64(effectiveIn))
	out := numerator.Quo(numerator, denominator)
	if !out.IsUint64() {
		return 0, 0, fmt.Errorf("swap output: %w", ErrArithmeticOverflow)
	}

	return out.Uint64(), effectiveIn, nil
}

// PriceImpact returns how far the execution rate falls short of the spot rate,
// as a fraction in [0, 1]. Informational only; never used for settlement.
func PriceImpact(amountIn, amountOut, reserveIn, reserveOut uint64) float64 {
	if amountIn == 0 || reserveIn == 0 {
		return 0
	}
	spotRate := float64(reserveOut) / float64(reserveIn)
	executionRate := float64(amountOut) / float64(amountIn)
	if spotRate <= 0 {
		return 0
	}
	return math.Max(0, 1-(executionRate/spotRate))
}

// ApplySlippage calculates minimum output with slippage tolerance
// slippageBps: basis points (e.g., 100 = 1%, 50 = 0.5%)
func ApplySlippage(amountOut uint64, slippageBps uint16) uint64 {
	if slippageBps >= constants.BasisPointsDenominator {
		return 0
	}
	// Cannot overflow: the factor is below the denominator.
	minOut, _ := mulDiv(amountOut, uint64(constants.BasisPointsDenominator-slippageBps), constants.BasisPointsDenominator)
	return minOut
}
