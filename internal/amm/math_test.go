package amm

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		name     string
		amountA  uint64
		reserveA uint64
		reserveB uint64
		want     uint64
		wantErr  error
	}{
		{name: "proportional", amountA: 50, reserveA: 100, reserveB: 400, want: 200},
		{name: "floors", amountA: 1, reserveA: 3, reserveB: 10, want: 3},
		{name: "rounds to zero", amountA: 1, reserveA: 1000, reserveB: 1, want: 0},
		{name: "zero amount", amountA: 0, reserveA: 100, reserveB: 400, wantErr: ErrInsufficientDepositAmount},
		{name: "zero reserve a", amountA: 10, reserveA: 0, reserveB: 400, wantErr: ErrInsufficientLiquidity},
		{name: "zero reserve b", amountA: 10, reserveA: 100, reserveB: 0, wantErr: ErrInsufficientLiquidity},
		{name: "wide product", amountA: math.MaxUint64, reserveA: math.MaxUint64, reserveB: math.MaxUint64, want: math.MaxUint64},
		{name: "result overflow", amountA: math.MaxUint64, reserveA: 1, reserveB: 2, wantErr: ErrArithmeticOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Quote(tt.amountA, tt.reserveA, tt.reserveB)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuote_MatchesFloorDivision(t *testing.T) {
	samples := [][3]uint64{
		{7, 13, 29},
		{1_000_000, 3_333_333, 7_777_777},
		{1 << 40, 1 << 50, 1 << 45},
		{999_999_937, 1_000_000_007, 998_244_353},
	}
	for _, s := range samples {
		got, err := Quote(s[0], s[1], s[2])
		require.NoError(t, err)

		want := new(big.Int).Mul(new(big.Int).SetUint64(s[0]), new(big.Int).SetUint64(s[2]))
		want.Quo(want, new(big.Int).SetUint64(s[1]))
		assert.Equal(t, want.Uint64(), got, "quote(%d, %d, %d)", s[0], s[1], s[2])
	}
}

func TestIsqrt(t *testing.T) {
	assert.Equal(t, uint64(200), isqrt(100, 400))
	assert.Equal(t, uint64(0), isqrt(0, 400))
	assert.Equal(t, uint64(1), isqrt(1, 3))
	assert.Equal(t, uint64(math.MaxUint64), isqrt(math.MaxUint64, math.MaxUint64))
	// floor(sqrt(2 * 1e18)) = 1414213562
	assert.Equal(t, uint64(1414213562), isqrt(2, 1_000_000_000_000_000_000))
}

func TestCheckedArithmetic(t *testing.T) {
	_, err := checkedAdd(math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrArithmeticOverflow)

	_, err = checkedSub(1, 2)
	assert.ErrorIs(t, err, ErrInternalInvariantViolation)

	v, err := checkedAdd(40, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)
}

func TestSwapOutput(t *testing.T) {
	// 30 bps fee: effective = 1000 * 9970 / 10000 = 997
	// out = 997 * 20000 / (10000 + 997) = 1813
	out, eff, err := SwapOutput(1000, 10_000, 20_000, 30)
	require.NoError(t, err)
	assert.Equal(t, uint64(997), eff)
	assert.Equal(t, uint64(1813), out)

	out, eff, err = SwapOutput(1000, 10_000, 20_000, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), eff)
	assert.Equal(t, uint64(1818), out)

	// Full fee leaves nothing to trade.
	out, eff, err = SwapOutput(1000, 10_000, 20_000, 10_000)
	require.NoError(t, err)
	assert.Zero(t, eff)
	assert.Zero(t, out)

	_, _, err = SwapOutput(0, 10, 10, 30)
	assert.ErrorIs(t, err, ErrZeroAmount)

	_, _, err = SwapOutput(10, 0, 10, 30)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, _, err = SwapOutput(10, 10, 10, 10_001)
	assert.ErrorIs(t, err, ErrInvalidFee)
}

func TestSwapOutput_NeverDrainsReserve(t *testing.T) {
	out, _, err := SwapOutput(math.MaxUint64, 1, 1_000_000, 0)
	require.NoError(t, err)
	assert.Less(t, out, uint64(1_000_000))
}

func TestApplySlippage(t *testing.T) {
	assert.Equal(t, uint64(990), ApplySlippage(1000, 100))
	assert.Equal(t, uint64(1000), ApplySlippage(1000, 0))
	assert.Equal(t, uint64(0), ApplySlippage(1000, 10_000))
	assert.Equal(t, uint64(995), ApplySlippage(1000, 50))
}

func TestPriceImpact(t *testing.T) {
	assert.InDelta(t, 0.0, PriceImpact(0, 0, 100, 100), 1e-9)
	// Spot rate 2, execution rate 1.813 -> impact ~9.35%
	assert.InDelta(t, 0.0935, PriceImpact(1000, 1813, 10_000, 20_000), 1e-4)
}
