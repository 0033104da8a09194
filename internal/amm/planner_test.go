package amm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanDeposit(t *testing.T) {
	tests := []struct {
		name               string
		reserveA, reserveB uint64
		desiredA, desiredB uint64
		minA, minB         uint64
		wantA, wantB       uint64
		wantErr            error
	}{
		{
			name:     "empty pool accepts desired",
			desiredA: 100, desiredB: 400,
			wantA: 100, wantB: 400,
		},
		{
			name:     "a side binding",
			reserveA: 100, reserveB: 400,
			desiredA: 50, desiredB: 300,
			wantA: 50, wantB: 200,
		},
		{
			name:     "b side binding",
			reserveA: 100, reserveB: 400,
			desiredA: 80, desiredB: 200,
			wantA: 50, wantB: 200,
		},
		{
			name:     "exact ratio",
			reserveA: 100, reserveB: 400,
			desiredA: 25, desiredB: 100,
			minA: 25, minB: 100,
			wantA: 25, wantB: 100,
		},
		{
			name:     "b below minimum",
			reserveA: 100, reserveB: 400,
			desiredA: 50, desiredB: 300,
			minB:    201,
			wantErr: ErrInsufficientAssetBAmount,
		},
		{
			name:     "a below minimum",
			reserveA: 100, reserveB: 400,
			desiredA: 80, desiredB: 200,
			minA:    51,
			wantErr: ErrInsufficientAssetAAmount,
		},
		{
			name:     "zero desired a on funded pool",
			reserveA: 100, reserveB: 400,
			desiredA: 0, desiredB: 200,
			wantErr: ErrInsufficientDepositAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b, err := PlanDeposit(tt.reserveA, tt.reserveB, tt.desiredA, tt.desiredB, tt.minA, tt.minB)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantA, a)
			assert.Equal(t, tt.wantB, b)
		})
	}
}

func TestPlanDeposit_NeverExceedsDesired(t *testing.T) {
	reserves := [][2]uint64{{100, 400}, {7, 3}, {1_000_003, 999_983}, {1, 1 << 40}}
	desired := [][2]uint64{{1, 1}, {50, 300}, {999, 17}, {1 << 20, 1 << 30}}

	for _, r := range reserves {
		for _, d := range desired {
			a, b, err := PlanDeposit(r[0], r[1], d[0], d[1], 0, 0)
			if err != nil {
				continue
			}
			assert.LessOrEqual(t, a, d[0])
			assert.LessOrEqual(t, b, d[1])
		}
	}
}

func TestClaimsForDeposit(t *testing.T) {
	minted, err := claimsForDeposit(ledgerState{}, 100, 400)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), minted)

	s := ledgerState{ReserveA: 100, ReserveB: 400, ClaimSupply: 200}
	minted, err = claimsForDeposit(s, 50, 200)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), minted)

	// Uneven contribution is credited at the smaller side.
	minted, err = claimsForDeposit(s, 50, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), minted)
}

func TestWithdrawalFor(t *testing.T) {
	s := ledgerState{ReserveA: 150, ReserveB: 600, ClaimSupply: 300}

	a, b, err := withdrawalFor(s, 300)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), a)
	assert.Equal(t, uint64(600), b)

	a, b, err = withdrawalFor(s, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), a)
	assert.Equal(t, uint64(2), b)
}
