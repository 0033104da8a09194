package custody

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/aman-zulfiqar/solana-amm/internal/amm"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedger_FundAndBalance(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedger(nil)
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	bal, err := m.Balance(ctx, owner, mint)
	require.NoError(t, err)
	assert.Zero(t, bal)

	require.NoError(t, m.Fund(ctx, owner, mint, 100))
	require.NoError(t, m.Fund(ctx, owner, mint, 50))
	bal, err = m.Balance(ctx, owner, mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), bal)

	err = m.Fund(ctx, owner, mint, math.MaxUint64)
	assert.ErrorIs(t, err, ErrBalanceOverflow)
	bal, _ = m.Balance(ctx, owner, mint)
	assert.Equal(t, uint64(150), bal)
}

func TestMemoryLedger_SettleAllOrNothing(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedger(nil)
	alice := solana.NewWallet().PublicKey()
	vault := solana.NewWallet().PublicKey()
	mintA := solana.NewWallet().PublicKey()
	mintB := solana.NewWallet().PublicKey()
	claim := solana.NewWallet().PublicKey()

	require.NoError(t, m.Fund(ctx, alice, mintA, 100))
	require.NoError(t, m.Fund(ctx, alice, mintB, 10))

	// Second leg cannot be paid, so the first must not land either.
	err := m.Settle(ctx, &amm.Settlement{
		Transfers: []amm.Transfer{
			{From: alice, To: vault, Mint: mintA, Amount: 100},
			{From: alice, To: vault, Mint: mintB, Amount: 11},
		},
		Mints: []amm.ClaimChange{{Owner: alice, ClaimMint: claim, Amount: 5}},
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	for _, c := range []struct {
		owner, mint solana.PublicKey
		want        uint64
	}{
		{alice, mintA, 100},
		{alice, mintB, 10},
		{vault, mintA, 0},
		{alice, claim, 0},
	} {
		got, _ := m.Balance(ctx, c.owner, c.mint)
		assert.Equal(t, c.want, got)
	}

	require.NoError(t, m.Settle(ctx, &amm.Settlement{
		Transfers: []amm.Transfer{
			{From: alice, To: vault, Mint: mintA, Amount: 100},
			{From: alice, To: vault, Mint: mintB, Amount: 10},
		},
		Mints: []amm.ClaimChange{{Owner: alice, ClaimMint: claim, Amount: 5}},
	}))

	got, _ := m.Balance(ctx, vault, mintA)
	assert.Equal(t, uint64(100), got)
	got, _ = m.Balance(ctx, alice, claim)
	assert.Equal(t, uint64(5), got)
	got, _ = m.Balance(ctx, alice, mintA)
	assert.Zero(t, got)
}

func TestMemoryLedger_BurnRequiresBalance(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedger(nil)
	owner := solana.NewWallet().PublicKey()
	claim := solana.NewWallet().PublicKey()
	require.NoError(t, m.Fund(ctx, owner, claim, 3))

	err := m.Settle(ctx, &amm.Settlement{Burns: []amm.ClaimChange{{Owner: owner, ClaimMint: claim, Amount: 4}}})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	require.NoError(t, m.Settle(ctx, &amm.Settlement{Burns: []amm.ClaimChange{{Owner: owner, ClaimMint: claim, Amount: 3}}}))
	got, _ := m.Balance(ctx, owner, claim)
	assert.Zero(t, got)
}

func TestMemoryLedger_NettingWithinSettlement(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedger(nil)
	a := solana.NewWallet().PublicKey()
	b := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	require.NoError(t, m.Fund(ctx, b, mint, 10))

	// a pays b 10 after receiving 10 from b in the same settlement.
	require.NoError(t, m.Settle(ctx, &amm.Settlement{Transfers: []amm.Transfer{
		{From: a, To: b, Mint: mint, Amount: 10},
		{From: b, To: a, Mint: mint, Amount: 10},
	}}))

	assert.ErrorIs(t, m.Settle(ctx, nil), ErrNilSettlement)
}

func TestMemoryLedger_ConcurrentTransfers(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedger(nil)
	mint := solana.NewWallet().PublicKey()
	sink := solana.NewWallet().PublicKey()

	const workers = 10
	const perWorker = 100

	owners := make([]solana.PublicKey, workers)
	for i := range owners {
		owners[i] = solana.NewWallet().PublicKey()
		require.NoError(t, m.Fund(ctx, owners[i], mint, perWorker))
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(owner solana.PublicKey) {
			defer wg.Done()
			for j := 0; j < perWorker+5; j++ {
				_ = m.Settle(ctx, &amm.Settlement{Transfers: []amm.Transfer{{From: owner, To: sink, Mint: mint, Amount: 1}}})
			}
		}(owners[i])
	}
	wg.Wait()

	got, _ := m.Balance(ctx, sink, mint)
	assert.Equal(t, uint64(workers*perWorker), got, fmt.Sprintf("sink should hold exactly %d", workers*perWorker))
}

type fundedCustodian interface {
	amm.Custodian
	Fund(ctx context.Context, owner, mint solana.PublicKey, amount uint64) error
}

// checkPoolCompareAndSet exercises the pool ledger stored alongside balances:
// a settlement only lands when its Prev matches what is stored.
func checkPoolCompareAndSet(t *testing.T, c fundedCustodian) {
	t.Helper()
	ctx := context.Background()
	pair, _, err := amm.NewPair(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	alice := solana.NewWallet().PublicKey()
	vault := solana.NewWallet().PublicKey()
	require.NoError(t, c.Fund(ctx, alice, pair.MintA, 300))

	_, ok, err := c.LoadPool(ctx, pair)
	require.NoError(t, err)
	assert.False(t, ok)

	first := amm.PoolRecord{ReserveA: 100, ReserveB: 0, ClaimSupply: 0}
	require.NoError(t, c.Settle(ctx, &amm.Settlement{
		Transfers: []amm.Transfer{{From: alice, To: vault, Mint: pair.MintA, Amount: 100}},
		Pool:      &amm.PoolUpdate{Pair: pair, Next: first},
	}))
	rec, ok, err := c.LoadPool(ctx, pair)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, first, rec)

	// Prev no longer matches: nothing moves.
	err = c.Settle(ctx, &amm.Settlement{
		Transfers: []amm.Transfer{{From: alice, To: vault, Mint: pair.MintA, Amount: 100}},
		Pool:      &amm.PoolUpdate{Pair: pair, Next: amm.PoolRecord{ReserveA: 200}},
	})
	assert.ErrorIs(t, err, amm.ErrStalePool)
	bal, err := c.Balance(ctx, alice, pair.MintA)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), bal)
	rec, _, err = c.LoadPool(ctx, pair)
	require.NoError(t, err)
	assert.Equal(t, first, rec)

	// A failed balance leg leaves the pool record alone too.
	err = c.Settle(ctx, &amm.Settlement{
		Transfers: []amm.Transfer{{From: alice, To: vault, Mint: pair.MintA, Amount: 1000}},
		Pool:      &amm.PoolUpdate{Pair: pair, Prev: first, Next: amm.PoolRecord{ReserveA: 1100}},
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	rec, _, err = c.LoadPool(ctx, pair)
	require.NoError(t, err)
	assert.Equal(t, first, rec)

	second := amm.PoolRecord{ReserveA: 200}
	require.NoError(t, c.Settle(ctx, &amm.Settlement{
		Transfers: []amm.Transfer{{From: alice, To: vault, Mint: pair.MintA, Amount: 100}},
		Pool:      &amm.PoolUpdate{Pair: pair, Prev: first, Next: second},
	}))
	rec, _, err = c.LoadPool(ctx, pair)
	require.NoError(t, err)
	assert.Equal(t, second, rec)

	pairs, err := c.PoolPairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []amm.Pair{pair}, pairs)
}

func TestMemoryLedger_PoolCompareAndSet(t *testing.T) {
	checkPoolCompareAndSet(t, NewMemoryLedger(nil))
}
