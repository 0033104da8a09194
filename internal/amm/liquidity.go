package amm

import (
	"context"
	"fmt"

	"github.com/aman-zulfiqar/solana-amm/internal/models"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// AddLiquidityRequest deposits into the pool for (MintA, MintB). The mints may
// be given in either order; amounts follow the order given.
type AddLiquidityRequest struct {
	Provider solana.PublicKey
	MintA    solana.PublicKey
	MintB    solana.PublicKey
	DesiredA uint64
	DesiredB uint64
	MinA     uint64
	MinB     uint64
}

// AddLiquidityResult reports accepted amounts in the request's mint order.
type AddLiquidityResult struct {
	Pool    PoolSnapshot `json:"pool"`
	AmountA uint64       `json:"amount_a"`
	AmountB uint64       `json:"amount_b"`
	Minted  uint64       `json:"minted"`
}

// RemoveLiquidityRequest redeems ClaimAmount claim tokens of the (MintA, MintB) pool.
type RemoveLiquidityRequest struct {
	Owner       solana.PublicKey
	MintA       solana.PublicKey
	MintB       solana.PublicKey
	ClaimAmount uint64
}

// RemoveLiquidityResult reports returned amounts in the request's mint order.
type RemoveLiquidityResult struct {
	Pool    PoolSnapshot `json:"pool"`
	AmountA uint64       `json:"amount_a"`
	AmountB uint64       `json:"amount_b"`
	Burned  uint64       `json:"burned"`
}

// AddLiquidity plans the deposit against current reserves, mints claim tokens
// proportional to the contribution and settles both transfers and the mint
// atomically before the pool state changes.
func (e *Engine) AddLiquidity(ctx context.Context, req AddLiquidityRequest) (*AddLiquidityResult, error) {
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}
	pair, flipped, err := NewPair(req.MintA, req.MintB)
	if err != nil {
		return nil, err
	}
	desiredA, desiredB := orient(flipped, req.DesiredA, req.DesiredB)
	minA, minB := orient(flipped, req.MinA, req.MinB)

	pool, err := e.registry.GetOrCreate(pair)
	if err != nil {
		return nil, e.fail("add_liquidity", pair, err)
	}

	pool.mu.Lock()
	defer pool.mu.Unlock()

	cur, err := e.syncLocked(ctx, pool)
	if err != nil {
		return nil, e.fail("add_liquidity", pair, err)
	}
	amountA, amountB, err := PlanDeposit(cur.ReserveA, cur.ReserveB, desiredA, desiredB, minA, minB)
	if err != nil {
		return nil, e.fail("add_liquidity", pair, err)
	}

	minted, err := claimsForDeposit(cur, amountA, amountB)
	if err != nil {
		return nil, e.fail("add_liquidity", pair, err)
	}
	if minted == 0 {
		return nil, e.fail("add_liquidity", pair,
			fmt.Errorf("deposit (%d, %d): %w", amountA, amountB, ErrMintAmountTooSmall))
	}

	next, err := cur.credit(amountA, amountB)
	if err == nil {
		next, err = next.mintClaims(minted)
	}
	if err != nil {
		return nil, e.fail("add_liquidity", pair, err)
	}

	s := &Settlement{}
	s.transfer(req.Provider, pool.vaultA, pair.MintA, amountA)
	s.transfer(req.Provider, pool.vaultB, pair.MintB, amountB)
	s.Mints = append(s.Mints, ClaimChange{Owner: req.Provider, ClaimMint: pool.claimMint, Amount: minted})

	if err := e.settleAndCommit(ctx, pool, cur, next, s); err != nil {
		return nil, e.fail("add_liquidity", pair, fmt.Errorf("add liquidity: %w", err))
	}

	snap := pool.snapshotLocked()
	e.logger.WithFields(logrus.Fields{
		"pair":     snap.Pair,
		"provider": req.Provider.String(),
		"amount_a": amountA,
		"amount_b": amountB,
		"minted":   minted,
		"supply":   snap.ClaimSupply,
	}).Info("liquidity added")

	ev := poolEvent(models.EventAddLiquidity, req.Provider, snap, cfg.FeeBasisPoints)
	ev.AmountA, ev.AmountB, ev.ClaimAmount = amountA, amountB, minted
	e.record(ctx, ev)

	outA, outB := orient(flipped, amountA, amountB)
	return &AddLiquidityResult{Pool: snap, AmountA: outA, AmountB: outB, Minted: minted}, nil
}

// RemoveLiquidity burns claim tokens and returns the proportional share of
// both reserves. Rounding remainders stay in the pool.
func (e *Engine) RemoveLiquidity(ctx context.Context, req RemoveLiquidityRequest) (*RemoveLiquidityResult, error) {
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}
	if req.ClaimAmount == 0 {
		return nil, ErrZeroAmount
	}
	pair, flipped, err := NewPair(req.MintA, req.MintB)
	if err != nil {
		return nil, err
	}

	pool, err := e.registry.GetOrCreate(pair)
	if err != nil {
		return nil, e.fail("remove_liquidity", pair, err)
	}

	pool.mu.Lock()
	defer pool.mu.Unlock()

	cur, err := e.syncLocked(ctx, pool)
	if err != nil {
		return nil, e.fail("remove_liquidity", pair, err)
	}
	if cur.empty() {
		return nil, e.fail("remove_liquidity", pair, fmt.Errorf("empty pool: %w", ErrInsufficientClaimBalance))
	}

	balance, err := e.custody.Balance(ctx, req.Owner, pool.claimMint)
	if err != nil {
		return nil, e.fail("remove_liquidity", pair, fmt.Errorf("claim balance: %w", err))
	}
	if balance < req.ClaimAmount {
		return nil, e.fail("remove_liquidity", pair,
			fmt.Errorf("holds %d, redeeming %d: %w", balance, req.ClaimAmount, ErrInsufficientClaimBalance))
	}

	if req.ClaimAmount > cur.ClaimSupply {
		return nil, e.fail("remove_liquidity", pair,
			fmt.Errorf("claim %d exceeds supply %d: %w", req.ClaimAmount, cur.ClaimSupply, ErrInternalInvariantViolation))
	}

	amountA, amountB, err := withdrawalFor(cur, req.ClaimAmount)
	if err != nil {
		return nil, e.fail("remove_liquidity", pair, err)
	}
	if amountA == 0 && amountB == 0 {
		return nil, e.fail("remove_liquidity", pair,
			fmt.Errorf("claim %d: %w", req.ClaimAmount, ErrZeroReturnAmount))
	}

	next, err := cur.burnClaims(req.ClaimAmount)
	if err == nil {
		next, err = next.debit(amountA, amountB)
	}
	if err != nil {
		return nil, e.fail("remove_liquidity", pair, err)
	}

	s := &Settlement{}
	s.Burns = append(s.Burns, ClaimChange{Owner: req.Owner, ClaimMint: pool.claimMint, Amount: req.ClaimAmount})
	s.transfer(pool.vaultA, req.Owner, pair.MintA, amountA)
	s.transfer(pool.vaultB, req.Owner, pair.MintB, amountB)

	if err := e.settleAndCommit(ctx, pool, cur, next, s); err != nil {
		return nil, e.fail("remove_liquidity", pair, fmt.Errorf("remove liquidity: %w", err))
	}

	snap := pool.snapshotLocked()
	e.logger.WithFields(logrus.Fields{
		"pair":     snap.Pair,
		"owner":    req.Owner.String(),
		"amount_a": amountA,
		"amount_b": amountB,
		"burned":   req.ClaimAmount,
		"supply":   snap.ClaimSupply,
	}).Info("liquidity removed")

	ev := poolEvent(models.EventRemoveLiquidity, req.Owner, snap, cfg.FeeBasisPoints)
	ev.AmountA, ev.AmountB, ev.ClaimAmount = amountA, amountB, req.ClaimAmount
	e.record(ctx, ev)

	outA, outB := orient(flipped, amountA, amountB)
	return &RemoveLiquidityResult{Pool: snap, AmountA: outA, AmountB: outB, Burned: req.ClaimAmount}, nil
}
