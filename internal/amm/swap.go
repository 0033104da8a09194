package amm

import (
	"context"
	"fmt"

	"github.com/aman-zulfiqar/solana-amm/internal/models"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// SwapRequest sells AmountIn of InputMint for OutputMint.
type SwapRequest struct {
	Trader       solana.PublicKey
	InputMint    solana.PublicKey
	OutputMint   solana.PublicKey
	AmountIn     uint64
	MinAmountOut uint64
}

type SwapResult struct {
	Pool       PoolSnapshot     `json:"pool"`
	InputMint  solana.PublicKey `json:"input_mint"`
	OutputMint solana.PublicKey `json:"output_mint"`
	AmountIn   uint64           `json:"amount_in"`
	AmountOut  uint64           `json:"amount_out"`
	FeeAmount  uint64           `json:"fee_amount"`
}

// SwapQuote is a read-only preview of a swap against current reserves.
type SwapQuote struct {
	Pair           string           `json:"pair"`
	InputMint      solana.PublicKey `json:"input_mint"`
	OutputMint     solana.PublicKey `json:"output_mint"`
	AmountIn       uint64           `json:"amount_in"`
	EffectiveIn    uint64           `json:"effective_in"`
	FeeAmount      uint64           `json:"fee_amount"`
	AmountOut      uint64           `json:"amount_out"`
	ReserveIn      uint64           `json:"reserve_in"`
	ReserveOut     uint64           `json:"reserve_out"`
	FeeBasisPoints uint16           `json:"fee_basis_points"`
	PriceImpact    float64          `json:"price_impact"`
}

// swapPlan is the computed effect of a swap on one ledger state.
type swapPlan struct {
	aToB        bool
	reserveIn   uint64
	reserveOut  uint64
	amountOut   uint64
	effectiveIn uint64
	next        ledgerState
}

func planSwap(cur ledgerState, aToB bool, amountIn uint64, feeBps uint16) (swapPlan, error) {
	plan := swapPlan{aToB: aToB, reserveIn: cur.ReserveA, reserveOut: cur.ReserveB}
	if !aToB {
		plan.reserveIn, plan.reserveOut = cur.ReserveB, cur.ReserveA
	}
	if plan.reserveIn == 0 || plan.reserveOut == 0 {
		return plan, ErrInsufficientLiquidity
	}

	out, effectiveIn, err := SwapOutput(amountIn, plan.reserveIn, plan.reserveOut, feeBps)
	if err != nil {
		return plan, err
	}
	if out == 0 {
		return plan, fmt.Errorf("input %d: %w", amountIn, ErrInsufficientOutputAmount)
	}
	plan.amountOut, plan.effectiveIn = out, effectiveIn

	// The full input, fee included, stays in the pool.
	next := cur
	if aToB {
		next, err = next.credit(amountIn, 0)
		if err == nil {
			next, err = next.debit(0, out)
		}
	} else {
		next, err = next.credit(0, amountIn)
		if err == nil {
			next, err = next.debit(out, 0)
		}
	}
	if err != nil {
		return plan, err
	}
	if next.product().Cmp(cur.product()) < 0 {
		return plan, fmt.Errorf("product decreased from (%d, %d) to (%d, %d): %w",
			cur.ReserveA, cur.ReserveB, next.ReserveA, next.ReserveB, ErrInternalInvariantViolation)
	}
	plan.next = next
	return plan, nil
}

// resolveSwapPool finds the pool for a swap and the trade direction. A pair
// with no deposits resolves to an empty pool, which rejects the trade.
func (e *Engine) resolveSwapPool(inputMint, outputMint solana.PublicKey) (*Pool, Pair, bool, error) {
	pair, flipped, err := NewPair(inputMint, outputMint)
	if err != nil {
		return nil, Pair{}, false, err
	}
	pool, err := e.registry.GetOrCreate(pair)
	if err != nil {
		return nil, pair, false, err
	}
	// Input is MintA unless canonicalization moved it.
	return pool, pair, !flipped, nil
}

// Swap trades against the constant-product curve. The fee is taken from the
// input and left in the pool, so the reserve product never decreases.
func (e *Engine) Swap(ctx context.Context, req SwapRequest) (*SwapResult, error) {
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}
	if req.AmountIn == 0 {
		return nil, ErrZeroAmount
	}
	pool, pair, aToB, err := e.resolveSwapPool(req.InputMint, req.OutputMint)
	if err != nil {
		return nil, e.fail("swap", pair, err)
	}

	pool.mu.Lock()
	defer pool.mu.Unlock()

	cur, err := e.syncLocked(ctx, pool)
	if err != nil {
		return nil, e.fail("swap", pair, err)
	}
	plan, err := planSwap(cur, aToB, req.AmountIn, cfg.FeeBasisPoints)
	if err != nil {
		return nil, e.fail("swap", pair, err)
	}
	if plan.amountOut < req.MinAmountOut {
		return nil, e.fail("swap", pair,
			fmt.Errorf("output %d below minimum %d: %w", plan.amountOut, req.MinAmountOut, ErrSlippageExceeded))
	}

	vaultIn, _ := pool.Vault(req.InputMint)
	vaultOut, _ := pool.Vault(req.OutputMint)
	s := &Settlement{}
	s.transfer(req.Trader, vaultIn, req.InputMint, req.AmountIn)
	s.transfer(vaultOut, req.Trader, req.OutputMint, plan.amountOut)

	if err := e.settleAndCommit(ctx, pool, cur, plan.next, s); err != nil {
		return nil, e.fail("swap", pair, fmt.Errorf("swap: %w", err))
	}

	fee := req.AmountIn - plan.effectiveIn
	snap := pool.snapshotLocked()
	e.logger.WithFields(logrus.Fields{
		"pair":       snap.Pair,
		"trader":     req.Trader.String(),
		"input_mint": req.InputMint.String(),
		"amount_in":  req.AmountIn,
		"amount_out": plan.amountOut,
		"fee":        fee,
	}).Info("swap executed")

	ev := poolEvent(models.EventSwap, req.Trader, snap, cfg.FeeBasisPoints)
	ev.InputMint, ev.OutputMint = req.InputMint.String(), req.OutputMint.String()
	ev.AmountIn, ev.AmountOut, ev.FeeAmount = req.AmountIn, plan.amountOut, fee
	e.record(ctx, ev)

	return &SwapResult{
		Pool:       snap,
		InputMint:  req.InputMint,
		OutputMint: req.OutputMint,
		AmountIn:   req.AmountIn,
		AmountOut:  plan.amountOut,
		FeeAmount:  fee,
	}, nil
}

// QuoteSwap previews a swap without changing any state.
func (e *Engine) QuoteSwap(ctx context.Context, inputMint, outputMint solana.PublicKey, amountIn uint64) (*SwapQuote, error) {
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}
	if amountIn == 0 {
		return nil, ErrZeroAmount
	}
	pool, pair, aToB, err := e.resolveSwapPool(inputMint, outputMint)
	if err != nil {
		return nil, err
	}

	pool.mu.Lock()
	cur, err := e.syncLocked(ctx, pool)
	pool.mu.Unlock()
	if err != nil {
		return nil, err
	}

	plan, err := planSwap(cur, aToB, amountIn, cfg.FeeBasisPoints)
	if err != nil {
		return nil, err
	}
	return &SwapQuote{
		Pair:           pair.String(),
		InputMint:      inputMint,
		OutputMint:     outputMint,
		AmountIn:       amountIn,
		EffectiveIn:    plan.effectiveIn,
		FeeAmount:      amountIn - plan.effectiveIn,
		AmountOut:      plan.amountOut,
		ReserveIn:      plan.reserveIn,
		ReserveOut:     plan.reserveOut,
		FeeBasisPoints: cfg.FeeBasisPoints,
		PriceImpact:    PriceImpact(amountIn, plan.amountOut, plan.reserveIn, plan.reserveOut),
	}, nil
}
