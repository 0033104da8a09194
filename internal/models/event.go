package models

import "time"

type PoolEventKind string

const (
	EventInitialize      PoolEventKind = "initialize"
	EventAddLiquidity    PoolEventKind = "add_liquidity"
	EventRemoveLiquidity PoolEventKind = "remove_liquidity"
	EventSwap            PoolEventKind = "swap"
)

// PoolEvent describes one committed AMM operation and the pool state it left behind.
type PoolEvent struct {
	ID        string        `json:"id"`
	Kind      PoolEventKind `json:"kind"`
	Timestamp time.Time     `json:"timestamp"`
	Actor     string        `json:"actor"`

	Pair      string `json:"pair,omitempty"`
	MintA     string `json:"mint_a,omitempty"`
	MintB     string `json:"mint_b,omitempty"`
	ClaimMint string `json:"claim_mint,omitempty"`

	// Liquidity legs, in canonical pair order.
	AmountA     uint64 `json:"amount_a,omitempty"`
	AmountB     uint64 `json:"amount_b,omitempty"`
	ClaimAmount uint64 `json:"claim_amount,omitempty"`

	// Swap legs.
	InputMint  string `json:"input_mint,omitempty"`
	OutputMint string `json:"output_mint,omitempty"`
	AmountIn   uint64 `json:"amount_in,omitempty"`
	AmountOut  uint64 `json:"amount_out,omitempty"`
	FeeAmount  uint64 `json:"fee_amount,omitempty"`

	// Pool state after the operation.
	ReserveA    uint64 `json:"reserve_a"`
	ReserveB    uint64 `json:"reserve_b"`
	ClaimSupply uint64 `json:"claim_supply"`

	FeeBasisPoints uint16 `json:"fee_basis_points"`
}
