package server

import "github.com/aman-zulfiqar/solana-amm/internal/amm"

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK          bool `json:"ok"`          // Service health status
	Initialized bool `json:"initialized"` // Whether the AMM config exists
}

// InitializeRequest creates the global AMM configuration
type InitializeRequest struct {
	Authority      string `json:"authority"`        // Base58 authority public key
	FeeBasisPoints uint16 `json:"fee_basis_points"` // Swap fee, 0..10000
}

// AddLiquidityRequest deposits a pair of assets into a pool
type AddLiquidityRequest struct {
	Provider string `json:"provider"` // Depositor account
	MintA    string `json:"mint_a"`   // First asset mint (any order)
	MintB    string `json:"mint_b"`   // Second asset mint
	DesiredA uint64 `json:"desired_a"`
	DesiredB uint64 `json:"desired_b"`
	MinA     uint64 `json:"min_a"`
	MinB     uint64 `json:"min_b"`
}

// RemoveLiquidityRequest redeems claim tokens
type RemoveLiquidityRequest struct {
	Owner       string `json:"owner"`
	MintA       string `json:"mint_a"`
	MintB       string `json:"mint_b"`
	ClaimAmount uint64 `json:"claim_amount"`
}

// SwapRequest sells an exact input amount
type SwapRequest struct {
	Trader       string `json:"trader"`
	InputMint    string `json:"input_mint"`
	OutputMint   string `json:"output_mint"`
	AmountIn     uint64 `json:"amount_in"`
	MinAmountOut uint64 `json:"min_amount_out"`
}

// SwapQuoteResponse wraps a quote with a slippage-adjusted minimum
type SwapQuoteResponse struct {
	Quote        *amm.SwapQuote `json:"quote"`
	SlippageBps  uint16         `json:"slippage_bps"`
	MinAmountOut uint64         `json:"min_amount_out"` // Pass as min_amount_out to /v1/swap
}

// BalanceResponse reports one custody balance
type BalanceResponse struct {
	Owner   string `json:"owner"`
	Mint    string `json:"mint"`
	Symbol  string `json:"symbol"`
	Balance uint64 `json:"balance"`
}

// FaucetRequest credits test funds (dev mode only)
type FaucetRequest struct {
	Owner  string `json:"owner"`
	Mint   string `json:"mint"`
	Amount uint64 `json:"amount"`
}
