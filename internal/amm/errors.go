package amm

import "errors"

// User input errors. These are returned unchanged (possibly wrapped) to the
// caller and never leave a pool modified.
var (
	ErrInsufficientDepositAmount = errors.New("insufficient amount to deposit")
	ErrInsufficientLiquidity     = errors.New("insufficient liquidity")
	ErrInsufficientAssetAAmount  = errors.New("insufficient token A amount")
	ErrInsufficientAssetBAmount  = errors.New("insufficient token B amount")
	ErrMintAmountTooSmall        = errors.New("mint amount too small")
	ErrInsufficientClaimBalance  = errors.New("insufficient claim token balance")
	ErrZeroReturnAmount          = errors.New("withdrawal returns zero assets")
	ErrSlippageExceeded          = errors.New("slippage exceeded")
	ErrInsufficientOutputAmount  = errors.New("swap output rounds to zero")
	ErrZeroAmount                = errors.New("amount must be greater than zero")
	ErrInvalidPair               = errors.New("invalid asset pair")
	ErrPoolNotFound              = errors.New("pool not found")
)

// Configuration lifecycle errors.
var (
	ErrAlreadyInitialized = errors.New("amm already initialized")
	ErrNotInitialized     = errors.New("amm not initialized")
	ErrInvalidFee         = errors.New("fee basis points out of range")
	ErrInvalidAuthority   = errors.New("invalid authority")
)

// ErrStalePool is returned by a Custodian when a pool ledger changed between
// the engine reading it and settling against it, e.g. from another process.
// Nothing is applied; the caller may retry.
var ErrStalePool = errors.New("pool ledger changed concurrently")

// Protocol faults. An operation that hits one of these is aborted before any
// state is committed.
var (
	ErrArithmeticOverflow         = errors.New("arithmetic overflow")
	ErrInternalInvariantViolation = errors.New("internal invariant violation")
)

// IsFault reports whether err is a protocol fault rather than a caller mistake.
func IsFault(err error) bool {
	return errors.Is(err, ErrArithmeticOverflow) || errors.Is(err, ErrInternalInvariantViolation)
}

// IsUserError reports whether err is a recoverable input error.
func IsUserError(err error) bool {
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var userErrors = []error{
	ErrInsufficientDepositAmount,
	ErrInsufficientLiquidity,
	ErrInsufficientAssetAAmount,
	ErrInsufficientAssetBAmount,
	ErrMintAmountTooSmall,
	ErrInsufficientClaimBalance,
	ErrZeroReturnAmount,
	ErrSlippageExceeded,
	ErrInsufficientOutputAmount,
	ErrZeroAmount,
	ErrInvalidPair,
	ErrInvalidFee,
	ErrInvalidAuthority,
}
