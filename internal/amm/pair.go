package amm

import (
	"bytes"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Pair is an unordered asset pair in canonical form: MintA sorts before MintB
// by raw key bytes, so both orderings of the same two mints map to one pool.
type Pair struct {
	MintA solana.PublicKey
	MintB solana.PublicKey
}

// NewPair canonicalizes (x, y). flipped is true when x became MintB.
func NewPair(x, y solana.PublicKey) (pair Pair, flipped bool, err error) {
	if x.IsZero() || y.IsZero() {
		return Pair{}, false, fmt.Errorf("zero mint: %w", ErrInvalidPair)
	}
	switch bytes.Compare(x.Bytes(), y.Bytes()) {
	case 0:
		return Pair{}, false, fmt.Errorf("mints must differ: %w", ErrInvalidPair)
	case 1:
		return Pair{MintA: y, MintB: x}, true, nil
	default:
		return Pair{MintA: x, MintB: y}, false, nil
	}
}

func (p Pair) String() string {
	return p.MintA.String() + "/" + p.MintB.String()
}

// Has reports whether mint is one of the pair's assets.
func (p Pair) Has(mint solana.PublicKey) bool {
	return mint.Equals(p.MintA) || mint.Equals(p.MintB)
}

// orient swaps (a, b) when the caller's order was flipped during canonicalization.
func orient(flipped bool, a, b uint64) (uint64, uint64) {
	if flipped {
		return b, a
	}
	return a, b
}
