package amm

import (
	"context"

	"github.com/aman-zulfiqar/solana-amm/internal/models"
	"github.com/gagliardetto/solana-go"
)

// Transfer moves Amount of Mint from one account owner to another.
type Transfer struct {
	From   solana.PublicKey
	To     solana.PublicKey
	Mint   solana.PublicKey
	Amount uint64
}

// ClaimChange mints or burns claim tokens for Owner.
type ClaimChange struct {
	Owner     solana.PublicKey
	ClaimMint solana.PublicKey
	Amount    uint64
}

// PoolRecord is the durable form of one pool's ledger.
type PoolRecord struct {
	ReserveA    uint64
	ReserveB    uint64
	ClaimSupply uint64
}

// PoolUpdate moves the stored ledger of Pair from Prev to Next. A missing
// record counts as the zero PoolRecord.
type PoolUpdate struct {
	Pair Pair
	Prev PoolRecord
	Next PoolRecord
}

// Settlement is every external balance change produced by one operation,
// together with the pool ledger change it pays for.
type Settlement struct {
	Transfers []Transfer
	Mints     []ClaimChange
	Burns     []ClaimChange
	Pool      *PoolUpdate
}

func (s *Settlement) transfer(from, to, mint solana.PublicKey, amount uint64) {
	if amount == 0 {
		return
	}
	s.Transfers = append(s.Transfers, Transfer{From: from, To: to, Mint: mint, Amount: amount})
}

// Custodian holds asset and claim token balances and the pool ledgers they
// back. Settle must apply every leg and the pool update or none of them, and
// must fail with ErrStalePool when the stored ledger is not Pool.Prev.
type Custodian interface {
	Balance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error)
	Settle(ctx context.Context, s *Settlement) error

	// LoadPool returns the stored ledger for pair; ok is false if none was ever written.
	LoadPool(ctx context.Context, pair Pair) (rec PoolRecord, ok bool, err error)
	// PoolPairs lists every pair with a stored ledger.
	PoolPairs(ctx context.Context) ([]Pair, error)
}

// Recorder receives an event after each committed operation. Failures are
// logged and do not affect the operation.
type Recorder interface {
	Record(ctx context.Context, ev *models.PoolEvent) error
}
