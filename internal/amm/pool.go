package amm

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
)

// ledgerState is the value part of a pool ledger. Mutators return a new value
// and never touch the receiver, so an operation can stage its whole effect
// and discard it on failure.
type ledgerState struct {
	ReserveA    uint64
	ReserveB    uint64
	ClaimSupply uint64
}

func (s ledgerState) credit(a, b uint64) (ledgerState, error) {
	var err error
	if s.ReserveA, err = checkedAdd(s.ReserveA, a); err != nil {
		return s, fmt.Errorf("credit reserve A: %w", err)
	}
	if s.ReserveB, err = checkedAdd(s.ReserveB, b); err != nil {
		return s, fmt.Errorf("credit reserve B: %w", err)
	}
	return s, nil
}

func (s ledgerState) debit(a, b uint64) (ledgerState, error) {
	var err error
	if s.ReserveA, err = checkedSub(s.ReserveA, a); err != nil {
		return s, fmt.Errorf("debit reserve A: %w", err)
	}
	if s.ReserveB, err = checkedSub(s.ReserveB, b); err != nil {
		return s, fmt.Errorf("debit reserve B: %w", err)
	}
	return s, nil
}

func (s ledgerState) mintClaims(n uint64) (ledgerState, error) {
	var err error
	if s.ClaimSupply, err = checkedAdd(s.ClaimSupply, n); err != nil {
		return s, fmt.Errorf("mint claims: %w", err)
	}
	return s, nil
}

func (s ledgerState) burnClaims(n uint64) (ledgerState, error) {
	var err error
	if s.ClaimSupply, err = checkedSub(s.ClaimSupply, n); err != nil {
		return s, fmt.Errorf("burn claims: %w", err)
	}
	return s, nil
}

// validate checks that the pool is either fully empty or fully funded.
func (s ledgerState) validate() error {
	a, b, c := s.ReserveA > 0, s.ReserveB > 0, s.ClaimSupply > 0
	if a != b || b != c {
		return fmt.Errorf("reserves (%d, %d) with supply %d: %w",
			s.ReserveA, s.ReserveB, s.ClaimSupply, ErrInternalInvariantViolation)
	}
	return nil
}

func (s ledgerState) empty() bool {
	return s.ReserveA == 0 && s.ReserveB == 0 && s.ClaimSupply == 0
}

func (s ledgerState) product() *big.Int {
	return product(s.ReserveA, s.ReserveB)
}

// Pool is the ledger for one asset pair. mu is held by the engine for the
// whole read, plan, settle and commit sequence of an operation.
type Pool struct {
	mu sync.Mutex

	pair      Pair
	vaultA    solana.PublicKey
	vaultB    solana.PublicKey
	claimMint solana.PublicKey

	state     ledgerState
	funded    bool
	updatedAt time.Time
}

// PoolSnapshot is a consistent copy of a pool's public state.
type PoolSnapshot struct {
	Pair        string           `json:"pair"`
	MintA       solana.PublicKey `json:"mint_a"`
	MintB       solana.PublicKey `json:"mint_b"`
	VaultA      solana.PublicKey `json:"vault_a"`
	VaultB      solana.PublicKey `json:"vault_b"`
	ClaimMint   solana.PublicKey `json:"claim_mint"`
	ReserveA    uint64           `json:"reserve_a"`
	ReserveB    uint64           `json:"reserve_b"`
	ClaimSupply uint64           `json:"claim_supply"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (p *Pool) Pair() Pair                  { return p.pair }
func (p *Pool) ClaimMint() solana.PublicKey { return p.claimMint }

// Vault returns the custody account holding the given side of the pair.
func (p *Pool) Vault(mint solana.PublicKey) (solana.PublicKey, bool) {
	switch {
	case mint.Equals(p.pair.MintA):
		return p.vaultA, true
	case mint.Equals(p.pair.MintB):
		return p.vaultB, true
	default:
		return solana.PublicKey{}, false
	}
}

// Reserves returns the current (reserveA, reserveB).
func (p *Pool) Reserves() (uint64, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.ReserveA, p.state.ReserveB
}

// Supply returns the outstanding claim token supply.
func (p *Pool) Supply() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.ClaimSupply
}

func (p *Pool) Snapshot() PoolSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Pool) snapshotLocked() PoolSnapshot {
	return PoolSnapshot{
		Pair:        p.pair.String(),
		MintA:       p.pair.MintA,
		MintB:       p.pair.MintB,
		VaultA:      p.vaultA,
		VaultB:      p.vaultB,
		ClaimMint:   p.claimMint,
		ReserveA:    p.state.ReserveA,
		ReserveB:    p.state.ReserveB,
		ClaimSupply: p.state.ClaimSupply,
		UpdatedAt:   p.updatedAt,
	}
}

// isFunded reports whether the pool ever accepted a deposit.
func (p *Pool) isFunded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.funded
}

// commit replaces the live state. Caller holds mu.
func (p *Pool) commit(next ledgerState, at time.Time) error {
	if err := next.validate(); err != nil {
		return err
	}
	p.state = next
	p.funded = true
	p.updatedAt = at
	return nil
}
