package amm

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aman-zulfiqar/solana-amm/internal/constants"
	"github.com/gagliardetto/solana-go"
)

// Registry maps each canonical pair to its single Pool, creating pools on
// demand. It is the only structure shared across pools and is only held long
// enough to find or insert a pool.
type Registry struct {
	programID solana.PublicKey

	mu    sync.RWMutex
	pools map[Pair]*Pool
}

func NewRegistry(programID solana.PublicKey) *Registry {
	return &Registry{
		programID: programID,
		pools:     make(map[Pair]*Pool),
	}
}

// Lookup returns the pool for pair if one has been created.
func (r *Registry) Lookup(pair Pair) (*Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pools[pair]
	return p, ok
}

// GetOrCreate returns the pool for pair, deriving its addresses on first use.
func (r *Registry) GetOrCreate(pair Pair) (*Pool, error) {
	if p, ok := r.Lookup(pair); ok {
		return p, nil
	}

	addrs, err := DerivePoolAddresses(r.programID, pair)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pools[pair]; ok {
		return p, nil
	}
	p := &Pool{
		pair:      pair,
		vaultA:    addrs.VaultA,
		vaultB:    addrs.VaultB,
		claimMint: addrs.ClaimMint,
	}
	r.pools[pair] = p
	return p, nil
}

// Pools returns every pool that has accepted at least one deposit, ordered by pair.
func (r *Registry) Pools() []*Pool {
	r.mu.RLock()
	all := make([]*Pool, 0, len(r.pools))
	for _, p := range r.pools {
		all = append(all, p)
	}
	r.mu.RUnlock()

	out := all[:0]
	for _, p := range all {
		if p.isFunded() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].pair.String() < out[j].pair.String() })
	return out
}

// PoolAddresses are the program-derived accounts backing one pool.
type PoolAddresses struct {
	VaultA    solana.PublicKey
	VaultB    solana.PublicKey
	ClaimMint solana.PublicKey
}

// DerivePoolAddresses derives the vaults and claim mint for a canonical pair.
// Vault A uses seeds [pool, A, B]; vault B uses [pool, B, A].
func DerivePoolAddresses(programID solana.PublicKey, pair Pair) (PoolAddresses, error) {
	a, b := pair.MintA.Bytes(), pair.MintB.Bytes()

	vaultA, _, err := solana.FindProgramAddress([][]byte{[]byte(constants.SeedPool), a, b}, programID)
	if err != nil {
		return PoolAddresses{}, fmt.Errorf("derive vault A: %w", err)
	}
	vaultB, _, err := solana.FindProgramAddress([][]byte{[]byte(constants.SeedPool), b, a}, programID)
	if err != nil {
		return PoolAddresses{}, fmt.Errorf("derive vault B: %w", err)
	}
	claimMint, _, err := solana.FindProgramAddress([][]byte{[]byte(constants.SeedLiquidityToken), a, b}, programID)
	if err != nil {
		return PoolAddresses{}, fmt.Errorf("derive claim mint: %w", err)
	}

	return PoolAddresses{VaultA: vaultA, VaultB: vaultB, ClaimMint: claimMint}, nil
}

// DeriveConfigAddress derives the account holding the global configuration.
func DeriveConfigAddress(programID solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte(constants.SeedAMMState)}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive config address: %w", err)
	}
	return addr, nil
}
