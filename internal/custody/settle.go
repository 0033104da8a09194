package custody

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/aman-zulfiqar/solana-amm/internal/amm"
	"github.com/gagliardetto/solana-go"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceOverflow   = errors.New("balance overflow")
	ErrNilSettlement     = errors.New("settlement is nil")
)

type balanceKey struct {
	Owner solana.PublicKey
	Mint  solana.PublicKey
}

func (k balanceKey) String() string {
	return k.Owner.String() + ":" + k.Mint.String()
}

// netChanges folds every leg of a settlement into one signed delta per balance.
func netChanges(s *amm.Settlement) (map[balanceKey]*big.Int, error) {
	if s == nil {
		return nil, ErrNilSettlement
	}
	net := make(map[balanceKey]*big.Int)
	add := func(owner, mint solana.PublicKey, amount uint64, sign int) {
		k := balanceKey{Owner: owner, Mint: mint}
		d, ok := net[k]
		if !ok {
			d = new(big.Int)
			net[k] = d
		}
		v := new(big.Int).SetUint64(amount)
		if sign < 0 {
			d.Sub(d, v)
		} else {
			d.Add(d, v)
		}
	}

	for _, t := range s.Transfers {
		if t.Amount == 0 || t.From.Equals(t.To) {
			continue
		}
		add(t.From, t.Mint, t.Amount, -1)
		add(t.To, t.Mint, t.Amount, 1)
	}
	for _, m := range s.Mints {
		add(m.Owner, m.ClaimMint, m.Amount, 1)
	}
	for _, b := range s.Burns {
		add(b.Owner, b.ClaimMint, b.Amount, -1)
	}
	return net, nil
}

// applyNet computes the resulting balances. Nothing is returned unless every
// balance stays within [0, 2^64).
func applyNet(net map[balanceKey]*big.Int, current map[balanceKey]uint64) (map[balanceKey]uint64, error) {
	out := make(map[balanceKey]uint64, len(net))
	for _, k := range sortedKeys(net) {
		nb := new(big.Int).SetUint64(current[k])
		nb.Add(nb, net[k])
		if nb.Sign() < 0 {
			return nil, fmt.Errorf("%s has %d, needs %s more: %w",
				k, current[k], new(big.Int).Neg(nb).String(), ErrInsufficientFunds)
		}
		if !nb.IsUint64() {
			return nil, fmt.Errorf("%s: %w", k, ErrBalanceOverflow)
		}
		out[k] = nb.Uint64()
	}
	return out, nil
}

func sortedKeys(net map[balanceKey]*big.Int) []balanceKey {
	keys := make([]balanceKey, 0, len(net))
	for k := range net {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
