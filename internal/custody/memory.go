package custody

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/aman-zulfiqar/solana-amm/internal/amm"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// MemoryLedger keeps balances and pool ledgers in process memory. Settle
// validates every leg before applying any of them.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[balanceKey]uint64
	pools    map[amm.Pair]amm.PoolRecord
	logger   *logrus.Logger
}

func NewMemoryLedger(logger *logrus.Logger) *MemoryLedger {
	if logger == nil {
		logger = logrus.New()
	}
	return &MemoryLedger{
		balances: make(map[balanceKey]uint64),
		pools:    make(map[amm.Pair]amm.PoolRecord),
		logger:   logger,
	}
}

func (m *MemoryLedger) Balance(_ context.Context, owner, mint solana.PublicKey) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[balanceKey{Owner: owner, Mint: mint}], nil
}

// Fund credits owner with amount of mint out of thin air. Used for seeding.
func (m *MemoryLedger) Fund(_ context.Context, owner, mint solana.PublicKey, amount uint64) error {
	k := balanceKey{Owner: owner, Mint: mint}
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := applyNet(map[balanceKey]*big.Int{k: new(big.Int).SetUint64(amount)}, m.balances)
	if err != nil {
		return fmt.Errorf("fund: %w", err)
	}
	m.balances[k] = next[k]
	return nil
}

func (m *MemoryLedger) Settle(_ context.Context, s *amm.Settlement) error {
	net, err := netChanges(s)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s.Pool != nil {
		if stored := m.pools[s.Pool.Pair]; stored != s.Pool.Prev {
			return fmt.Errorf("pool %s: %w", s.Pool.Pair, amm.ErrStalePool)
		}
	}
	next, err := applyNet(net, m.balances)
	if err != nil {
		return err
	}
	if s.Pool != nil {
		m.pools[s.Pool.Pair] = s.Pool.Next
	}
	for k, v := range next {
		if v == 0 {
			delete(m.balances, k)
			continue
		}
		m.balances[k] = v
	}

	m.logger.WithFields(logrus.Fields{
		"transfers": len(s.Transfers),
		"mints":     len(s.Mints),
		"burns":     len(s.Burns),
	}).Debug("settlement applied")
	return nil
}

func (m *MemoryLedger) LoadPool(_ context.Context, pair amm.Pair) (amm.PoolRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.pools[pair]
	return rec, ok, nil
}

// PoolPairs lists every pair with a stored ledger, ordered by pair.
func (m *MemoryLedger) PoolPairs(_ context.Context) ([]amm.Pair, error) {
	m.mu.Lock()
	out := make([]amm.Pair, 0, len(m.pools))
	for pair := range m.pools {
		out = append(out, pair)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}
