package amm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aman-zulfiqar/solana-amm/internal/models"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EngineConfig holds the collaborators of an Engine.
type EngineConfig struct {
	ProgramID solana.PublicKey
	Custody   Custodian
	Recorder  Recorder // optional
	Logger    *logrus.Logger
	Now       func() time.Time

	// RecordTimeout bounds each Recorder call, which runs under the pool lock.
	RecordTimeout time.Duration
}

const defaultRecordTimeout = 2 * time.Second

// Engine is the entry point for every AMM operation. Each operation locks
// exactly one pool; operations on different pools never contend.
type Engine struct {
	programID solana.PublicKey
	custody   Custodian
	recorder  Recorder
	logger    *logrus.Logger
	now       func() time.Time
	registry  *Registry

	recordTimeout time.Duration

	cfgMu sync.RWMutex
	cfg   *GlobalConfig
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Custody == nil {
		return nil, errors.New("amm: custody is required")
	}
	if cfg.ProgramID.IsZero() {
		return nil, errors.New("amm: program id is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = defaultRecordTimeout
	}
	return &Engine{
		programID: cfg.ProgramID,
		custody:   cfg.Custody,
		recorder:  cfg.Recorder,
		logger:    cfg.Logger,
		now:       cfg.Now,
		registry:  NewRegistry(cfg.ProgramID),

		recordTimeout: cfg.RecordTimeout,
	}, nil
}

// Initialize creates the global configuration. It succeeds once per engine.
func (e *Engine) Initialize(ctx context.Context, authority solana.PublicKey, feeBps uint16) (GlobalConfig, error) {
	e.cfgMu.Lock()
	if e.cfg != nil {
		e.cfgMu.Unlock()
		return GlobalConfig{}, ErrAlreadyInitialized
	}
	cfg, err := NewGlobalConfig(e.programID, authority, feeBps)
	if err != nil {
		e.cfgMu.Unlock()
		return GlobalConfig{}, err
	}
	e.cfg = cfg
	e.cfgMu.Unlock()

	e.logger.WithFields(logrus.Fields{
		"authority": cfg.Authority.String(),
		"fee_bps":   cfg.FeeBasisPoints,
		"address":   cfg.Address.String(),
	}).Info("amm initialized")

	e.record(ctx, &models.PoolEvent{
		Kind:           models.EventInitialize,
		Actor:          cfg.Authority.String(),
		FeeBasisPoints: cfg.FeeBasisPoints,
	})

	return *cfg, nil
}

// Config returns the global configuration, or ErrNotInitialized.
func (e *Engine) Config() (GlobalConfig, error) {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	if e.cfg == nil {
		return GlobalConfig{}, ErrNotInitialized
	}
	return *e.cfg, nil
}

// Pool returns a snapshot of the pool for the given mints in either order.
func (e *Engine) Pool(mintX, mintY solana.PublicKey) (PoolSnapshot, error) {
	pair, _, err := NewPair(mintX, mintY)
	if err != nil {
		return PoolSnapshot{}, err
	}
	p, ok := e.registry.Lookup(pair)
	if !ok || !p.isFunded() {
		return PoolSnapshot{}, ErrPoolNotFound
	}
	return p.Snapshot(), nil
}

// Pools returns snapshots of every pool that has ever been funded.
func (e *Engine) Pools() []PoolSnapshot {
	pools := e.registry.Pools()
	out := make([]PoolSnapshot, 0, len(pools))
	for _, p := range pools {
		out = append(out, p.Snapshot())
	}
	return out
}

// Registry exposes pair addressing for callers that need vault or claim mint addresses.
func (e *Engine) Registry() *Registry { return e.registry }

// Restore loads every pool ledger held by custody into the registry. It is
// meant to run once at startup, before requests are served.
func (e *Engine) Restore(ctx context.Context) (int, error) {
	pairs, err := e.custody.PoolPairs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pools: %w", err)
	}
	for _, pair := range pairs {
		p, err := e.registry.GetOrCreate(pair)
		if err != nil {
			return 0, err
		}
		p.mu.Lock()
		_, err = e.syncLocked(ctx, p)
		p.mu.Unlock()
		if err != nil {
			return 0, err
		}
	}
	if len(pairs) > 0 {
		e.logger.WithField("pools", len(pairs)).Info("pool ledgers restored")
	}
	return len(pairs), nil
}

// syncLocked replaces the cached pool state with the ledger stored in
// custody and returns it. Caller holds p.mu.
func (e *Engine) syncLocked(ctx context.Context, p *Pool) (ledgerState, error) {
	rec, ok, err := e.custody.LoadPool(ctx, p.pair)
	if err != nil {
		return ledgerState{}, fmt.Errorf("load pool %s: %w", p.pair, err)
	}
	if !ok {
		p.state = ledgerState{}
		return p.state, nil
	}
	next := ledgerState(rec)
	if err := next.validate(); err != nil {
		return ledgerState{}, fmt.Errorf("stored pool %s: %w", p.pair, err)
	}
	p.state = next
	p.funded = true
	return next, nil
}

// settleAndCommit runs custody settlement, including the compare-and-set of
// the stored ledger from cur to next, and only if it succeeds replaces the
// pool state. Caller holds p.mu.
func (e *Engine) settleAndCommit(ctx context.Context, p *Pool, cur, next ledgerState, s *Settlement) error {
	if err := next.validate(); err != nil {
		return err
	}
	s.Pool = &PoolUpdate{Pair: p.pair, Prev: PoolRecord(cur), Next: PoolRecord(next)}
	if err := e.custody.Settle(ctx, s); err != nil {
		return fmt.Errorf("settle: %w", err)
	}
	return p.commit(next, e.now())
}

func (e *Engine) record(ctx context.Context, ev *models.PoolEvent) {
	if e.recorder == nil {
		return
	}
	ev.ID = uuid.NewString()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = e.now()
	}
	// Runs under the pool lock: detached from request cancellation, bounded
	// by recordTimeout.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.recordTimeout)
	defer cancel()
	if err := e.recorder.Record(rctx, ev); err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"kind": ev.Kind,
			"pair": ev.Pair,
		}).Warn("failed to record pool event")
	}
}

// fail logs a rejected operation at a level matching its class and returns err.
func (e *Engine) fail(op string, pair Pair, err error) error {
	entry := e.logger.WithError(err).WithFields(logrus.Fields{
		"op":   op,
		"pair": pair.String(),
	})
	if IsFault(err) {
		entry.Error("operation aborted by protocol fault")
	} else {
		entry.Debug("operation rejected")
	}
	return err
}

func poolEvent(kind models.PoolEventKind, actor solana.PublicKey, snap PoolSnapshot, feeBps uint16) *models.PoolEvent {
	return &models.PoolEvent{
		Kind:           kind,
		Timestamp:      snap.UpdatedAt,
		Actor:          actor.String(),
		Pair:           snap.Pair,
		MintA:          snap.MintA.String(),
		MintB:          snap.MintB.String(),
		ClaimMint:      snap.ClaimMint.String(),
		ReserveA:       snap.ReserveA,
		ReserveB:       snap.ReserveB,
		ClaimSupply:    snap.ClaimSupply,
		FeeBasisPoints: feeBps,
	}
}
