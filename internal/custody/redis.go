package custody

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/aman-zulfiqar/solana-amm/internal/amm"
	"github.com/aman-zulfiqar/solana-amm/internal/constants"
	"github.com/gagliardetto/solana-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrSettleContention is returned when optimistic settlement keeps losing races.
var ErrSettleContention = errors.New("settlement retries exhausted")

type RedisLedgerConfig struct {
	Client     *redis.Client
	MaxRetries int
	Logger     *logrus.Logger
}

// RedisLedger stores balances as decimal strings under
// custody:balance:<owner>:<mint> and each pool ledger as a hash under
// custody:pool:<mintA>:<mintB>. Settlements run as WATCH/MULTI/EXEC
// transactions over every touched key, so a pool's ledger and its vault
// balances always move together.
type RedisLedger struct {
	client     *redis.Client
	maxRetries int
	logger     *logrus.Logger
}

func NewRedisLedger(cfg RedisLedgerConfig) (*RedisLedger, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = constants.DefaultSettleRetries
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &RedisLedger{client: cfg.Client, maxRetries: cfg.MaxRetries, logger: cfg.Logger}, nil
}

func (r *RedisLedger) Balance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error) {
	return readBalance(ctx, r.client, balanceKey{Owner: owner, Mint: mint})
}

func (r *RedisLedger) Fund(ctx context.Context, owner, mint solana.PublicKey, amount uint64) error {
	k := balanceKey{Owner: owner, Mint: mint}
	if err := r.apply(ctx, map[balanceKey]*big.Int{k: new(big.Int).SetUint64(amount)}, nil); err != nil {
		return fmt.Errorf("fund: %w", err)
	}
	return nil
}

func (r *RedisLedger) Settle(ctx context.Context, s *amm.Settlement) error {
	net, err := netChanges(s)
	if err != nil {
		return err
	}
	return r.apply(ctx, net, s.Pool)
}

func (r *RedisLedger) LoadPool(ctx context.Context, pair amm.Pair) (amm.PoolRecord, bool, error) {
	return readPool(ctx, r.client, pair)
}

// PoolPairs lists every pair with a stored ledger, ordered by pair.
func (r *RedisLedger) PoolPairs(ctx context.Context) ([]amm.Pair, error) {
	members, err := r.client.SMembers(ctx, constants.RedisKeyPoolSet).Result()
	if err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}
	out := make([]amm.Pair, 0, len(members))
	for _, m := range members {
		pair, err := parsePairMember(m)
		if err != nil {
			return nil, err
		}
		out = append(out, pair)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (r *RedisLedger) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisLedger) apply(ctx context.Context, net map[balanceKey]*big.Int, pool *amm.PoolUpdate) error {
	if len(net) == 0 && pool == nil {
		return nil
	}
	keys := sortedKeys(net)
	watched := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		watched = append(watched, redisBalanceKey(k))
	}
	if pool != nil {
		watched = append(watched, redisPoolKey(pool.Pair))
	}

	txf := func(tx *redis.Tx) error {
		if pool != nil {
			stored, _, err := readPool(ctx, tx, pool.Pair)
			if err != nil {
				return err
			}
			if stored != pool.Prev {
				return fmt.Errorf("pool %s: %w", pool.Pair, amm.ErrStalePool)
			}
		}

		current := make(map[balanceKey]uint64, len(keys))
		for _, k := range keys {
			v, err := readBalance(ctx, tx, k)
			if err != nil {
				return err
			}
			current[k] = v
		}

		next, err := applyNet(net, current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for k, v := range next {
				if v == 0 {
					pipe.Del(ctx, redisBalanceKey(k))
					continue
				}
				pipe.Set(ctx, redisBalanceKey(k), strconv.FormatUint(v, 10), 0)
			}
			if pool != nil {
				pipe.HSet(ctx, redisPoolKey(pool.Pair),
					"reserve_a", strconv.FormatUint(pool.Next.ReserveA, 10),
					"reserve_b", strconv.FormatUint(pool.Next.ReserveB, 10),
					"claim_supply", strconv.FormatUint(pool.Next.ClaimSupply, 10),
				)
				pipe.SAdd(ctx, constants.RedisKeyPoolSet, pool.Pair.String())
			}
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		err := r.client.Watch(ctx, txf, watched...)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			r.logger.WithField("attempt", attempt).Debug("settlement raced, retrying")
			continue
		}
		return err
	}
	return ErrSettleContention
}

// stringGetter is satisfied by both *redis.Client and *redis.Tx.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readBalance(ctx context.Context, c stringGetter, k balanceKey) (uint64, error) {
	val, err := c.Get(ctx, redisBalanceKey(k)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	v, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse balance %s: %w", k, err)
	}
	return v, nil
}

// hashGetter is satisfied by both *redis.Client and *redis.Tx.
type hashGetter interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// readPool returns the stored ledger for pair. A pair with no hash reads as
// the zero record with ok false.
func readPool(ctx context.Context, c hashGetter, pair amm.Pair) (amm.PoolRecord, bool, error) {
	fields, err := c.HGetAll(ctx, redisPoolKey(pair)).Result()
	if err != nil {
		return amm.PoolRecord{}, false, fmt.Errorf("get pool: %w", err)
	}
	if len(fields) == 0 {
		return amm.PoolRecord{}, false, nil
	}
	var rec amm.PoolRecord
	for name, dst := range map[string]*uint64{
		"reserve_a":    &rec.ReserveA,
		"reserve_b":    &rec.ReserveB,
		"claim_supply": &rec.ClaimSupply,
	} {
		v, err := strconv.ParseUint(fields[name], 10, 64)
		if err != nil {
			return amm.PoolRecord{}, false, fmt.Errorf("parse pool %s %s: %w", pair, name, err)
		}
		*dst = v
	}
	return rec, true, nil
}

func parsePairMember(m string) (amm.Pair, error) {
	a, b, ok := strings.Cut(m, "/")
	if !ok {
		return amm.Pair{}, fmt.Errorf("malformed pool member %q", m)
	}
	mintA, err := solana.PublicKeyFromBase58(a)
	if err != nil {
		return amm.Pair{}, fmt.Errorf("pool member %q: %w", m, err)
	}
	mintB, err := solana.PublicKeyFromBase58(b)
	if err != nil {
		return amm.Pair{}, fmt.Errorf("pool member %q: %w", m, err)
	}
	pair, _, err := amm.NewPair(mintA, mintB)
	return pair, err
}

func redisPoolKey(pair amm.Pair) string {
	return constants.RedisKeyPoolPrefix + pair.MintA.String() + ":" + pair.MintB.String()
}

func redisBalanceKey(k balanceKey) string {
	return constants.RedisKeyBalancePrefix + k.Owner.String() + ":" + k.Mint.String()
}
