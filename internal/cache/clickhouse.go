package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/aman-zulfiqar/solana-amm/internal/models"
	"github.com/sirupsen/logrus"
)

type ClickHouseConfig struct {
	Addr        string
	Database    string
	Username    string
	Password    string
	DialTimeout time.Duration
	Logger      *logrus.Logger
}

// ClickHouseStore persists the full pool event history.
type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

const createPoolEventsTable = `
CREATE TABLE IF NOT EXISTS pool_events (
	id              String,
	kind            LowCardinality(String),
	timestamp       DateTime64(3, 'UTC'),
	actor           String,
	pair            String,
	mint_a          String,
	mint_b          String,
	claim_mint      String,
	amount_a        UInt64,
	amount_b        UInt64,
	claim_amount    UInt64,
	input_mint      String,
	output_mint     String,
	amount_in       UInt64,
	amount_out      UInt64,
	fee_amount      UInt64,
	reserve_a       UInt64,
	reserve_b       UInt64,
	claim_supply    UInt64,
	fee_bps         UInt16
) ENGINE = MergeTree
ORDER BY (pair, timestamp)
`

func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("clickhouse addr is required")
	}
	if cfg.Database == "" {
		cfg.Database = "default"
	}
	if cfg.Username == "" {
		cfg.Username = "default"
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	cfg.Logger.WithFields(logrus.Fields{
		"addr":     cfg.Addr,
		"database": cfg.Database,
	}).Info("connected to ClickHouse")

	return &ClickHouseStore{conn: conn, logger: cfg.Logger}, nil
}

// EnsureSchema creates the pool_events table if needed.
func (c *ClickHouseStore) EnsureSchema(ctx context.Context) error {
	if err := c.conn.Exec(ctx, createPoolEventsTable); err != nil {
		return fmt.Errorf("create pool_events: %w", err)
	}
	return nil
}

// Record inserts one event.
func (c *ClickHouseStore) Record(ctx context.Context, ev *models.PoolEvent) error {
	return c.InsertEvent(ctx, ev)
}

func (c *ClickHouseStore) InsertEvent(ctx context.Context, ev *models.PoolEvent) error {
	query := `
		INSERT INTO pool_events (
			id, kind, timestamp, actor, pair, mint_a, mint_b, claim_mint,
			amount_a, amount_b, claim_amount, input_mint, output_mint,
			amount_in, amount_out, fee_amount, reserve_a, reserve_b, claim_supply, fee_bps
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		ev.ID,
		string(ev.Kind),
		ev.Timestamp,
		ev.Actor,
		ev.Pair,
		ev.MintA,
		ev.MintB,
		ev.ClaimMint,
		ev.AmountA,
		ev.AmountB,
		ev.ClaimAmount,
		ev.InputMint,
		ev.OutputMint,
		ev.AmountIn,
		ev.AmountOut,
		ev.FeeAmount,
		ev.ReserveA,
		ev.ReserveB,
		ev.ClaimSupply,
		ev.FeeBasisPoints,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pool event: %w", err)
	}
	return nil
}

// CountEvents returns the number of stored events of the given kind, or of all kinds when kind is empty.
func (c *ClickHouseStore) CountEvents(ctx context.Context, kind models.PoolEventKind) (uint64, error) {
	var n uint64
	var row driver.Row
	if kind == "" {
		row = c.conn.QueryRow(ctx, "SELECT count() FROM pool_events")
	} else {
		row = c.conn.QueryRow(ctx, "SELECT count() FROM pool_events WHERE kind = ?", string(kind))
	}
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count pool events: %w", err)
	}
	return n, nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
