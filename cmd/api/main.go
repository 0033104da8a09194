package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/aman-zulfiqar/solana-amm/internal/amm"
	"github.com/aman-zulfiqar/solana-amm/internal/cache"
	"github.com/aman-zulfiqar/solana-amm/internal/config"
	"github.com/aman-zulfiqar/solana-amm/internal/custody"
	"github.com/aman-zulfiqar/solana-amm/internal/server"
	"github.com/aman-zulfiqar/solana-amm/internal/storage"
	"github.com/aman-zulfiqar/solana-amm/internal/wallet"
	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// custodyBackend is what the engine settles against and the API reads balances from.
type custodyBackend interface {
	amm.Custodian
	server.Balances
}

// main is the entry point for the AMM API server
// It wires custody, event sinks and the engine, then serves HTTP with graceful shutdown
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if cfg.DevMode {
		logger.SetLevel(logrus.DebugLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Redis backs custody and/or the event sinks
	var rclient *redis.Client
	if cfg.NeedsRedis() {
		rclient = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		if err := rclient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Fatal("failed to connect to Redis")
		}
		defer func() { _ = rclient.Close() }()
	}

	ledger, err := newCustody(cfg, rclient, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create custody backend")
	}

	recorder, events, closeSinks := newEventSinks(ctx, cfg, rclient, logger)
	defer closeSinks()

	programID := solana.MustPublicKeyFromBase58(cfg.ProgramID)
	engine, err := amm.NewEngine(amm.EngineConfig{
		ProgramID: programID,
		Custody:   ledger,
		Recorder:  recorder,
		Logger:    logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create engine")
	}

	restoreCtx, restoreCancel := context.WithTimeout(ctx, 10*time.Second)
	restored, err := engine.Restore(restoreCtx)
	restoreCancel()
	if err != nil {
		logger.WithError(err).Fatal("failed to restore pool ledgers")
	}
	logger.WithField("pools", restored).Info("engine ready")

	authority, err := loadAuthority(cfg)
	if err != nil {
		logger.WithError(err).Fatal("failed to load authority key")
	}
	if cfg.AutoInit {
		initCtx, initCancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := engine.Initialize(initCtx, authority.PublicKey(), uint16(cfg.FeeBasisPoints))
		initCancel()
		if err != nil {
			logger.WithError(err).Fatal("failed to initialize amm")
		}
	}

	h := &server.Handlers{
		Engine:    engine,
		Custody:   ledger,
		Events:    events,
		Authority: authority.PublicKey(),
		DevMode:   cfg.DevMode,
		Logger:    logger,
		Timeout:   cfg.HTTPTimeout,
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:       cfg.APIAddr,
			DevMode:    cfg.DevMode,
			APIKey:     cfg.APIKey,
			WriteRate:  cfg.WriteRateLimit,
			WriteBurst: cfg.WriteBurst,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithFields(logrus.Fields{
		"addr":      cfg.APIAddr,
		"custody":   cfg.CustodyBackend,
		"authority": authority.Address(),
		"program":   programID.String(),
	}).Info("amm api starting")
	if err := srv.Start(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}

	if err := srv.WaitClosed(context.Background()); err != nil {
		fmt.Println(err)
	}
}

func newCustody(cfg *config.Config, rclient *redis.Client, logger *logrus.Logger) (custodyBackend, error) {
	switch cfg.CustodyBackend {
	case config.CustodyRedis:
		return custody.NewRedisLedger(custody.RedisLedgerConfig{
			Client:     rclient,
			MaxRetries: cfg.SettleMaxRetries,
			Logger:     logger,
		})
	default:
		return custody.NewMemoryLedger(logger), nil
	}
}

// newEventSinks builds the recorder chain. ClickHouse is optional and only
// logged when unreachable.
func newEventSinks(ctx context.Context, cfg *config.Config, rclient *redis.Client, logger *logrus.Logger) (amm.Recorder, storage.EventCache, func()) {
	if !cfg.EventsEnabled {
		return nil, nil, func() {}
	}

	recent := cache.NewRedisCacheFromClient(rclient, logger)
	sinks := []storage.EventSink{
		cache.NewPubSubManager(rclient, logger),
		recent,
	}
	closers := []func() error{recent.Close}

	if cfg.ClickHouseAddr != "" {
		store, err := cache.NewClickHouseStore(ctx, cache.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
			Logger:   logger,
		})
		if err != nil {
			logger.WithError(err).Warn("clickhouse unavailable, event history disabled")
		} else if err := store.EnsureSchema(ctx); err != nil {
			logger.WithError(err).Warn("clickhouse schema setup failed, event history disabled")
			_ = store.Close()
		} else {
			sinks = append(sinks, store)
			closers = append(closers, store.Close)
		}
	}

	fanout := storage.NewFanout(sinks...)
	logger.WithField("sinks", fanout.Len()).Info("event recording enabled")

	return fanout, recent, func() {
		for _, c := range closers {
			_ = c()
		}
	}
}

func loadAuthority(cfg *config.Config) (*wallet.Keypair, error) {
	if cfg.AuthorityKey != "" {
		return wallet.LoadKeypair(cfg.AuthorityKey)
	}
	// Validate only allows an empty key in dev mode.
	return wallet.NewRandomKeypair()
}
