package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aman-zulfiqar/solana-amm/internal/cache"
	"github.com/aman-zulfiqar/solana-amm/internal/config"
	"github.com/aman-zulfiqar/solana-amm/internal/constants"
	"github.com/aman-zulfiqar/solana-amm/internal/models"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// subscriber tails pool events published by the api when EVENTS_ENABLED is set.
func main() {
	pair := flag.String("pair", "", "only follow one pool, e.g. <mintA>/<mintB>")
	kind := flag.String("kind", "", "only follow one event kind (initialize, add_liquidity, remove_liquidity, swap)")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	rclient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	defer func() { _ = rclient.Close() }()
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}

	pubsub := cache.NewPubSubManager(rclient, logger)

	logEvent := func(ev *models.PoolEvent) {
		fields := logrus.Fields{
			"kind":      ev.Kind,
			"pair":      ev.Pair,
			"reserve_a": ev.ReserveA,
			"reserve_b": ev.ReserveB,
			"supply":    ev.ClaimSupply,
		}
		switch ev.Kind {
		case models.EventSwap:
			fields["in"] = ev.AmountIn
			fields["out"] = ev.AmountOut
			fields["fee"] = ev.FeeAmount
			fields["input"] = constants.SymbolFor(ev.InputMint)
		case models.EventAddLiquidity, models.EventRemoveLiquidity:
			fields["amount_a"] = ev.AmountA
			fields["amount_b"] = ev.AmountB
			fields["claims"] = ev.ClaimAmount
		}
		logger.WithFields(fields).Info("event")
	}

	var wg sync.WaitGroup
	run := func(name string, f func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f(); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).WithField("sub", name).Error("subscription ended")
			}
		}()
	}

	switch {
	case *pair != "":
		channel := constants.PubSubChannelPoolPrefix + *pair
		run(channel, func() error { return pubsub.Subscribe(ctx, channel, logEvent) })
	case *kind != "":
		channel := constants.PubSubChannelKindPrefix + *kind
		run(channel, func() error { return pubsub.Subscribe(ctx, channel, logEvent) })
	default:
		run(constants.DefaultSubscriberChannel, func() error {
			return pubsub.Subscribe(ctx, constants.DefaultSubscriberChannel, logEvent)
		})
		// Pattern subscription only counts pool activity per pair.
		var mu sync.Mutex
		perPool := map[string]int{}
		run(constants.PubSubPatternPoolEvents, func() error {
			return pubsub.PSubscribe(ctx, constants.PubSubPatternPoolEvents, func(ev *models.PoolEvent) {
				mu.Lock()
				perPool[ev.Pair]++
				n := perPool[ev.Pair]
				mu.Unlock()
				logger.WithFields(logrus.Fields{"pair": ev.Pair, "seen": n}).Debug("pool activity")
			})
		})
	}

	logger.Info("subscriber running, press Ctrl+C to stop")
	<-sigCh
	logger.Info("shutting down subscriber")
	cancel()
	wg.Wait()
}
