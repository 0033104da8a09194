package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aman-zulfiqar/solana-amm/internal/constants"
	"github.com/aman-zulfiqar/solana-amm/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// PubSubManager fans pool events out over Redis Pub/Sub.
type PubSubManager struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewPubSubManager(client *redis.Client, logger *logrus.Logger) *PubSubManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &PubSubManager{client: client, logger: logger}
}

// Channels returns every channel an event is published to.
func Channels(ev *models.PoolEvent) []string {
	channels := []string{
		constants.PubSubChannelEvents,
		constants.PubSubChannelKindPrefix + string(ev.Kind),
	}
	if ev.Pair != "" {
		channels = append(channels, constants.PubSubChannelPoolPrefix+ev.Pair)
	}
	return channels
}

// Record publishes ev to the global, per-kind and per-pool channels.
func (p *PubSubManager) Record(ctx context.Context, ev *models.PoolEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := p.client.Pipeline()
	for _, channel := range Channels(ev) {
		pipe.Publish(ctx, channel, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe delivers events from channel to handler until ctx is done.
func (p *PubSubManager) Subscribe(ctx context.Context, channel string, handler func(*models.PoolEvent)) error {
	ps := p.client.Subscribe(ctx, channel)
	defer ps.Close()

	// Wait for confirmation so callers know the subscription is live.
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	p.logger.WithField("channel", channel).Info("subscribed")
	return p.consume(ctx, ps, handler)
}

// PSubscribe is Subscribe for a channel pattern such as amm:events:pool:*.
func (p *PubSubManager) PSubscribe(ctx context.Context, pattern string, handler func(*models.PoolEvent)) error {
	ps := p.client.PSubscribe(ctx, pattern)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("psubscribe %s: %w", pattern, err)
	}
	p.logger.WithField("pattern", pattern).Info("subscribed")
	return p.consume(ctx, ps, handler)
}

func (p *PubSubManager) consume(ctx context.Context, ps *redis.PubSub, handler func(*models.PoolEvent)) error {
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev models.PoolEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				p.logger.WithError(err).WithField("channel", msg.Channel).Warn("dropping malformed event")
				continue
			}
			handler(&ev)
		}
	}
}
