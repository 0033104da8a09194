package storage

import (
	"context"
	"io"

	"github.com/aman-zulfiqar/solana-amm/internal/models"
)

// EventSink receives committed pool events.
type EventSink interface {
	Record(ctx context.Context, ev *models.PoolEvent) error
}

// EventCache defines the interface for the hot event cache
type EventCache interface {
	EventSink

	// GetRecentEvents retrieves the most recent events, newest first
	GetRecentEvents(ctx context.Context, limit int64) ([]*models.PoolEvent, error)

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error

	// Close closes the cache connection
	io.Closer
}

// EventStore defines the interface for persistent event history
type EventStore interface {
	EventSink

	// EnsureSchema prepares the backing tables
	EnsureSchema(ctx context.Context) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close closes the store connection
	io.Closer
}

// EventHandler is a function that processes pool events
type EventHandler func(*models.PoolEvent)
