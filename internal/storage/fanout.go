package storage

import (
	"context"
	"errors"

	"github.com/aman-zulfiqar/solana-amm/internal/models"
)

// Fanout records each event to every sink, continuing past failures.
type Fanout struct {
	sinks []EventSink
}

// NewFanout skips nil sinks so optional backends can be passed unconditionally.
func NewFanout(sinks ...EventSink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

func (f *Fanout) Len() int { return len(f.sinks) }

func (f *Fanout) Record(ctx context.Context, ev *models.PoolEvent) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
