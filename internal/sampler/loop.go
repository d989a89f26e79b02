package sampler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Dicklesworthstone/vitals/internal/logger"
	"github.com/Dicklesworthstone/vitals/internal/model"
)

// Recorder receives every sample for visualization.
type Recorder interface {
	Record(s model.Sample)
}

// Appender durably stores every sample.
type Appender interface {
	Append(ctx context.Context, s model.Sample) error
}

// Stats summarizes the loop for status displays.
type Stats struct {
	Ticks         int
	StoreFailures int
	LastError     error
	Last          model.Sample
}

// Loop ticks the source at a fixed interval and fans each sample out to the
// series and the store. Ticks never overlap.
type Loop struct {
	Interval time.Duration

	source Source
	series Recorder
	store  Appender
	log    *zap.Logger

	mu    sync.RWMutex
	stats Stats
}

// NewLoop builds a loop. store may be nil for a visualization-only run.
func NewLoop(interval time.Duration, source Source, series Recorder, store Appender, log *zap.Logger) *Loop {
	if interval <= 0 {
		interval = time.Second
	}
	return &Loop{
		Interval: interval,
		source:   source,
		series:   series,
		store:    store,
		log:      logger.OrNop(log),
	}
}

// Run samples immediately and then once per interval until ctx is done. Tick
// starts are one interval apart; a tick that overruns drops the missed ticker
// fires instead of queueing them. An in-flight tick always completes.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()

	l.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				return nil
			}
			l.Tick(ctx)
		}
	}
}

// Tick performs one collect and fan-out. Cancellation of ctx does not abort
// the tick, so a stored row is never partial.
func (l *Loop) Tick(ctx context.Context) model.Sample {
	ctx = context.WithoutCancel(ctx)
	s := l.source.Collect(ctx)

	if l.series != nil {
		l.series.Record(s)
	}

	var storeErr error
	if l.store != nil {
		storeErr = l.store.Append(ctx, s)
	}

	l.mu.Lock()
	l.stats.Ticks++
	l.stats.Last = s
	if storeErr != nil {
		l.stats.StoreFailures++
		l.stats.LastError = storeErr
	}
	tick := l.stats.Ticks
	l.mu.Unlock()

	if storeErr != nil {
		l.log.Error("store append failed", zap.Int("tick", tick), zap.Error(storeErr))
	}
	return s
}

// Stats returns a copy of the loop counters.
func (l *Loop) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stats
}
