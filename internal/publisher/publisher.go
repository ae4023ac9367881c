// Package publisher drives the periodic generation loop: one goroutine per data
// type produces a frame on every tick and hands it to NATS and the Redis cache.
package publisher

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saviobatista/sensor-sim/internal/metrics"
	"github.com/saviobatista/sensor-sim/internal/random"
	"github.com/saviobatista/sensor-sim/internal/sensor"
	"github.com/saviobatista/sensor-sim/internal/stats"
	"github.com/saviobatista/sensor-sim/internal/types"
)

// FramePublisher sends frames to the message bus.
type FramePublisher interface {
	PublishFrame(frame *types.Frame) error
}

// FrameStore caches the latest frame per data type.
type FrameStore interface {
	StoreFrame(ctx context.Context, frame *types.Frame) error
}

// Publisher generates frames and fans them out to the configured sinks. Bus and
// Store may be nil, in which case that sink is skipped.
type Publisher struct {
	Bus   FramePublisher
	Store FrameStore

	src    *random.Source
	stats  *stats.Stats
	logger *zap.Logger
}

// New creates a Publisher.
func New(src *random.Source, st *stats.Stats, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{src: src, stats: st, logger: logger}
}

// Tick generates and delivers a single frame of type dt.
func (p *Publisher) Tick(ctx context.Context, dt types.DataType) (*types.Frame, error) {
	start := time.Now()
	frame, err := sensor.Frame(p.src, dt)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	label := dt.Subject()
	metrics.FramesGenerated.WithLabelValues(label).Inc()
	metrics.EncodeDuration.WithLabelValues(label).Observe(elapsed.Seconds())
	p.stats.IncrementTotalFrames()
	p.stats.IncrementDataType(dt)
	p.stats.AddEncodeTime(elapsed)
	p.stats.UpdateLastFrameTime()

	if p.Bus != nil {
		if err := p.Bus.PublishFrame(frame); err != nil {
			metrics.PublishFailures.WithLabelValues(label).Inc()
			p.stats.IncrementPublishFailures()
			p.logger.Warn("Failed to publish frame",
				zap.String("data_type", label),
				zap.String("id", frame.ID.String()),
				zap.Error(err))
		} else {
			metrics.FramesPublished.WithLabelValues(label).Inc()
			p.stats.IncrementPublished()
		}
	}

	if p.Store != nil {
		if err := p.Store.StoreFrame(ctx, frame); err != nil {
			metrics.CacheFailures.WithLabelValues(label).Inc()
			p.stats.IncrementCacheFailures()
			p.logger.Warn("Failed to cache frame",
				zap.String("data_type", label),
				zap.Error(err))
		}
	}

	return frame, nil
}

// Run starts one generation loop per data type and blocks until ctx is done and
// every loop has returned.
func (p *Publisher) Run(ctx context.Context, dataTypes []types.DataType, interval func(types.DataType) time.Duration) {
	var wg sync.WaitGroup
	for _, dt := range dataTypes {
		wg.Add(1)
		go func(dt types.DataType, every time.Duration) {
			defer wg.Done()
			p.loop(ctx, dt, every)
		}(dt, interval(dt))
	}
	wg.Wait()
	p.logger.Info("Publisher stopped")
}

func (p *Publisher) loop(ctx context.Context, dt types.DataType, every time.Duration) {
	p.logger.Info("Starting generator",
		zap.String("data_type", string(dt)),
		zap.Duration("interval", every))

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.Tick(ctx, dt); err != nil {
				p.logger.Error("Failed to generate frame",
					zap.String("data_type", string(dt)),
					zap.Error(err))
			}
		}
	}
}
