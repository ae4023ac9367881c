package stats

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/saviobatista/sensor-sim/internal/types"
)

// Stats tracks frame processing statistics
type Stats struct {
	// Frame counts
	TotalFrames     uint64
	PublishedFrames uint64
	PublishFailures uint64
	CacheFailures   uint64
	ParsedFrames    uint64
	FailedFrames    uint64

	// Per data type counts, keyed once in New and never resized
	typeCounts map[types.DataType]*uint64

	// Timing
	StartTime     time.Time
	LastFrameTime time.Time
	EncodeTime    time.Duration

	mu sync.RWMutex
}

// New creates a new Stats instance
func New() *Stats {
	s := &Stats{
		StartTime:  time.Now(),
		typeCounts: make(map[types.DataType]*uint64, len(types.DataTypes)),
	}
	for _, dt := range types.DataTypes {
		s.typeCounts[dt] = new(uint64)
	}
	return s
}

// IncrementTotalFrames increments the total frames counter
func (s *Stats) IncrementTotalFrames() {
	atomic.AddUint64(&s.TotalFrames, 1)
}

// IncrementPublished increments the published frames counter
func (s *Stats) IncrementPublished() {
	atomic.AddUint64(&s.PublishedFrames, 1)
}

// IncrementPublishFailures increments the failed publish counter
func (s *Stats) IncrementPublishFailures() {
	atomic.AddUint64(&s.PublishFailures, 1)
}

// IncrementCacheFailures increments the failed cache write counter
func (s *Stats) IncrementCacheFailures() {
	atomic.AddUint64(&s.CacheFailures, 1)
}

// IncrementParsed increments the parsed frames counter
func (s *Stats) IncrementParsed() {
	atomic.AddUint64(&s.ParsedFrames, 1)
}

// IncrementFailed increments the failed frames counter
func (s *Stats) IncrementFailed() {
	atomic.AddUint64(&s.FailedFrames, 1)
}

// IncrementDataType increments the counter for a data type. Unknown types are ignored.
func (s *Stats) IncrementDataType(dt types.DataType) {
	if c, ok := s.typeCounts[dt]; ok {
		atomic.AddUint64(c, 1)
	}
}

// DataTypeCount returns the count recorded for a data type.
func (s *Stats) DataTypeCount(dt types.DataType) uint64 {
	if c, ok := s.typeCounts[dt]; ok {
		return atomic.LoadUint64(c)
	}
	return 0
}

// UpdateLastFrameTime updates the last frame time
func (s *Stats) UpdateLastFrameTime() {
	s.mu.Lock()
	s.LastFrameTime = time.Now()
	s.mu.Unlock()
}

// AddEncodeTime adds to the total generation and encoding time
func (s *Stats) AddEncodeTime(duration time.Duration) {
	s.mu.Lock()
	s.EncodeTime += duration
	s.mu.Unlock()
}

// GetStats returns a copy of the current statistics
func (s *Stats) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	perType := make(map[string]uint64, len(s.typeCounts))
	for dt, c := range s.typeCounts {
		perType[dt.Subject()] = atomic.LoadUint64(c)
	}

	return map[string]interface{}{
		"total_frames":     atomic.LoadUint64(&s.TotalFrames),
		"published_frames": atomic.LoadUint64(&s.PublishedFrames),
		"publish_failures": atomic.LoadUint64(&s.PublishFailures),
		"cache_failures":   atomic.LoadUint64(&s.CacheFailures),
		"parsed_frames":    atomic.LoadUint64(&s.ParsedFrames),
		"failed_frames":    atomic.LoadUint64(&s.FailedFrames),
		"data_types":       perType,
		"last_frame_time":  s.LastFrameTime,
		"encode_time":      s.EncodeTime,
		"uptime":           time.Since(s.StartTime),
	}
}

// String returns a string representation of the statistics
func (s *Stats) String() string {
	stats := s.GetStats()

	perType := stats["data_types"].(map[string]uint64)
	parts := make([]string, 0, len(types.DataTypes))
	for _, dt := range types.DataTypes {
		parts = append(parts, fmt.Sprintf("%s=%d", dt.Subject(), perType[dt.Subject()]))
	}

	return fmt.Sprintf(
		"Total Frames: %d\n"+
			"Published Frames: %d\n"+
			"Publish Failures: %d\n"+
			"Cache Failures: %d\n"+
			"Parsed Frames: %d\n"+
			"Failed Frames: %d\n"+
			"Data Types: %s\n"+
			"Last Frame Time: %s\n"+
			"Encode Time: %s\n"+
			"Uptime: %s",
		stats["total_frames"],
		stats["published_frames"],
		stats["publish_failures"],
		stats["cache_failures"],
		stats["parsed_frames"],
		stats["failed_frames"],
		strings.Join(parts, " "),
		stats["last_frame_time"],
		stats["encode_time"],
		stats["uptime"],
	)
}

// StartReporting logs a snapshot every interval until ctx is done, then logs a
// final one.
func (s *Stats) StartReporting(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.report(logger, "Final statistics")
			return
		case <-ticker.C:
			s.report(logger, "Statistics")
		}
	}
}

func (s *Stats) report(logger *zap.Logger, msg string) {
	stats := s.GetStats()
	logger.Info(msg,
		zap.Any("total_frames", stats["total_frames"]),
		zap.Any("published_frames", stats["published_frames"]),
		zap.Any("publish_failures", stats["publish_failures"]),
		zap.Any("cache_failures", stats["cache_failures"]),
		zap.Any("parsed_frames", stats["parsed_frames"]),
		zap.Any("failed_frames", stats["failed_frames"]),
		zap.Any("data_types", stats["data_types"]),
		zap.Any("uptime", stats["uptime"]),
	)
}
