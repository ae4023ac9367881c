package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/saviobatista/sensor-sim/internal/config"
	"github.com/saviobatista/sensor-sim/internal/logger"
	"github.com/saviobatista/sensor-sim/internal/metrics"
	"github.com/saviobatista/sensor-sim/internal/nats"
	"github.com/saviobatista/sensor-sim/internal/parser"
	"github.com/saviobatista/sensor-sim/internal/stats"
	"github.com/saviobatista/sensor-sim/internal/types"
)

const (
	serviceName   = "sensor-subscriber"
	statsInterval = time.Minute
)

// NATSClient is the part of the NATS client the subscriber needs.
type NATSClient interface {
	SubscribeFrames(subject string, handler func(*types.Frame)) (*natsgo.Subscription, error)
	Close()
}

func main() {
	if err := runSubscriber(); err != nil {
		fmt.Fprintf(os.Stderr, "Subscriber failed: %v\n", err)
		os.Exit(1)
	}
}

func runSubscriber() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.NATSURL == "" {
		return errors.New("NATS_URL is required")
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	var ln net.Listener
	if cfg.MetricsAddr != "" {
		ln, err = net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.MetricsAddr, err)
		}
	}

	client, err := nats.New(cfg.NATSURL, log)
	if err != nil {
		if ln != nil {
			ln.Close()
		}
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("Shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	metricsDone := make(chan struct{})
	if ln != nil {
		go func() {
			defer close(metricsDone)
			if err := serveMetrics(ctx, ln, log); err != nil {
				log.Error("Metrics server failed", zap.Error(err))
			}
		}()
	} else {
		close(metricsDone)
	}

	err = run(ctx, client, stats.New(), log)
	cancel()
	<-metricsDone
	return err
}

// run validates every frame on the telemetry stream until ctx is done. It
// closes client on return.
func run(ctx context.Context, client NATSClient, st *stats.Stats, log *zap.Logger) error {
	defer client.Close()

	v := &validator{stats: st, logger: log}
	sub, err := client.SubscribeFrames(nats.SubjectAll, v.handleFrame)
	if err != nil {
		return fmt.Errorf("failed to subscribe to frames: %w", err)
	}
	log.Info("Subscribed", zap.String("subject", nats.SubjectAll))

	st.StartReporting(ctx, statsInterval, log)

	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			log.Warn("Failed to unsubscribe", zap.Error(err))
		}
	}
	return nil
}

type validator struct {
	stats  *stats.Stats
	logger *zap.Logger
}

// handleFrame checks the wire integrity of frame and records the outcome.
func (v *validator) handleFrame(frame *types.Frame) {
	v.stats.IncrementTotalFrames()
	v.stats.IncrementDataType(frame.DataType)
	v.stats.UpdateLastFrameTime()

	err := parser.Validate(frame.DataType, frame.Raw)
	result := "ok"
	switch {
	case err == nil:
		v.stats.IncrementParsed()
	case errors.Is(err, parser.ErrChecksum):
		result = "checksum"
	default:
		result = "malformed"
	}
	metrics.FramesReceived.WithLabelValues(frame.DataType.Subject(), result).Inc()

	if err != nil {
		v.stats.IncrementFailed()
		v.logger.Warn("Invalid frame",
			zap.String("id", frame.ID.String()),
			zap.String("data_type", string(frame.DataType)),
			zap.String("result", result),
			zap.Error(err))
		return
	}
	v.logger.Debug("Frame verified",
		zap.String("id", frame.ID.String()),
		zap.String("data_type", string(frame.DataType)))
}
