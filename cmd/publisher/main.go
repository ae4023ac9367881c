package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/saviobatista/sensor-sim/internal/api"
	"github.com/saviobatista/sensor-sim/internal/config"
	"github.com/saviobatista/sensor-sim/internal/feed"
	"github.com/saviobatista/sensor-sim/internal/logger"
	"github.com/saviobatista/sensor-sim/internal/nats"
	"github.com/saviobatista/sensor-sim/internal/publisher"
	"github.com/saviobatista/sensor-sim/internal/random"
	"github.com/saviobatista/sensor-sim/internal/redis"
	"github.com/saviobatista/sensor-sim/internal/stats"
	"github.com/saviobatista/sensor-sim/internal/types"
)

const (
	serviceName     = "sensor-publisher"
	statsInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := runPublisher(); err != nil {
		fmt.Fprintf(os.Stderr, "Publisher failed: %v\n", err)
		os.Exit(1)
	}
}

// runPublisher loads the configuration and runs until SIGINT or SIGTERM.
func runPublisher() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("Shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	return run(ctx, cfg, log)
}

// newSource seeds from the clock when seed is zero.
func newSource(seed int64) *random.Source {
	if seed == 0 {
		return random.NewDefault()
	}
	return random.New(seed)
}

// feedTypes keeps the data types that have an NMEA form.
func feedTypes(dataTypes []types.DataType) []types.DataType {
	var out []types.DataType
	for _, dt := range dataTypes {
		if dt == types.DataTypeGPS || dt == types.DataTypeAIS {
			out = append(out, dt)
		}
	}
	return out
}

// run wires every component from cfg and blocks until ctx is done.
func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	src := newSource(cfg.Seed)
	st := stats.New()
	pub := publisher.New(src, st, log)

	var cache api.FrameCache
	if cfg.NATSURL != "" {
		client, err := nats.New(cfg.NATSURL, log)
		if err != nil {
			return err
		}
		defer client.Close()
		pub.Bus = client
		log.Info("Publishing to NATS", zap.String("url", cfg.NATSURL))
	}
	if cfg.RedisAddr != "" {
		client, err := redis.New(cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer client.Close()
		pub.Store = client
		cache = client
		log.Info("Caching frames in Redis", zap.String("addr", cfg.RedisAddr))
	}

	if nmeaTypes := feedTypes(cfg.DataTypes); cfg.FeedAddr != "" && len(nmeaTypes) > 0 {
		fs, err := feed.New(cfg.FeedAddr, src, nmeaTypes, cfg.Interval, log)
		if err != nil {
			return err
		}
		if err := fs.Start(); err != nil {
			return err
		}
		defer fs.Stop()
	}

	server := api.NewServer(cfg.HTTPAddr, src, cfg.Interval, cache, log)
	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var wg sync.WaitGroup
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	if cfg.SerialDevice != "" {
		sink := feed.NewSerialSink(cfg.SerialDevice, cfg.SerialBaud, src, cfg.Interval, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sink.Run(runCtx); err != nil {
				log.Error("Serial sink stopped", zap.Error(err))
			}
		}()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		st.StartReporting(runCtx, statsInterval, log)
	}()
	go func() {
		defer wg.Done()
		pub.Run(runCtx, cfg.DataTypes, cfg.Interval)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serverErr:
		runErr = fmt.Errorf("HTTP server failed: %w", runErr)
	}

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown failed", zap.Error(err))
	}
	wg.Wait()

	return runErr
}
