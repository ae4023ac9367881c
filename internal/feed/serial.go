package feed

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/saviobatista/sensor-sim/internal/metrics"
	"github.com/saviobatista/sensor-sim/internal/random"
	"github.com/saviobatista/sensor-sim/internal/sensor"
	"github.com/saviobatista/sensor-sim/internal/types"
)

// PortOpener opens a writable serial device.
type PortOpener func(device string, baud int) (io.WriteCloser, error)

// OpenSerial opens device at baud with 8N1 framing.
func OpenSerial(device string, baud int) (io.WriteCloser, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial %s: %w", device, err)
	}
	return port, nil
}

// SerialSink writes NMEA sentences to a serial port, reopening the port after
// failures.
type SerialSink struct {
	Device         string
	Baud           int
	DataTypes      []types.DataType
	Interval       IntervalFunc
	ReconnectDelay time.Duration
	Open           PortOpener

	src    *random.Source
	logger *zap.Logger
}

// NewSerialSink creates a sink that emits GPS sentences on device.
func NewSerialSink(device string, baud int, src *random.Source, interval IntervalFunc, logger *zap.Logger) *SerialSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SerialSink{
		Device:         device,
		Baud:           baud,
		DataTypes:      []types.DataType{types.DataTypeGPS},
		Interval:       interval,
		ReconnectDelay: 5 * time.Second,
		Open:           OpenSerial,
		src:            src,
		logger:         logger,
	}
}

// Run streams until ctx is done.
func (s *SerialSink) Run(ctx context.Context) error {
	if err := checkTypes(s.DataTypes); err != nil {
		return err
	}

	for {
		port, err := s.Open(s.Device, s.Baud)
		if err != nil {
			s.logger.Warn("Serial device unavailable", zap.String("device", s.Device), zap.Error(err))
		} else {
			s.logger.Info("Serial sink opened", zap.String("device", s.Device), zap.Int("baud", s.Baud))
			err = s.stream(ctx, port)
			port.Close()
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warn("Serial write failed", zap.String("device", s.Device), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.ReconnectDelay):
		}
	}
}

func (s *SerialSink) stream(ctx context.Context, port io.Writer) error {
	metrics.ActiveStreams.WithLabelValues("serial").Inc()
	defer metrics.ActiveStreams.WithLabelValues("serial").Dec()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan *types.Frame)
	for _, dt := range s.DataTypes {
		go func(dt types.DataType) {
			ticker := time.NewTicker(s.Interval(dt))
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					frame, err := sensor.Frame(s.src, dt)
					if err != nil {
						s.logger.Error("Failed to generate frame", zap.String("data_type", string(dt)), zap.Error(err))
						continue
					}
					select {
					case frames <- frame:
					case <-ctx.Done():
						return
					}
				}
			}
		}(dt)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-frames:
			if err := WriteFrame(port, frame); err != nil {
				return err
			}
		}
	}
}
