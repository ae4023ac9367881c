package nats

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/saviobatista/sensor-sim/internal/types"
)

const (
	StreamName    = "TELEMETRY"
	SubjectPrefix = "telemetry."
	SubjectAll    = SubjectPrefix + ">"
)

// Client represents a NATS client
type Client struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *zap.Logger
}

// Subject returns the subject frames of dt are published on.
func Subject(dt types.DataType) string {
	return SubjectPrefix + dt.Subject()
}

// New connects to NATS and makes sure the telemetry stream exists.
func New(url string, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	nc, err := nats.Connect(url,
		nats.Name("sensor-sim"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	// Create stream if it doesn't exist
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{SubjectAll},
		Storage:  nats.FileStorage,
		MaxAge:   time.Hour,
	})
	if err != nil && !streamExists(err) {
		nc.Close()
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	return &Client{
		conn:   nc,
		js:     js,
		logger: logger,
	}, nil
}

func streamExists(err error) bool {
	return errors.Is(err, nats.ErrStreamNameAlreadyInUse) ||
		strings.Contains(err.Error(), "stream name already in use")
}

// PublishFrame publishes a frame on the subject of its data type.
func (c *Client) PublishFrame(frame *types.Frame) error {
	if frame == nil {
		return errors.New("cannot publish nil frame")
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	_, err = c.js.Publish(Subject(frame.DataType), data, nats.MsgId(frame.ID.String()))
	if err != nil {
		return fmt.Errorf("failed to publish frame: %w", err)
	}

	return nil
}

// SubscribeFrames delivers frames published on subject from now on. Use
// SubjectAll for every data type.
func (c *Client) SubscribeFrames(subject string, handler func(*types.Frame)) (*nats.Subscription, error) {
	if handler == nil {
		return nil, errors.New("handler must not be nil")
	}

	sub, err := c.js.Subscribe(subject, func(msg *nats.Msg) {
		frame, err := DecodeFrame(msg.Data)
		if err != nil {
			c.logger.Warn("Dropping undecodable frame",
				zap.String("subject", msg.Subject),
				zap.Error(err))
			return
		}
		handler(frame)
	}, nats.DeliverNew())
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	return sub, nil
}

// DecodeFrame unmarshals a published frame.
func DecodeFrame(data []byte) (*types.Frame, error) {
	var frame types.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("failed to unmarshal frame: %w", err)
	}
	if frame.DataType == "" {
		return nil, errors.New("frame has no data type")
	}
	return &frame, nil
}

// Close closes the NATS connection
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
