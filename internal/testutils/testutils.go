package testutils

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saviobatista/sensor-sim/internal/types"
)

// MockFrame creates a frame for testing
func MockFrame(dt types.DataType, raw string) *types.Frame {
	return &types.Frame{
		ID:        uuid.New(),
		DataType:  dt,
		Raw:       raw,
		Timestamp: time.Now().UTC(),
		Source:    "test-source",
	}
}

// WaitForCondition waits for a condition to be true with timeout
func WaitForCondition(condition func() bool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for condition")
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}

// SSEEvent is one server-sent event read off a stream.
type SSEEvent struct {
	Event string
	ID    string
	Data  []string
}

// ReadSSEEvent reads lines up to the blank line that ends an event.
func ReadSSEEvent(r *bufio.Reader) (*SSEEvent, error) {
	ev := &SSEEvent{}
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if len(ev.Data) == 0 && ev.Event == "" {
				continue
			}
			return ev, nil
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			ev.Event = value
		case "id":
			ev.ID = value
		case "data":
			ev.Data = append(ev.Data, value)
		}
	}
}
