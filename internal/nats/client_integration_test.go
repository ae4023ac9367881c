package nats

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	natscontainer "github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/saviobatista/sensor-sim/internal/random"
	"github.com/saviobatista/sensor-sim/internal/sensor"
	"github.com/saviobatista/sensor-sim/internal/types"
)

// startNATS runs a JetStream-enabled NATS container and returns its URL.
func startNATS(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := natscontainer.Run(ctx, "nats:2.9-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server is ready"),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start NATS container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate NATS container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get NATS connection string: %v", err)
	}
	return url
}

func TestNATSClient_Integration_Connection(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client, err := New(startNATS(t), zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create NATS client: %v", err)
	}
	defer client.Close()

	if client.conn == nil {
		t.Error("Expected connection to be initialized")
	}
	if client.js == nil {
		t.Error("Expected JetStream context to be initialized")
	}

	// A second client must reuse the existing stream.
	second, err := New(client.conn.ConnectedUrl(), zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create second NATS client: %v", err)
	}
	second.Close()
}

func TestNATSClient_Integration_PublishAndSubscribe(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client, err := New(startNATS(t), zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create NATS client: %v", err)
	}
	defer client.Close()

	received := make(chan *types.Frame, len(types.DataTypes))
	sub, err := client.SubscribeFrames(SubjectAll, func(f *types.Frame) {
		received <- f
	})
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	src := random.New(1)
	sent := make(map[string]*types.Frame)
	for _, dt := range types.DataTypes {
		frame, err := sensor.Frame(src, dt)
		if err != nil {
			t.Fatalf("Failed to build %s frame: %v", dt, err)
		}
		if err := client.PublishFrame(frame); err != nil {
			t.Fatalf("Failed to publish %s frame: %v", dt, err)
		}
		sent[frame.ID.String()] = frame
	}

	for i := 0; i < len(sent); i++ {
		select {
		case got := <-received:
			want, ok := sent[got.ID.String()]
			if !ok {
				t.Fatalf("Received unexpected frame %s", got.ID)
			}
			if got.Raw != want.Raw || got.DataType != want.DataType {
				t.Errorf("Frame %s mismatch: got %+v, want %+v", got.ID, got, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("Timeout waiting for frame %d", i+1)
		}
	}
}

func TestNATSClient_Integration_SubjectFilter(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client, err := New(startNATS(t), zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create NATS client: %v", err)
	}
	defer client.Close()

	received := make(chan *types.Frame, 4)
	sub, err := client.SubscribeFrames(Subject(types.DataTypeGPS), func(f *types.Frame) {
		received <- f
	})
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	src := random.New(2)
	for _, dt := range []types.DataType{types.DataTypeAIS, types.DataTypeGPS} {
		frame, _ := sensor.Frame(src, dt)
		if err := client.PublishFrame(frame); err != nil {
			t.Fatalf("Failed to publish: %v", err)
		}
	}

	select {
	case got := <-received:
		if got.DataType != types.DataTypeGPS {
			t.Errorf("Expected only GPS frames, got %s", got.DataType)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout waiting for GPS frame")
	}

	select {
	case got := <-received:
		t.Errorf("Unexpected extra frame %s", got.DataType)
	case <-time.After(200 * time.Millisecond):
	}
}
