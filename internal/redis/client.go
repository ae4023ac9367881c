package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/saviobatista/sensor-sim/internal/types"
)

const (
	// LatestTTL bounds how long a latest frame stays readable once its publisher stops.
	LatestTTL = time.Hour
	// HistorySize is the number of recent frames kept per data type.
	HistorySize = 100
)

// ErrNotFound is returned when no frame is cached for a data type.
var ErrNotFound = errors.New("frame not found")

// RedisClientInterface defines the Redis operations used by our client
type RedisClientInterface interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	Close() error
}

// Client manages Redis connections and operations
type Client struct {
	client RedisClientInterface
}

// New creates a new Redis client
func New(addr string) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // no password set
		DB:       0,  // use default DB
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: client}, nil
}

// NewWithClient creates a new Redis client with a custom RedisClientInterface (useful for testing)
func NewWithClient(client RedisClientInterface) *Client {
	return &Client{client: client}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func latestKey(dt types.DataType) string {
	return fmt.Sprintf("frame:%s", dt.Subject())
}

func historyKey(dt types.DataType) string {
	return fmt.Sprintf("frames:%s", dt.Subject())
}

// StoreFrame records frame as the latest of its data type and prepends it to
// the bounded history list.
func (c *Client) StoreFrame(ctx context.Context, frame *types.Frame) error {
	if frame == nil {
		return errors.New("cannot store nil frame")
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	if err := c.client.Set(ctx, latestKey(frame.DataType), data, LatestTTL).Err(); err != nil {
		return fmt.Errorf("failed to store latest frame: %w", err)
	}

	key := historyKey(frame.DataType)
	if err := c.client.LPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to append frame history: %w", err)
	}
	if err := c.client.LTrim(ctx, key, 0, HistorySize-1).Err(); err != nil {
		return fmt.Errorf("failed to trim frame history: %w", err)
	}
	return nil
}

// GetLatest retrieves the latest frame of dt. It returns ErrNotFound when none is cached.
func (c *Client) GetLatest(ctx context.Context, dt types.DataType) (*types.Frame, error) {
	data, err := c.client.Get(ctx, latestKey(dt)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest %s frame: %w", dt, err)
	}

	var frame types.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s frame: %w", dt, err)
	}
	return &frame, nil
}

// GetRecent returns up to n recent frames of dt, newest first. Entries that no
// longer decode are skipped.
func (c *Client) GetRecent(ctx context.Context, dt types.DataType, n int) ([]*types.Frame, error) {
	if n <= 0 {
		return nil, nil
	}
	if n > HistorySize {
		n = HistorySize
	}

	items, err := c.client.LRange(ctx, historyKey(dt), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get recent %s frames: %w", dt, err)
	}

	frames := make([]*types.Frame, 0, len(items))
	for _, item := range items {
		var frame types.Frame
		if err := json.Unmarshal([]byte(item), &frame); err != nil {
			continue
		}
		frames = append(frames, &frame)
	}
	return frames, nil
}

// DeleteLatest removes the cached latest frame and history of dt.
func (c *Client) DeleteLatest(ctx context.Context, dt types.DataType) error {
	return c.client.Del(ctx, latestKey(dt), historyKey(dt)).Err()
}
