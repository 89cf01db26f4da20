package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"clipforge/domain/model"
)

// NewRedisClient connects to Redis; callers tolerate a nil client.
func NewRedisClient(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

type IProgressCache interface {
	SetLast(ctx context.Context, jobID string, evt model.ProgressEvent) error
	GetLast(ctx context.Context, jobID string) (*model.ProgressEvent, error)
	Clear(ctx context.Context, jobID string) error
}

// ProgressCache keeps the most recent progress event per job so a subscriber
// joining mid-run starts from real progress instead of a zero ack. A nil
// Redis client turns every operation into a no-op.
type ProgressCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProgressCache(client *redis.Client, ttl time.Duration) IProgressCache {
	return &ProgressCache{client: client, ttl: ttl}
}

func key(jobID string) string { return fmt.Sprintf("progress:last:%s", jobID) }

func (c *ProgressCache) SetLast(ctx context.Context, jobID string, evt model.ProgressEvent) error {
	if c.client == nil {
		return nil
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(jobID), data, c.ttl).Err()
}

func (c *ProgressCache) GetLast(ctx context.Context, jobID string) (*model.ProgressEvent, error) {
	if c.client == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, key(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var evt model.ProgressEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}

func (c *ProgressCache) Clear(ctx context.Context, jobID string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, key(jobID)).Err()
}
