package odds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the snapshot as JSON under a single key so every
// instance of the service shares one freshness window.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, season string) *RedisStore {
	return &RedisStore{
		client: client,
		key:    fmt.Sprintf("odds:league:%s", season),
	}
}

func (s *RedisStore) Load(ctx context.Context) (*Snapshot, bool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading odds snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("unmarshaling odds snapshot: %w", err)
	}
	return &snap, true, nil
}

func (s *RedisStore) Save(ctx context.Context, snap *Snapshot, ttl time.Duration) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling odds snapshot: %w", err)
	}
	return s.client.Set(ctx, s.key, data, ttl).Err()
}
