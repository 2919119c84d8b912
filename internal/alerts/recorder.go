package alerts

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

const defaultRecentKey = "inventory:alerts:recent"

// RedisRecorder keeps the most recent alerts in a capped Redis list.
type RedisRecorder struct {
	Client *redis.Client
	Key    string
	Max    int64
}

// Record pushes a onto the list, newest first.
func (r RedisRecorder) Record(ctx context.Context, a Alert) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	pipe := r.Client.TxPipeline()
	pipe.LPush(ctx, r.key(), data)
	pipe.LTrim(ctx, r.key(), 0, r.max()-1)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to limit alerts, newest first.
func (r RedisRecorder) Recent(ctx context.Context, limit int64) ([]Alert, error) {
	if limit <= 0 || limit > r.max() {
		limit = r.max()
	}
	raw, err := r.Client.LRange(ctx, r.key(), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Alert, 0, len(raw))
	for _, item := range raw {
		var a Alert
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r RedisRecorder) key() string {
	if r.Key == "" {
		return defaultRecentKey
	}
	return r.Key
}

func (r RedisRecorder) max() int64 {
	if r.Max <= 0 {
		return 100
	}
	return r.Max
}
