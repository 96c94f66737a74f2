// Package redislist loads clickstream events from a Redis list of JSON
// records. The list is read as a one-shot LRANGE snapshot: the pipeline is
// a batch run, so the source takes whatever is in the list at call time
// rather than blocking for new entries.
package redislist

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/crimson-sun/presage/internal/model"
	"github.com/crimson-sun/presage/internal/source"
)

func init() {
	source.Register("redislist", func() source.Source { return &List{} })
}

// List snapshots a Redis list of JSON event records.
type List struct{}

// Load connects to cfg.RedisAddr and reads the full list at cfg.RedisKey.
func (l *List) Load(ctx context.Context, cfg source.Config) ([]model.Event, error) {
	if cfg.RedisKey == "" {
		return nil, fmt.Errorf("redislist: redis key is required")
	}
	addr := cfg.RedisAddr
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer client.Close()

	raws, err := client.LRange(ctx, cfg.RedisKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redislist: lrange %s: %w", cfg.RedisKey, err)
	}

	events := make([]model.Event, 0, len(raws))
	for i, raw := range raws {
		ev, err := source.ParseRecord([]byte(raw), i+1)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}
