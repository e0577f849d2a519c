package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/githarvest/githarvest/pkg/model"
)

func init() {
	Register("redis", newRedisSink)
}

// redisSink stores each record as a JSON value under a per-commit key and
// appends the hash to a per-project list, so consumers can replay delivery
// order without scanning the keyspace.
type redisSink struct {
	client  *redis.Client
	keybase string
}

func newRedisSink(cfg Config) (Sink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("ping redis at %s: %w", cfg.RedisAddr, err)
	}

	return &redisSink{
		client:  client,
		keybase: "githarvest:" + cfg.ProjectName,
	}, nil
}

// Name returns the backend name.
func (s *redisSink) Name() string {
	return "redis"
}

// AddCommit stores the record and appends its hash to the project list in a
// single transaction.
func (s *redisSink) AddCommit(ctx context.Context, record *model.CommitRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode commit %s: %w", record.Hash, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keybase+":commit:"+record.Hash, data, 0)
	pipe.RPush(ctx, s.keybase+":commits", record.Hash)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store commit %s: %w", record.Hash, err)
	}

	return nil
}

// Close releases the client connection pool.
func (s *redisSink) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}

	return nil
}
