package redis

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/redis/go-redis/v9"
)

const stopListKey = "lounge:stoplist"

// StopListRepo keeps blocked items in a Redis set.
type StopListRepo struct {
	client *redis.Client
	logger apt.Logger
	config *apt.Config
}

func NewStopListRepo(config *apt.Config, logger apt.Logger) *StopListRepo {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &StopListRepo{
		logger: logger,
		config: config,
	}
}

func (r *StopListRepo) Start(ctx context.Context) error {
	addr := r.config.GetStringOrDef("redis.addr", "localhost:6379")
	password := r.config.GetStringOrDef("redis.password", "")

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("cannot ping Redis: %w", err)
	}

	r.client = client
	r.logger.Infof("Connected to Redis: %s", addr)
	return nil
}

func (r *StopListRepo) Stop(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("cannot close Redis client: %w", err)
	}
	r.logger.Info("Disconnected from Redis")
	return nil
}

func (r *StopListRepo) ready() error {
	if r.client == nil {
		return fmt.Errorf("Redis stop list not started")
	}
	return nil
}

func (r *StopListRepo) Add(ctx context.Context, item string) error {
	if err := r.ready(); err != nil {
		return err
	}
	if err := r.client.SAdd(ctx, stopListKey, item).Err(); err != nil {
		return fmt.Errorf("cannot add stop list item: %w", err)
	}
	return nil
}

func (r *StopListRepo) Remove(ctx context.Context, item string) error {
	if err := r.ready(); err != nil {
		return err
	}
	if err := r.client.SRem(ctx, stopListKey, item).Err(); err != nil {
		return fmt.Errorf("cannot remove stop list item: %w", err)
	}
	return nil
}

func (r *StopListRepo) Items(ctx context.Context) ([]string, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	items, err := r.client.SMembers(ctx, stopListKey).Result()
	if err != nil {
		return nil, fmt.Errorf("cannot read stop list: %w", err)
	}
	return items, nil
}
