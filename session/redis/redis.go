package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// Store keeps each session as a Redis list of JSON turns, newest at the head.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects using cfg.URL when set, otherwise host/port/password/db,
// and pings the server.
func New(ctx context.Context, cfg config.RedisConfig, ttl time.Duration) (*Store, error) {
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed (%s): %w", opts.Addr, err)
	}
	return NewWithClient(client, ttl), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func clientOptions(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		o, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = o
	} else {
		opts = &redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if cfg.Timeout > 0 {
		opts.DialTimeout = cfg.Timeout
		opts.ReadTimeout = cfg.Timeout
		opts.WriteTimeout = cfg.Timeout
	}
	return opts, nil
}

func key(sessionID string) string { return keyPrefix + sessionID }

func (s *Store) Append(ctx context.Context, sessionID string, turn models.Turn) error {
	if sessionID == "" {
		return models.ErrSessionRequired
	}
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}
	k := key(sessionID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, k, data)
		pipe.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append turn to %s: %w", k, err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context, sessionID string) ([]models.Turn, error) {
	if sessionID == "" {
		return nil, models.ErrSessionRequired
	}
	k := key(sessionID)
	raw, err := s.client.LRange(ctx, k, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", k, err)
	}
	turns := make([]models.Turn, 0, len(raw))
	for _, item := range raw {
		var t models.Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			return nil, fmt.Errorf("decode turn in %s: %w", k, err)
		}
		turns = append(turns, t)
	}
	slices.Reverse(turns)
	return turns, nil
}

func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return models.ErrSessionRequired
	}
	if err := s.client.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear %s: %w", key(sessionID), err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
