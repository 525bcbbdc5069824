// Package redis backs the token cache with Redis so multiple gateway
// instances share one set of vendor sessions instead of each authenticating
// separately.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/driveloop/fleetlink/tokencache"
)

const defaultPrefix = "fleetlink"

type Store struct {
	client   *goredis.Client
	ttl      time.Duration
	prefix   string
	addr     string
	db       int
	password string
}

type Option func(*Store)

func WithPassword(password string) Option {
	return func(s *Store) { s.password = password }
}

func WithDB(db int) Option {
	return func(s *Store) { s.db = db }
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if strings.TrimSpace(prefix) != "" {
			s.prefix = strings.TrimSpace(prefix)
		}
	}
}

func WithClient(client *goredis.Client) Option {
	return func(s *Store) {
		if client != nil {
			s.client = client
		}
	}
}

func New(addr string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	s := &Store{
		ttl:    tokencache.DefaultTTL,
		prefix: defaultPrefix,
		addr:   addr,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = goredis.NewClient(&goredis.Options{
			Addr:     s.addr,
			Password: s.password,
			DB:       s.db,
		})
	}

	if err := s.client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return s, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	token, err := s.client.Get(ctx, s.tokenKey(key)).Result()
	if err != nil {
		if err == goredis.Nil {
			return "", tokencache.ErrNotFound
		}
		return "", fmt.Errorf("failed to load token from redis: %w", err)
	}
	return token, nil
}

func (s *Store) Put(ctx context.Context, key, token string) error {
	// Redis expires the key itself; no lazy eviction needed.
	if err := s.client.Set(ctx, s.tokenKey(key), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store token in redis: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Store) tokenKey(key string) string {
	return fmt.Sprintf("%s:token:%s", s.prefix, key)
}
