// Package sqlite backs the token cache with a local SQLite file so cached
// vendor sessions survive process restarts on single-instance deployments.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/driveloop/fleetlink/tokencache"
)

//go:embed schema.sql
var schemaSQL string

const defaultBusyTimeout = 5 * time.Second

type Store struct {
	db          *sql.DB
	ttl         time.Duration
	busyTimeout time.Duration
	enableWAL   bool
	now         func() time.Time
}

type Option func(*Store)

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithBusyTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		if timeout >= 0 {
			s.busyTimeout = timeout
		}
	}
}

func WithWAL(enabled bool) Option {
	return func(s *Store) { s.enableWAL = enabled }
}

func New(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	s := &Store{
		ttl:         tokencache.DefaultTTL,
		busyTimeout: defaultBusyTimeout,
		enableWAL:   true,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s.db = db
	if err := s.initialize(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	if s.busyTimeout > 0 {
		ms := int(s.busyTimeout / time.Millisecond)
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d;", ms)); err != nil {
			return fmt.Errorf("failed to set busy_timeout: %w", err)
		}
	}
	if s.enableWAL {
		if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("failed to enable WAL: %w", err)
		}
	}
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var (
		token     string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT token, expires_at FROM cached_tokens WHERE cache_key = ?", key,
	).Scan(&token, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", tokencache.ErrNotFound
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}

	if s.now().Unix() >= expiresAt {
		if _, err := s.db.ExecContext(ctx,
			"DELETE FROM cached_tokens WHERE cache_key = ?", key); err != nil {
			return "", fmt.Errorf("failed to evict expired token: %w", err)
		}
		return "", tokencache.ErrNotFound
	}
	return token, nil
}

func (s *Store) Put(ctx context.Context, key, token string) error {
	expiresAt := s.now().Add(s.ttl).Unix()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO cached_tokens (cache_key, token, expires_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(cache_key) DO UPDATE SET token = excluded.token, expires_at = excluded.expires_at",
		key, token, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
