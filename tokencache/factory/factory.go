// Package factory selects a token cache backend from the environment.
package factory

import (
	"fmt"
	"os"
	"strings"

	"github.com/driveloop/fleetlink/internal/config"
	"github.com/driveloop/fleetlink/tokencache"
	redisstore "github.com/driveloop/fleetlink/tokencache/redis"
	sqlitestore "github.com/driveloop/fleetlink/tokencache/sqlite"
)

// FromEnv builds the cache named by FLEETLINK_TOKEN_CACHE (memory, redis, or
// sqlite; memory is the default). FLEETLINK_TOKEN_TTL overrides the 14-minute
// default for every backend.
func FromEnv() (tokencache.Cache, error) {
	backend := strings.ToLower(config.ParseStringEnv("FLEETLINK_TOKEN_CACHE", "memory"))
	ttl := config.ParseDurationEnv("FLEETLINK_TOKEN_TTL", tokencache.DefaultTTL)

	switch backend {
	case "memory":
		return tokencache.NewMemory(tokencache.WithTTL(ttl)), nil

	case "redis":
		addr := config.ParseStringEnv("FLEETLINK_REDIS_ADDR", "127.0.0.1:6379")
		password := strings.TrimSpace(os.Getenv("FLEETLINK_REDIS_PASSWORD"))
		db := config.ParseIntEnv("FLEETLINK_REDIS_DB", 0)
		return redisstore.New(addr,
			redisstore.WithPassword(password),
			redisstore.WithDB(db),
			redisstore.WithTTL(ttl),
		)

	case "sqlite":
		path := config.ParseStringEnv("FLEETLINK_SQLITE_PATH", "./.fleetlink/tokens.db")
		return sqlitestore.New(path, sqlitestore.WithTTL(ttl))
	}

	return nil, fmt.Errorf("unsupported FLEETLINK_TOKEN_CACHE %q (use memory, redis, or sqlite)", backend)
}
