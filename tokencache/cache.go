// Package tokencache stores short-lived provider tokens between calls so
// adapters do not re-authenticate on every request. The default backend is an
// in-memory process-wide store; redis and sqlite backends exist for
// deployments with multiple instances or restarts.
package tokencache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/driveloop/fleetlink/fleet"
)

// DefaultTTL is deliberately shorter than any vendor's own session lifetime
// so a cached token never expires mid-call.
const DefaultTTL = 14 * time.Minute

var ErrNotFound = errors.New("tokencache: not found")

// Cache is a keyed token store with a fixed TTL per entry. Implementations
// must be safe for concurrent use; last-writer-wins on Put is acceptable.
type Cache interface {
	// Get returns the token for key if it has not expired, ErrNotFound
	// otherwise. Implementations evict expired entries they encounter.
	Get(ctx context.Context, key string) (string, error)

	// Put stores token under key with expiry now+TTL.
	Put(ctx context.Context, key, token string) error

	Close() error
}

// Key derives the cache key for a provider/account pair. It is composed from
// the provider type and the credential's non-secret identifier (email, or a
// short key prefix), never a full secret, so keys are safe to log.
func Key(provider fleet.ProviderType, creds fleet.Credentials) string {
	if creds == nil {
		return string(provider)
	}
	return fmt.Sprintf("%s:%s", provider, creds.Identifier())
}
