// Package factory builds provider adapters from a provider type. Builders for
// the supported vendors self-register at init, so resolving an adapter never
// needs a switch over every vendor.
package factory

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/driveloop/fleetlink/fleet"
	"github.com/driveloop/fleetlink/internal/transport"
	"github.com/driveloop/fleetlink/observe"
	"github.com/driveloop/fleetlink/providers/fleetgo"
	"github.com/driveloop/fleetlink/providers/routevision"
	"github.com/driveloop/fleetlink/providers/samsara"
	"github.com/driveloop/fleetlink/providers/trackjack"
	"github.com/driveloop/fleetlink/providers/verizon"
	"github.com/driveloop/fleetlink/providers/webfleet"
	"github.com/driveloop/fleetlink/tokencache"
)

// Config carries the cross-cutting collaborators injected into every adapter.
// Zero values fall back to each adapter's own defaults: the production base
// URL, a 30s HTTP client, an in-process token cache, a no-op sink, and no
// retries.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Cache      tokencache.Cache
	Sink       observe.Sink
	Retry      transport.RetryPolicy
}

// Builder constructs one vendor's adapter from the shared config.
type Builder func(Config) fleet.Adapter

var (
	mu       sync.RWMutex
	builders = make(map[fleet.ProviderType]Builder)
)

// Register installs a builder for a provider type, replacing any previous
// registration.
func Register(provider fleet.ProviderType, b Builder) {
	mu.Lock()
	defer mu.Unlock()
	builders[provider] = b
}

// New resolves the adapter for provider. Unregistered types fail with
// fleet.ErrUnknownProvider.
func New(provider fleet.ProviderType, cfg Config) (fleet.Adapter, error) {
	mu.RLock()
	b, ok := builders[provider]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", fleet.ErrUnknownProvider, provider)
	}
	return b(cfg), nil
}

func init() {
	Register(fleet.ProviderRouteVision, func(cfg Config) fleet.Adapter {
		opts := []routevision.Option{
			routevision.WithHTTPClient(cfg.HTTPClient),
			routevision.WithTokenCache(cfg.Cache),
			routevision.WithSink(cfg.Sink),
			routevision.WithRetryPolicy(cfg.Retry),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, routevision.WithBaseURL(cfg.BaseURL))
		}
		return routevision.New(opts...)
	})

	Register(fleet.ProviderFleetGO, func(cfg Config) fleet.Adapter {
		opts := []fleetgo.Option{
			fleetgo.WithHTTPClient(cfg.HTTPClient),
			fleetgo.WithTokenCache(cfg.Cache),
			fleetgo.WithSink(cfg.Sink),
			fleetgo.WithRetryPolicy(cfg.Retry),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, fleetgo.WithBaseURL(cfg.BaseURL))
		}
		return fleetgo.New(opts...)
	})

	Register(fleet.ProviderSamsara, func(cfg Config) fleet.Adapter {
		opts := []samsara.Option{
			samsara.WithHTTPClient(cfg.HTTPClient),
			samsara.WithTokenCache(cfg.Cache),
			samsara.WithSink(cfg.Sink),
			samsara.WithRetryPolicy(cfg.Retry),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, samsara.WithBaseURL(cfg.BaseURL))
		}
		return samsara.New(opts...)
	})

	Register(fleet.ProviderWebfleet, func(cfg Config) fleet.Adapter {
		opts := []webfleet.Option{
			webfleet.WithHTTPClient(cfg.HTTPClient),
			webfleet.WithTokenCache(cfg.Cache),
			webfleet.WithSink(cfg.Sink),
			webfleet.WithRetryPolicy(cfg.Retry),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, webfleet.WithBaseURL(cfg.BaseURL))
		}
		return webfleet.New(opts...)
	})

	Register(fleet.ProviderTrackJack, func(cfg Config) fleet.Adapter {
		opts := []trackjack.Option{
			trackjack.WithHTTPClient(cfg.HTTPClient),
			trackjack.WithTokenCache(cfg.Cache),
			trackjack.WithSink(cfg.Sink),
			trackjack.WithRetryPolicy(cfg.Retry),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, trackjack.WithBaseURL(cfg.BaseURL))
		}
		return trackjack.New(opts...)
	})

	Register(fleet.ProviderVerizon, func(cfg Config) fleet.Adapter {
		opts := []verizon.Option{
			verizon.WithHTTPClient(cfg.HTTPClient),
			verizon.WithTokenCache(cfg.Cache),
			verizon.WithSink(cfg.Sink),
			verizon.WithRetryPolicy(cfg.Retry),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, verizon.WithBaseURL(cfg.BaseURL))
		}
		return verizon.New(opts...)
	})
}
