// Package settings holds the tenant-wide provider selection policy and the
// process-wide cache that absorbs read pressure from every send.
package settings

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/reachcraft/messaging/internal/db"
	"github.com/reachcraft/messaging/internal/metrics"
	"github.com/reachcraft/messaging/internal/provider"
)

// DefaultTTL is the cache validity window for provider settings.
const DefaultTTL = 60 * time.Second

// ProviderSettings is the immutable policy value consulted on every send.
// A cached value is swapped wholesale on refresh, never mutated in place.
type ProviderSettings struct {
	PrimaryProvider  string
	EnableFallback   bool
	FallbackOnError  bool
	ProviderEnabled  map[string]bool
	EndpointOverride map[string]string
}

// Enabled reports whether a carrier is switched on in the policy.
func (s ProviderSettings) Enabled(carrier string) bool {
	return s.ProviderEnabled[carrier]
}

// Default is the hard-coded policy used when storage is unreachable or
// empty. The engine must never be unable to decide a provider order.
func Default() ProviderSettings {
	return ProviderSettings{
		PrimaryProvider: provider.Twilio,
		EnableFallback:  true,
		FallbackOnError: true,
		ProviderEnabled: map[string]bool{
			provider.Twilio:   true,
			provider.TextGrid: true,
		},
	}
}

// Store is the storage dependency the cache refreshes from.
type Store interface {
	GetProviderSettings(ctx context.Context) (*db.ProviderSettingsRow, error)
}

type entry struct {
	settings  ProviderSettings
	fetchedAt time.Time
}

// Cache is the process-wide settings slot. Concurrent readers may race to
// refresh after expiry; the redundant storage reads are harmless because
// the held value is immutable and swapped atomically under the lock.
type Cache struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu      sync.RWMutex
	current *entry
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock substitutes the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithTTL overrides the validity window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// NewCache creates a settings cache over the given store.
func NewCache(store Store, logger *zap.Logger, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the current settings, refreshing from storage when the cached
// entry is older than the TTL. Storage failure or an empty table yields the
// hard-coded default without caching it, so the next call retries storage.
func (c *Cache) Get(ctx context.Context) ProviderSettings {
	c.mu.RLock()
	if c.current != nil && c.now().Sub(c.current.fetchedAt) < c.ttl {
		s := c.current.settings
		c.mu.RUnlock()
		metrics.RecordSettingsCacheEvent("hit")
		return s
	}
	c.mu.RUnlock()

	row, err := c.store.GetProviderSettings(ctx)
	if err != nil {
		c.logger.Warn("provider settings unavailable, using defaults", zap.Error(err))
		metrics.RecordSettingsCacheEvent("default")
		return Default()
	}

	fetched := fromRow(row)
	c.mu.Lock()
	c.current = &entry{settings: fetched, fetchedAt: c.now()}
	c.mu.Unlock()
	metrics.RecordSettingsCacheEvent("refresh")

	c.logger.Debug("provider settings refreshed",
		zap.String("primary_provider", fetched.PrimaryProvider),
		zap.Bool("enable_fallback", fetched.EnableFallback),
	)

	return fetched
}

// Invalidate drops the cached entry. Settings writes call this in the same
// request before returning, guaranteeing read-after-write consistency for
// the next caller.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

func fromRow(row *db.ProviderSettingsRow) ProviderSettings {
	s := ProviderSettings{
		PrimaryProvider:  row.PrimaryProvider,
		EnableFallback:   row.EnableFallback,
		FallbackOnError:  row.FallbackOnError,
		ProviderEnabled:  make(map[string]bool, len(row.ProviderEnabled)),
		EndpointOverride: make(map[string]string, len(row.EndpointOverride)),
	}
	for k, v := range row.ProviderEnabled {
		s.ProviderEnabled[k] = v
	}
	for k, v := range row.EndpointOverride {
		s.EndpointOverride[k] = v
	}
	if s.PrimaryProvider == "" {
		s.PrimaryProvider = provider.Twilio
	}
	return s
}
