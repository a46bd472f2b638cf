package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/reachcraft/messaging/internal/db"
	"github.com/reachcraft/messaging/internal/provider"
)

type fakeStore struct {
	row   *db.ProviderSettingsRow
	err   error
	calls int
}

func (f *fakeStore) GetProviderSettings(ctx context.Context) (*db.ProviderSettingsRow, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.row, nil
}

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func testRow() *db.ProviderSettingsRow {
	return &db.ProviderSettingsRow{
		PrimaryProvider: provider.TextGrid,
		EnableFallback:  true,
		FallbackOnError: false,
		ProviderEnabled: map[string]bool{provider.TextGrid: true, provider.Twilio: true},
	}
}

func TestCacheServesWithinTTL(t *testing.T) {
	store := &fakeStore{row: testRow()}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	cache := NewCache(store, zap.NewNop(), WithClock(clock.now), WithTTL(60*time.Second))

	ctx := context.Background()

	first := cache.Get(ctx)
	if first.PrimaryProvider != provider.TextGrid {
		t.Fatalf("PrimaryProvider = %q, want textgrid", first.PrimaryProvider)
	}
	if store.calls != 1 {
		t.Fatalf("expected one storage read, got %d", store.calls)
	}

	clock.advance(59 * time.Second)
	second := cache.Get(ctx)
	if store.calls != 1 {
		t.Errorf("read within TTL must not hit storage, got %d calls", store.calls)
	}
	if second.PrimaryProvider != first.PrimaryProvider {
		t.Error("cached value should match the original fetch")
	}
}

func TestCacheRefreshesAfterExpiry(t *testing.T) {
	store := &fakeStore{row: testRow()}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	cache := NewCache(store, zap.NewNop(), WithClock(clock.now), WithTTL(60*time.Second))

	ctx := context.Background()
	cache.Get(ctx)

	store.row = &db.ProviderSettingsRow{
		PrimaryProvider: provider.Twilio,
		ProviderEnabled: map[string]bool{provider.Twilio: true},
	}

	clock.advance(61 * time.Second)
	refreshed := cache.Get(ctx)

	if store.calls != 2 {
		t.Errorf("expected a second storage read after expiry, got %d", store.calls)
	}
	if refreshed.PrimaryProvider != provider.Twilio {
		t.Errorf("PrimaryProvider = %q, want twilio after refresh", refreshed.PrimaryProvider)
	}
}

func TestCacheStorageFailureYieldsDefaultUncached(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	cache := NewCache(store, zap.NewNop(), WithClock(clock.now))

	ctx := context.Background()

	got := cache.Get(ctx)
	want := Default()
	if got.PrimaryProvider != want.PrimaryProvider {
		t.Errorf("PrimaryProvider = %q, want default %q", got.PrimaryProvider, want.PrimaryProvider)
	}
	if !got.EnableFallback || !got.FallbackOnError {
		t.Error("default policy should enable fallback on both paths")
	}

	// The default is never cached; the next read retries storage.
	store.err = nil
	store.row = testRow()
	recovered := cache.Get(ctx)
	if store.calls != 2 {
		t.Errorf("expected retry after failure, got %d calls", store.calls)
	}
	if recovered.PrimaryProvider != provider.TextGrid {
		t.Errorf("PrimaryProvider = %q, want textgrid after recovery", recovered.PrimaryProvider)
	}
}

func TestCacheInvalidateForcesRefetch(t *testing.T) {
	store := &fakeStore{row: testRow()}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	cache := NewCache(store, zap.NewNop(), WithClock(clock.now))

	ctx := context.Background()
	cache.Get(ctx)

	store.row = &db.ProviderSettingsRow{
		PrimaryProvider: provider.SNS,
		ProviderEnabled: map[string]bool{provider.SNS: true},
	}

	cache.Invalidate()
	got := cache.Get(ctx)

	if store.calls != 2 {
		t.Errorf("expected refetch after Invalidate, got %d calls", store.calls)
	}
	if got.PrimaryProvider != provider.SNS {
		t.Errorf("PrimaryProvider = %q, want sns", got.PrimaryProvider)
	}
}

func TestFromRowEmptyPrimaryDefaultsToTwilio(t *testing.T) {
	store := &fakeStore{row: &db.ProviderSettingsRow{
		ProviderEnabled: map[string]bool{provider.Twilio: true},
	}}
	cache := NewCache(store, zap.NewNop())

	got := cache.Get(context.Background())
	if got.PrimaryProvider != provider.Twilio {
		t.Errorf("empty primary should default to twilio, got %q", got.PrimaryProvider)
	}
}

func TestEnabled(t *testing.T) {
	s := ProviderSettings{ProviderEnabled: map[string]bool{provider.Twilio: true, provider.SNS: false}}

	if !s.Enabled(provider.Twilio) {
		t.Error("twilio should be enabled")
	}
	if s.Enabled(provider.SNS) {
		t.Error("sns is explicitly disabled")
	}
	if s.Enabled(provider.TextGrid) {
		t.Error("absent carrier should read as disabled")
	}
}
