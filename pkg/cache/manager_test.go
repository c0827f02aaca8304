package cache

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/Sternrassler/workshop-collector/internal/testutil"
	"github.com/Sternrassler/workshop-collector/pkg/workshop"
	"github.com/alicebob/miniredis/v2"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis starts an in-memory Redis for unit tests. The
// integration suite runs the same operations against a real server.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
	})

	return client, mr
}

func testKey(cursor string) CacheKey {
	return CacheKey{
		Endpoint:    "/IPublishedFileService/QueryFiles/v1/",
		QueryParams: url.Values{"appid": []string{"233610"}, "cursor": []string{cursor}},
	}
}

func TestNewManager(t *testing.T) {
	client, _ := setupTestRedis(t)

	manager := NewManager(client, 0)
	if manager.redis != client {
		t.Error("Manager redis client not set correctly")
	}
	if manager.TTL() != DefaultTTL {
		t.Errorf("TTL() = %v, want %v", manager.TTL(), DefaultTTL)
	}
}

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager should panic with nil redis client")
		}
	}()
	NewManager(nil, time.Minute)
}

func TestManager_SetAndGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	manager := NewManager(client, time.Minute)
	ctx := context.Background()

	entry := &CacheEntry{
		Data:     []byte(`{"total":1}`),
		Expires:  time.Now().Add(5 * time.Minute),
		CachedAt: time.Now(),
	}

	if err := manager.Set(ctx, testKey("*"), entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	retrieved, err := manager.Get(ctx, testKey("*"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(retrieved.Data) != string(entry.Data) {
		t.Errorf("Data mismatch: got %s, want %s", retrieved.Data, entry.Data)
	}

	ttl := mr.TTL(testKey("*").String())
	if ttl <= 0 || ttl > 5*time.Minute {
		t.Errorf("redis TTL = %v, want (0, 5m]", ttl)
	}
}

func TestManager_Get_CacheMiss(t *testing.T) {
	client, _ := setupTestRedis(t)
	manager := NewManager(client, time.Minute)

	_, err := manager.Get(context.Background(), testKey("missing"))
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestManager_Set_ExpiredEntryNotStored(t *testing.T) {
	client, mr := setupTestRedis(t)
	manager := NewManager(client, time.Minute)

	entry := &CacheEntry{
		Data:    []byte(`{}`),
		Expires: time.Now().Add(-1 * time.Hour),
	}
	if err := manager.Set(context.Background(), testKey("*"), entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if mr.Exists(testKey("*").String()) {
		t.Error("expired entry was written to redis")
	}
}

func TestManager_Get_InvalidEntry(t *testing.T) {
	client, mr := setupTestRedis(t)
	manager := NewManager(client, time.Minute)

	if err := mr.Set(testKey("*").String(), "garbage"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	_, err := manager.Get(context.Background(), testKey("*"))
	if !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("Expected ErrInvalidEntry, got %v", err)
	}
}

func TestManager_Delete(t *testing.T) {
	client, _ := setupTestRedis(t)
	manager := NewManager(client, time.Minute)
	ctx := context.Background()

	entry := &CacheEntry{Data: []byte(`{}`), Expires: time.Now().Add(5 * time.Minute)}
	if err := manager.Set(ctx, testKey("*"), entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := manager.Delete(ctx, testKey("*")); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := manager.Get(ctx, testKey("*")); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after Delete, got %v", err)
	}
}

func TestManager_Set_NilEntry(t *testing.T) {
	client, _ := setupTestRedis(t)
	manager := NewManager(client, time.Minute)

	if err := manager.Set(context.Background(), testKey("*"), nil); err == nil {
		t.Error("Set with nil entry should return error")
	}
}

func TestManager_SetPageAndGetPage(t *testing.T) {
	client, _ := setupTestRedis(t)
	manager := NewManager(client, time.Minute)
	ctx := context.Background()

	page := workshop.NewPage(2, []workshop.Record{workshop.Record(`{"id":1}`)}, "next")
	if err := manager.SetPage(ctx, testKey("*"), page); err != nil {
		t.Fatalf("SetPage failed: %v", err)
	}

	got, err := manager.GetPage(ctx, testKey("*"))
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if total, ok := got.TotalCount(); !ok || total != 2 {
		t.Errorf("TotalCount() = %d, %v", total, ok)
	}
	if got.NextCursor != "next" {
		t.Errorf("NextCursor = %q", got.NextCursor)
	}
}

func TestManager_SetPage_RejectsMalformed(t *testing.T) {
	client, mr := setupTestRedis(t)
	manager := NewManager(client, time.Minute)

	page := &workshop.Page{Records: []byte(`{"title":"Test"}`)}
	err := manager.SetPage(context.Background(), testKey("*"), page)
	if !errors.Is(err, ErrNotCacheable) {
		t.Errorf("SetPage() error = %v, want ErrNotCacheable", err)
	}
	if mr.Exists(testKey("*").String()) {
		t.Error("malformed page was written to redis")
	}
}

func TestManager_ExpiryFollowsClock(t *testing.T) {
	client, mr := setupTestRedis(t)
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clk := testutil.NewFakeClock(start)
	manager := NewManager(client, time.Minute).WithClock(clk)
	ctx := context.Background()

	page := workshop.NewPage(1, []workshop.Record{workshop.Record(`{"id":1}`)}, "")
	if err := manager.SetPage(ctx, testKey("*"), page); err != nil {
		t.Fatalf("SetPage failed: %v", err)
	}

	entry, err := manager.Get(ctx, testKey("*"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !entry.CachedAt.Equal(start) || !entry.Expires.Equal(start.Add(time.Minute)) {
		t.Errorf("entry times = %v / %v, want %v / %v", entry.CachedAt, entry.Expires, start, start.Add(time.Minute))
	}
	if ttl := mr.TTL(testKey("*").String()); ttl != time.Minute {
		t.Errorf("redis TTL = %v, want 1m", ttl)
	}

	clk.Advance(30 * time.Second)
	if _, err := manager.GetPage(ctx, testKey("*")); err != nil {
		t.Errorf("GetPage before expiry error = %v", err)
	}

	// The key is still in redis; the manager's clock decides staleness.
	clk.Advance(31 * time.Second)
	if _, err := manager.GetPage(ctx, testKey("*")); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("GetPage after expiry error = %v, want ErrCacheMiss", err)
	}
	if mr.Exists(testKey("*").String()) {
		t.Error("stale entry was not deleted")
	}
}

func TestManager_CountsBytes(t *testing.T) {
	client, mr := setupTestRedis(t)
	manager := NewManager(client, time.Minute)
	ctx := context.Background()

	setBefore := promtest.ToFloat64(CacheBytes.WithLabelValues("set"))
	getBefore := promtest.ToFloat64(CacheBytes.WithLabelValues("get"))

	page := workshop.NewPage(1, []workshop.Record{workshop.Record(`{"id":1}`)}, "")
	if err := manager.SetPage(ctx, testKey("bytes"), page); err != nil {
		t.Fatalf("SetPage failed: %v", err)
	}
	stored, err := mr.Get(testKey("bytes").String())
	if err != nil {
		t.Fatalf("stored entry missing: %v", err)
	}
	if _, err := manager.GetPage(ctx, testKey("bytes")); err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}

	size := float64(len(stored))
	if got := promtest.ToFloat64(CacheBytes.WithLabelValues("set")) - setBefore; got != size {
		t.Errorf("set bytes = %v, want %v", got, size)
	}
	if got := promtest.ToFloat64(CacheBytes.WithLabelValues("get")) - getBefore; got != size {
		t.Errorf("get bytes = %v, want %v", got, size)
	}
}
