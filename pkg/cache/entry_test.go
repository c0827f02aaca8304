package cache

import (
	"testing"
	"time"
)

func TestCacheEntry_IsExpired(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{name: "expired entry", expires: time.Now().Add(-1 * time.Hour), want: true},
		{name: "valid entry", expires: time.Now().Add(1 * time.Hour), want: false},
		{name: "just expired", expires: time.Now().Add(-1 * time.Second), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &CacheEntry{Expires: tt.expires}
			if got := entry.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCacheEntry_TTL(t *testing.T) {
	entry := &CacheEntry{Expires: time.Now().Add(5 * time.Minute)}
	if got := entry.TTL(); got < 4*time.Minute+59*time.Second || got > 5*time.Minute {
		t.Errorf("TTL() = %v, want about 5m", got)
	}

	expired := &CacheEntry{Expires: time.Now().Add(-1 * time.Hour)}
	if got := expired.TTL(); got != 0 {
		t.Errorf("TTL() on expired entry = %v, want 0", got)
	}
}

func TestCacheEntry_ExpiredAtAndTTLAt(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	entry := &CacheEntry{Expires: now.Add(time.Minute)}

	if entry.ExpiredAt(now) {
		t.Error("ExpiredAt(now) = true, want false")
	}
	if got := entry.TTLAt(now); got != time.Minute {
		t.Errorf("TTLAt(now) = %v, want 1m", got)
	}
	if !entry.ExpiredAt(now.Add(time.Minute + time.Second)) {
		t.Error("ExpiredAt(after expiry) = false, want true")
	}
	if got := entry.TTLAt(now.Add(time.Hour)); got != 0 {
		t.Errorf("TTLAt(after expiry) = %v, want 0", got)
	}
}
